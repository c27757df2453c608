// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import "testing"

func TestNetworkName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"gardening.004.bin", "gardening"},
		{"dumps/gardening.004.bin", "gardening"},
		{"gardening.bin", "gardening"},
		{"meta.gardening.000.bin", "meta.gardening"},
		{"plain", "plain"},
		{"sessions.123456.bin", "sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := networkName(tt.path); got != tt.want {
				t.Errorf("networkName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSliceNumber(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"gardening.004.bin", 4},
		{"gardening.017.bin", 17},
		{"gardening.bin", 0},
		{"plain", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := sliceNumber(tt.path); got != tt.want {
				t.Errorf("sliceNumber(%q) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}
