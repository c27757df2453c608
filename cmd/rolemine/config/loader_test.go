// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cfg.Extract.SessionGap.Std())
	assert.Equal(t, 0, cfg.Extract.SliceMonths)
	assert.Equal(t, 5, cfg.Model.Roles)
	assert.Equal(t, 0.1, cfg.Model.Alpha)
	assert.Equal(t, 0.1, cfg.Model.Beta)
	assert.Equal(t, 100, cfg.Model.Sweeps)
	assert.Equal(t, uint64(47), cfg.Model.Seed)
}

// TestLoad_PartialOverlay verifies that a file only overrides the keys it
// names; everything else keeps its default.
func TestLoad_PartialOverlay(t *testing.T) {
	path := writeConfig(t, `
extract:
  session_gap: 90m
model:
  roles: 12
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Extract.SessionGap.Std())
	assert.Equal(t, 12, cfg.Model.Roles)
	assert.Equal(t, 100, cfg.Model.Sweeps)
	assert.Equal(t, 0.1, cfg.Model.Alpha)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
extract:
  session_gap: 12h
  slice_months: 3
model:
  roles: 8
  alpha: 0.5
  beta: 0.02
  sweeps: 250
  seed: 7
logging:
  verbose: true
  json: true
  dir: /tmp/logs
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, cfg.Extract.SessionGap.Std())
	assert.Equal(t, 3, cfg.Extract.SliceMonths)
	assert.Equal(t, 8, cfg.Model.Roles)
	assert.Equal(t, 0.5, cfg.Model.Alpha)
	assert.Equal(t, 0.02, cfg.Model.Beta)
	assert.Equal(t, 250, cfg.Model.Sweeps)
	assert.Equal(t, uint64(7), cfg.Model.Seed)
	assert.True(t, cfg.Logging.Verbose)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "/tmp/logs", cfg.Logging.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero roles", "model:\n  roles: 0\n"},
		{"too many roles", "model:\n  roles: 1000\n"},
		{"negative alpha", "model:\n  alpha: -0.1\n"},
		{"zero sweeps", "model:\n  sweeps: 0\n"},
		{"negative slice months", "extract:\n  slice_months: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "model: [not a mapping"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "extract:\n  session_gap: soon\n"))
	require.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("6h")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, d.Std())

	_, err = ParseDuration("whenever")
	require.Error(t, err)
}
