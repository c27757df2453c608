// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/sessions"
)

type sliceCount struct {
	slice    int
	sessions int
	users    int
}

// runSessions reads one or more session files and writes, per network,
// a CSV tallying the number of sessions and active users in each slice.
func runSessions(cmd *cobra.Command, args []string) error {
	byNetwork := make(map[string][]sliceCount)
	for _, file := range args {
		slice, err := sessions.ReadSliceFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		active := 0
		total := 0
		for _, user := range slice {
			if len(user) > 0 {
				active++
			}
			total += len(user)
		}
		network := networkName(file)
		byNetwork[network] = append(byNetwork[network], sliceCount{
			slice:    sliceNumber(file),
			sessions: total,
			users:    active,
		})
	}

	if err := os.MkdirAll(sessionsOutDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	networks := make([]string, 0, len(byNetwork))
	for n := range byNetwork {
		networks = append(networks, n)
	}
	sort.Strings(networks)

	for _, network := range networks {
		counts := byNetwork[network]
		sort.Slice(counts, func(i, j int) bool { return counts[i].slice < counts[j].slice })
		path := filepath.Join(sessionsOutDir, network+".csv")
		if err := writeCountsCSV(path, counts); err != nil {
			return err
		}
		log.Info("session counts written", "network", network, "path", path)
	}
	return nil
}

func writeCountsCSV(path string, counts []sliceCount) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"month", "num_sessions", "num_users"}); err != nil {
		return err
	}
	for _, c := range counts {
		row := []string{
			strconv.Itoa(c.slice),
			strconv.Itoa(c.sessions),
			strconv.Itoa(c.users),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// sliceNumber extracts the numeric slice index from a session file path,
// "gardening.004.bin" giving 4. Files without an index report slice 0.
func sliceNumber(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".bin")
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		if n, err := strconv.Atoi(name[dot+1:]); err == nil {
			return n
		}
	}
	return 0
}
