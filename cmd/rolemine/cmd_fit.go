// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/dmmm"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/sessions"
)

// runFit loads one or more session files, treats each as a separate
// network, fits the role mixture model over the union of their sessions,
// and persists the fitted tables to the output directory.
func runFit(cmd *cobra.Command, args []string) error {
	outDir := args[0]
	files := args[1:]

	corpora := make([]dmmm.Corpus, 0, len(files))
	names := make([]string, 0, len(files))
	for _, file := range files {
		slice, err := sessions.ReadSliceFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		name := networkName(file)
		corpus := dmmm.Corpus{Name: name}
		for _, codes := range slice.Sessions() {
			corpus.Sessions = append(corpus.Sessions, dmmm.SessionCounts(codes))
		}
		log.Info("network loaded", "network", name, "file", file,
			"users", len(slice), "sessions", len(corpus.Sessions))
		corpora = append(corpora, corpus)
		names = append(names, name)
	}

	opts := dmmm.Options{
		Roles:  cfg.Model.Roles,
		Alpha:  cfg.Model.Alpha,
		Beta:   cfg.Model.Beta,
		Sweeps: cfg.Model.Sweeps,
		Seed:   cfg.Model.Seed,
	}
	model, err := dmmm.Fit(corpora, opts, log)
	if err != nil {
		return fmt.Errorf("fitting model: %w", err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := model.Save(outDir, names); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	log.Info("model saved", "dir", outDir, "roles", opts.Roles, "networks", len(names))
	return nil
}

// networkName derives a network label from a session file path: the base
// name with the .bin suffix and any numeric slice index removed, so
// "dumps/gardening.004.bin" becomes "gardening".
func networkName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".bin")
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 && allDigits(name[dot+1:]) {
		name = name[:dot]
	}
	return name
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
