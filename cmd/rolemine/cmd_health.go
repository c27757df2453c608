// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/extract"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/health"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/sessions"
)

// runHealth computes per-slice community health statistics for a data dump
// and writes them as CSV to stdout or the given file.
func runHealth(cmd *cobra.Command, args []string) error {
	folder := args[0]

	collector := extract.NewCollector(log)
	collector.KeepOwnerless = true
	streams := []struct {
		name     string
		collect  func(extract.RowSource) error
		required bool
	}{
		{"Posts", collector.CollectPosts, true},
		{"Comments", collector.CollectComments, false},
		{"PostHistory", collector.CollectHistory, false},
	}
	for _, s := range streams {
		src, err := extract.OpenRows(folder, s.name)
		if err != nil {
			if errors.Is(err, extract.ErrStreamMissing) && !s.required {
				log.Warn("stream missing, span may be narrower", "stream", s.name)
				continue
			}
			return err
		}
		err = s.collect(src)
		src.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.name, err)
		}
	}

	span := collector.Span()
	if !span.Valid() {
		return fmt.Errorf("no timestamped records in %s", folder)
	}

	months := cfg.Extract.SliceMonths
	if months <= 0 {
		months = 1
	}
	width := time.Duration(months) * sessions.MeanMonth

	order := collector.PostOrder()
	health.SortPostsByTime(collector.Registry(), order)
	numSlices := sessions.NumSlices(span, width)
	slices := health.Compute(collector.Registry(), order, span.Earliest, width, numSlices)
	log.Info("health computed", "posts", len(order), "slices", numSlices)

	var out io.Writer = os.Stdout
	if len(args) == 2 {
		file, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}
	return health.WriteCSV(out, slices)
}
