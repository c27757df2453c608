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
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/extract"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/sessions"
	"github.com/PelagicAI/rolemine/pkg/stats"
)

// statSummary is the manifest rendering of one running statistic.
type statSummary struct {
	Count  uint64  `yaml:"count"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// extractManifest records the provenance of one extraction run next to the
// slice files it produced.
type extractManifest struct {
	RunID       string    `yaml:"run_id"`
	Generated   time.Time `yaml:"generated"`
	Folder      string    `yaml:"folder"`
	Earliest    time.Time `yaml:"earliest"`
	Latest      time.Time `yaml:"latest"`
	SessionGap  string    `yaml:"session_gap"`
	SliceMonths int       `yaml:"slice_months"`
	Users       int       `yaml:"users"`
	Slices      []string  `yaml:"slices"`

	SessionLength   statSummary `yaml:"session_length"`
	GapMinutes      statSummary `yaml:"gap_minutes"`
	SessionsPerUser statSummary `yaml:"sessions_per_user"`
}

func summarize(a stats.Accumulator) statSummary {
	return statSummary{Count: a.Count(), Mean: a.Mean(), StdDev: a.StdDev()}
}

// runExtract reads the Posts, Comments and PostHistory streams of a data
// dump, classifies every action, segments each user's timeline into
// sessions, and writes one binary session file per time slice.
func runExtract(cmd *cobra.Command, args []string) error {
	folder := args[0]
	prefix := "sequences"
	if len(args) == 2 {
		prefix = args[1]
	}

	collector := extract.NewCollector(log)
	streams := []struct {
		name    string
		collect func(extract.RowSource) error
	}{
		{"Posts", collector.CollectPosts},
		{"Comments", collector.CollectComments},
		{"PostHistory", collector.CollectHistory},
	}
	for _, s := range streams {
		src, err := extract.OpenRows(folder, s.name)
		if err != nil {
			if errors.Is(err, extract.ErrStreamMissing) {
				return fmt.Errorf("dump folder %s has no %s stream: %w", folder, s.name, err)
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
	log.Info("dump collected",
		"users", len(collector.Timelines()),
		"posts", collector.Registry().Len(),
		"earliest", span.Earliest,
		"latest", span.Latest)

	width := time.Duration(cfg.Extract.SliceMonths) * sessions.MeanMonth
	slices, segStats, err := sessions.Partition(collector.Timelines(), span, sessions.PartitionOptions{
		Threshold: cfg.Extract.SessionGap.Std(),
		Birth:     span.Earliest,
		Width:     width,
	})
	if err != nil {
		return fmt.Errorf("segmenting sessions: %w", err)
	}

	log.Info("sessions segmented",
		"slices", len(slices),
		"mean_session_length", segStats.SessionLength.Mean(),
		"stddev_session_length", segStats.SessionLength.StdDev(),
		"mean_gap_minutes", segStats.GapMinutes.Mean(),
		"stddev_gap_minutes", segStats.GapMinutes.StdDev(),
		"mean_sessions_per_user", segStats.SessionsPerUser.Mean(),
		"stddev_sessions_per_user", segStats.SessionsPerUser.StdDev())

	manifest := extractManifest{
		RunID:           uuid.NewString(),
		Generated:       time.Now().UTC(),
		Folder:          folder,
		Earliest:        span.Earliest,
		Latest:          span.Latest,
		SessionGap:      cfg.Extract.SessionGap.Std().String(),
		SliceMonths:     cfg.Extract.SliceMonths,
		Users:           len(collector.Timelines()),
		SessionLength:   summarize(segStats.SessionLength),
		GapMinutes:      summarize(segStats.GapMinutes),
		SessionsPerUser: summarize(segStats.SessionsPerUser),
	}

	for i, slice := range slices {
		path := fmt.Sprintf("%s.%03d.bin", prefix, i)
		if err := sessions.WriteSliceFile(path, slice); err != nil {
			return fmt.Errorf("writing slice %d: %w", i, err)
		}
		manifest.Slices = append(manifest.Slices, path)
		log.Debug("slice written", "path", path, "users", len(slice))
	}

	manifestPath := prefix + ".manifest.yaml"
	if err := writeManifest(manifestPath, manifest); err != nil {
		return err
	}
	log.Info("extraction complete", "run_id", manifest.RunID, "manifest", manifestPath)
	return nil
}

func writeManifest(path string, m extractManifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
