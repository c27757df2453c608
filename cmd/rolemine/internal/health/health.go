// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package health computes per-slice community health metrics from the post
// registry: question/answer volume, accepted-answer coverage, unanswered
// questions, and time-to-first-response.
package health

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/pkg/stats"
)

// SliceHealth aggregates one time slice's health numbers.
type SliceHealth struct {
	Questions  uint64
	Answers    uint64
	Accepted   uint64
	Unanswered uint64

	// ResponseDays accumulates question-to-first-answer gaps in days.
	ResponseDays stats.Accumulator
}

// SortPostsByTime orders post ids chronologically by creation time. The
// comparisons are independent, so any sorting strategy would do; this is
// the single-threaded one.
func SortPostsByTime(reg *actions.Registry, posts []actions.PostID) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, _ := reg.Get(posts[i])
		b, _ := reg.Get(posts[j])
		return a.Created.Before(b.Created)
	})
}

// Compute walks chronologically sorted posts, bucketing each into its time
// slice and accumulating that slice's health numbers. Questions contribute
// volume, accepted/unanswered state, and the first-response gap; answers
// contribute answer volume only.
func Compute(reg *actions.Registry, sortedPosts []actions.PostID,
	birth time.Time, width time.Duration, numSlices int) []SliceHealth {

	slices := make([]SliceHealth, numSlices)
	for _, id := range sortedPosts {
		post, ok := reg.Get(id)
		if !ok {
			continue
		}

		idx := 0
		if width > 0 {
			idx = int(post.Created.Sub(birth) / width)
		}
		if idx < 0 || idx >= numSlices {
			continue
		}
		slice := &slices[idx]

		if post.Parent != nil {
			slice.Answers++
			continue
		}

		slice.Questions++
		if post.AcceptedAnswer != nil {
			slice.Accepted++
		}
		if post.FirstAnswer == nil {
			slice.Unanswered++
			continue
		}
		if answer, ok := reg.Get(*post.FirstAnswer); ok {
			gap := answer.Created.Sub(post.Created)
			slice.ResponseDays.Add(gap.Hours() / 24)
		}
	}
	return slices
}

// WriteCSV emits the per-slice health table in the layout downstream
// plotting expects.
func WriteCSV(w io.Writer, slices []SliceHealth) error {
	cw := csv.NewWriter(w)
	header := []string{"month", "num_questions", "num_answers", "num_with_acc_ans",
		"num_unanswered", "avg_response_time", "stdev_response_time"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write health csv: %w", err)
	}

	for i, s := range slices {
		record := []string{
			strconv.Itoa(i),
			strconv.FormatUint(s.Questions, 10),
			strconv.FormatUint(s.Answers, 10),
			strconv.FormatUint(s.Accepted, 10),
			strconv.FormatUint(s.Unanswered, 10),
			formatFloat(s.ResponseDays.Mean()),
			formatFloat(s.ResponseDays.StdDev()),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write health csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
