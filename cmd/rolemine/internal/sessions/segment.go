// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sessions splits per-user action timelines into inactivity-bounded
// sessions, buckets sessions into time slices relative to dataset birth,
// and reads/writes the binary corpus format the mixture model consumes.
//
// Everything here is deterministic: identical input and configuration
// produce identical sessions, slice assignment, and file bytes.
package sessions

import (
	"sort"
	"time"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/extract"
	"github.com/PelagicAI/rolemine/pkg/stats"
)

// DefaultGap is the default inactivity threshold between two events of the
// same session.
const DefaultGap = 6 * time.Hour

// MeanMonth is the mean Gregorian month (400-year average), used when the
// slice width is configured in months.
const MeanMonth = 2629746 * time.Second

// Session is a maximal run of one user's chronologically ordered events
// with no gap strictly exceeding the inactivity threshold. Sessions share
// the sorted timeline's backing array.
type Session []extract.ActionEvent

// Start returns the session's first timestamp.
func (s Session) Start() time.Time { return s[0].When }

// SegmentStats collects the segmentation diagnostics as online
// accumulators: nothing is stored per event.
type SegmentStats struct {
	// SessionLength is the event count per session.
	SessionLength stats.Accumulator

	// GapMinutes is every non-session-breaking inter-event gap, in minutes.
	GapMinutes stats.Accumulator

	// SessionsPerUser is the session count per segmented timeline.
	SessionsPerUser stats.Accumulator
}

// Merge folds another stats set into this one.
func (st *SegmentStats) Merge(other SegmentStats) {
	st.SessionLength.Merge(other.SessionLength)
	st.GapMinutes.Merge(other.GapMinutes)
	st.SessionsPerUser.Merge(other.SessionsPerUser)
}

// Segment sorts events chronologically in place and splits them into
// sessions at gaps strictly greater than threshold. The first event always
// opens the first session; a nil input yields no sessions.
//
// For a sorted timeline with gaps g_1..g_{n-1} the session count is
// 1 + |{i : g_i > threshold}|; sessions partition the timeline exactly.
func Segment(events []extract.ActionEvent, threshold time.Duration, st *SegmentStats) []Session {
	if len(events) == 0 {
		return nil
	}

	// Ties broken arbitrarily; ordering of equal timestamps is not
	// significant to segmentation.
	sort.Slice(events, func(i, j int) bool {
		return events[i].When.Before(events[j].When)
	})

	var sessions []Session
	begin := 0
	for i := 1; i < len(events); i++ {
		gap := events[i].When.Sub(events[i-1].When)
		if gap > threshold {
			sessions = append(sessions, Session(events[begin:i]))
			begin = i
		} else if st != nil {
			st.GapMinutes.Add(gap.Minutes())
		}
	}
	sessions = append(sessions, Session(events[begin:]))

	if st != nil {
		for _, s := range sessions {
			st.SessionLength.Add(float64(len(s)))
		}
		st.SessionsPerUser.Add(float64(len(sessions)))
	}
	return sessions
}
