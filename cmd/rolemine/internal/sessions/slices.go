// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sessions

import (
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/extract"
)

// SessionCodes is one session reduced to its ordered action-type codes.
type SessionCodes []actions.ActionType

// UserSessions is one user's sessions within one time slice.
type UserSessions []SessionCodes

// Slice groups the per-user session lists whose start timestamps fall in
// the same time bucket. A user appears in every slice from the dataset
// birth up to the slice of their last session, with an empty list where
// they were inactive.
type Slice []UserSessions

// SliceIndex computes the time-slice bucket for a session start:
// floor((start - birth) / width). A non-positive width means a single
// slice (infinite width).
func SliceIndex(start, birth time.Time, width time.Duration) int {
	if width <= 0 {
		return 0
	}
	return int(start.Sub(birth) / width)
}

// NumSlices returns how many slices a dataset span occupies at the given
// width.
func NumSlices(span extract.TimeSpan, width time.Duration) int {
	if width <= 0 || !span.Valid() {
		return 1
	}
	return int(span.Duration()/width) + 1
}

// PartitionOptions configures Partition.
type PartitionOptions struct {
	// Threshold is the session inactivity gap; DefaultGap if zero.
	Threshold time.Duration

	// Birth is the dataset's earliest timestamp.
	Birth time.Time

	// Width is the slice width; non-positive means a single slice.
	Width time.Duration

	// Workers bounds segmentation concurrency; NumCPU if zero.
	Workers int
}

// Partition segments every user's timeline and distributes the resulting
// sessions over time slices.
//
// Segmentation runs in parallel across users (timelines are independent);
// the merge into slices is sequential in ascending user-id order so the
// output is deterministic regardless of scheduling.
func Partition(timelines map[actions.UserID][]extract.ActionEvent, span extract.TimeSpan,
	opts PartitionOptions) ([]Slice, SegmentStats, error) {

	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultGap
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	users := make([]actions.UserID, 0, len(timelines))
	for u := range timelines {
		users = append(users, u)
	}
	sortUsers(users)

	type segmented struct {
		sessions []Session
		stats    SegmentStats
	}
	results := make([]segmented, len(users))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, u := range users {
		events := timelines[u]
		g.Go(func() error {
			var st SegmentStats
			results[i].sessions = Segment(events, threshold, &st)
			results[i].stats = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, SegmentStats{}, err
	}

	slices := make([]Slice, NumSlices(span, opts.Width))
	var total SegmentStats
	for i := range users {
		total.Merge(results[i].stats)
		distribute(slices, results[i].sessions, opts.Birth, opts.Width)
	}
	return slices, total, nil
}

// distribute walks one user's sessions in start order, appending one
// session list per slice from slice zero through the slice of the last
// session. Intermediate slices where the user was inactive receive an
// empty list, preserving the per-slice user alignment of the corpus
// format.
func distribute(slices []Slice, sessions []Session, birth time.Time, width time.Duration) {
	if len(sessions) == 0 {
		return
	}

	sliceNum := 0
	i := 0
	for i < len(sessions) {
		end := i
		for end < len(sessions) && SliceIndex(sessions[end].Start(), birth, width) <= sliceNum {
			end++
		}

		list := make(UserSessions, 0, end-i)
		for ; i < end; i++ {
			list = append(list, codes(sessions[i]))
		}
		slices[sliceNum] = append(slices[sliceNum], list)
		sliceNum++
	}
}

func codes(s Session) SessionCodes {
	out := make(SessionCodes, len(s))
	for i, ev := range s {
		out[i] = ev.Type
	}
	return out
}

func sortUsers(users []actions.UserID) {
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
}
