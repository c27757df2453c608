// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dmmm

import (
	"sort"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
)

// SparseCounts is a sparse action-type histogram: one (action, count) pair
// per action type actually present, kept in ascending action order so
// iteration is deterministic. It is a plain count container; the posterior
// bookkeeping lives in Multinomial.
type SparseCounts struct {
	pairs []countPair
}

type countPair struct {
	event actions.ActionType
	count uint64
}

// SessionCounts builds the histogram of one session's ordered action codes.
// The histogram total always equals the session length.
func SessionCounts(codes []actions.ActionType) SparseCounts {
	var s SparseCounts
	for _, c := range codes {
		s.Increment(c, 1)
	}
	return s
}

// Increment adds n occurrences of event.
func (s *SparseCounts) Increment(event actions.ActionType, n uint64) {
	i := sort.Search(len(s.pairs), func(i int) bool {
		return s.pairs[i].event >= event
	})
	if i < len(s.pairs) && s.pairs[i].event == event {
		s.pairs[i].count += n
		return
	}
	s.pairs = append(s.pairs, countPair{})
	copy(s.pairs[i+1:], s.pairs[i:])
	s.pairs[i] = countPair{event: event, count: n}
}

// Count returns the occurrences of event, zero if absent.
func (s SparseCounts) Count(event actions.ActionType) uint64 {
	i := sort.Search(len(s.pairs), func(i int) bool {
		return s.pairs[i].event >= event
	})
	if i < len(s.pairs) && s.pairs[i].event == event {
		return s.pairs[i].count
	}
	return 0
}

// Total returns the sum of all counts.
func (s SparseCounts) Total() uint64 {
	var total uint64
	for _, p := range s.pairs {
		total += p.count
	}
	return total
}

// Len returns the number of distinct action types present.
func (s SparseCounts) Len() int { return len(s.pairs) }

// Each visits the present (action, count) pairs in ascending action order.
func (s SparseCounts) Each(fn func(event actions.ActionType, count uint64)) {
	for _, p := range s.pairs {
		fn(p.event, p.count)
	}
}
