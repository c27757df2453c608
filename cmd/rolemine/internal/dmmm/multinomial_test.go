// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dmmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultinomial_Counts(t *testing.T) {
	m := NewMultinomial(Dirichlet{Concentration: 0.5, Dim: 4})

	assert.Equal(t, 4, m.Dim())
	assert.InDelta(t, 0.5, m.Count(0), 1e-12)
	assert.InDelta(t, 2.0, m.Total(), 1e-12)

	m.Increment(1, 3)
	m.Increment(2, 1)
	assert.InDelta(t, 3.5, m.Count(1), 1e-12)
	assert.InDelta(t, 3.0, m.RawCount(1), 1e-12)
	assert.InDelta(t, 6.0, m.Total(), 1e-12)

	// Probabilities stay normalized over the smoothed counts.
	var sum float64
	for e := 0; e < m.Dim(); e++ {
		sum += m.Probability(e)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 3.5/6.0, m.Probability(1), 1e-12)
}

func TestMultinomial_DecrementUnderflow(t *testing.T) {
	m := NewMultinomial(Dirichlet{Concentration: 0.1, Dim: 3})
	m.Increment(0, 2)
	require.NoError(t, m.Decrement(0, 1))
	require.NoError(t, m.Decrement(0, 1))

	err := m.Decrement(0, 1)
	require.ErrorIs(t, err, ErrNegativeCount)
}

func TestMultinomial_EachSeen(t *testing.T) {
	m := NewMultinomial(Dirichlet{Concentration: 0.1, Dim: 5})
	m.Increment(3, 2)
	m.Increment(1, 1)

	var seen []int
	m.EachSeen(func(e int, count float64) {
		seen = append(seen, e)
	})
	assert.Equal(t, []int{1, 3}, seen)
}

// TestMultinomial_LogMarginal checks the closed form against a hand
// computation for a two-event table.
func TestMultinomial_LogMarginal(t *testing.T) {
	m := NewMultinomial(Dirichlet{Concentration: 1, Dim: 2})
	m.Increment(0, 2)
	m.Increment(1, 1)

	// With a flat Dirichlet(1,1) prior and counts (2,1):
	// log Gamma(2) - log Gamma(5) + log Gamma(3) + log Gamma(2)
	want := lgamma(2) - lgamma(5) + lgamma(3) + lgamma(2)
	assert.InDelta(t, want, m.LogMarginal(), 1e-12)

	empty := NewMultinomial(Dirichlet{Concentration: 0.1, Dim: 7})
	assert.InDelta(t, 0, empty.LogMarginal(), 1e-12)
	assert.False(t, math.IsNaN(m.LogMarginal()))
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
