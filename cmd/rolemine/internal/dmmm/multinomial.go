// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dmmm

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeCount indicates a decrement drove a count below zero. The
// sampler's decrement/increment pairs are exact, so a negative count is a
// bookkeeping bug and aborts the run.
var ErrNegativeCount = errors.New("count table decremented below zero")

// Dirichlet is a symmetric Dirichlet prior: the same concentration on each
// of Dim outcomes.
type Dirichlet struct {
	Concentration float64
	Dim           int
}

// Multinomial is a discrete distribution over Dim outcomes with a
// conjugate symmetric Dirichlet prior. It doubles as the live count table
// for its posterior: Count and Total include the prior pseudo-counts, so
// Probability is the posterior predictive.
type Multinomial struct {
	counts []float64
	total  float64
	prior  Dirichlet
}

// NewMultinomial returns an empty count table under the given prior.
func NewMultinomial(prior Dirichlet) *Multinomial {
	return &Multinomial{
		counts: make([]float64, prior.Dim),
		prior:  prior,
	}
}

// Prior returns the distribution's Dirichlet prior.
func (m *Multinomial) Prior() Dirichlet { return m.prior }

// Dim returns the number of outcomes.
func (m *Multinomial) Dim() int { return m.prior.Dim }

// Increment adds n observations of outcome e.
func (m *Multinomial) Increment(e int, n float64) {
	m.counts[e] += n
	m.total += n
}

// Decrement removes n observations of outcome e. Removing more than was
// observed is an ErrNegativeCount bug, not a recoverable state.
func (m *Multinomial) Decrement(e int, n float64) error {
	if m.counts[e] < n {
		return fmt.Errorf("%w: outcome %d has %g, removing %g", ErrNegativeCount, e, m.counts[e], n)
	}
	m.counts[e] -= n
	m.total -= n
	return nil
}

// Count returns the observation count of outcome e plus its prior
// pseudo-count.
func (m *Multinomial) Count(e int) float64 {
	return m.counts[e] + m.prior.Concentration
}

// RawCount returns the observation count of outcome e without the prior.
func (m *Multinomial) RawCount(e int) float64 { return m.counts[e] }

// Total returns all observations plus all prior pseudo-counts.
func (m *Multinomial) Total() float64 {
	return m.total + m.prior.Concentration*float64(m.prior.Dim)
}

// Probability returns the posterior predictive probability of outcome e.
func (m *Multinomial) Probability(e int) float64 {
	return m.Count(e) / m.Total()
}

// EachSeen visits outcomes with at least one real observation, in outcome
// order.
func (m *Multinomial) EachSeen(fn func(e int, count float64)) {
	for e, c := range m.counts {
		if c > 0 {
			fn(e, c)
		}
	}
}

// LogMarginal returns the closed-form log Dirichlet-multinomial marginal
// likelihood of the accumulated counts:
//
//	lgamma(A) - lgamma(A + n) + sum_e [lgamma(a + n_e) - lgamma(a)]
//
// where a is the per-outcome pseudo-count and A = a * Dim. Finite whenever
// the concentration is strictly positive.
func (m *Multinomial) LogMarginal() float64 {
	a := m.prior.Concentration
	total := a * float64(m.prior.Dim)

	lg, _ := math.Lgamma(total)
	lgTot, _ := math.Lgamma(total + m.total)
	sum := lg - lgTot

	lgA, _ := math.Lgamma(a)
	for _, c := range m.counts {
		if c == 0 {
			continue
		}
		lgC, _ := math.Lgamma(a + c)
		sum += lgC - lgA
	}
	return sum
}
