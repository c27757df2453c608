// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stats provides a small online mean/variance accumulator used for
// pipeline diagnostics. Values are folded in one at a time; nothing is
// retained per observation.
package stats

import "math"

// Accumulator tracks count, mean, and variance of a value stream using
// Welford's online algorithm.
//
// The zero value is ready to use. Not safe for concurrent use; parallel
// producers keep their own accumulator and Merge at the end.
type Accumulator struct {
	n    uint64
	mean float64
	m2   float64
}

// Add folds one observation into the accumulator.
func (a *Accumulator) Add(x float64) {
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
}

// Count returns the number of observations.
func (a *Accumulator) Count() uint64 { return a.n }

// Mean returns the running mean, 0 if no observations were added.
func (a *Accumulator) Mean() float64 { return a.mean }

// Variance returns the sample variance, 0 with fewer than two observations.
func (a *Accumulator) Variance() float64 {
	if a.n < 2 {
		return 0
	}
	return a.m2 / float64(a.n-1)
}

// StdDev returns the sample standard deviation.
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

// Merge folds another accumulator into this one (Chan et al. parallel
// combination). The argument is left untouched.
func (a *Accumulator) Merge(b Accumulator) {
	if b.n == 0 {
		return
	}
	if a.n == 0 {
		*a = b
		return
	}
	n := a.n + b.n
	delta := b.mean - a.mean
	a.mean += delta * float64(b.n) / float64(n)
	a.m2 += b.m2 + delta*delta*float64(a.n)*float64(b.n)/float64(n)
	a.n = n
}
