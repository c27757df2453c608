// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAccumulator_MeanAndVariance(t *testing.T) {
	var a Accumulator
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		a.Add(x)
	}

	if a.Count() != 8 {
		t.Errorf("Count = %d, want 8", a.Count())
	}
	if !almostEqual(a.Mean(), 5) {
		t.Errorf("Mean = %g, want 5", a.Mean())
	}
	// Sample variance of the classic 2,4,4,4,5,5,7,9 set.
	if !almostEqual(a.Variance(), 32.0/7.0) {
		t.Errorf("Variance = %g, want %g", a.Variance(), 32.0/7.0)
	}
	if !almostEqual(a.StdDev(), math.Sqrt(32.0/7.0)) {
		t.Errorf("StdDev = %g, want %g", a.StdDev(), math.Sqrt(32.0/7.0))
	}
}

func TestAccumulator_Empty(t *testing.T) {
	var a Accumulator
	if a.Count() != 0 {
		t.Errorf("Count = %d, want 0", a.Count())
	}
	if a.Variance() != 0 {
		t.Errorf("Variance = %g, want 0", a.Variance())
	}
}

func TestAccumulator_SingleValue(t *testing.T) {
	var a Accumulator
	a.Add(3.5)
	if !almostEqual(a.Mean(), 3.5) {
		t.Errorf("Mean = %g, want 3.5", a.Mean())
	}
	if a.Variance() != 0 {
		t.Errorf("Variance = %g, want 0 for a single sample", a.Variance())
	}
}

// TestAccumulator_Merge verifies that merging two partial accumulators
// gives the same result as accumulating the concatenated sequence.
func TestAccumulator_Merge(t *testing.T) {
	first := []float64{1, 2, 3, 4, 5}
	second := []float64{10, 20, 30}

	var left, right, whole Accumulator
	for _, x := range first {
		left.Add(x)
		whole.Add(x)
	}
	for _, x := range second {
		right.Add(x)
		whole.Add(x)
	}

	left.Merge(right)
	if left.Count() != whole.Count() {
		t.Errorf("merged Count = %d, want %d", left.Count(), whole.Count())
	}
	if !almostEqual(left.Mean(), whole.Mean()) {
		t.Errorf("merged Mean = %g, want %g", left.Mean(), whole.Mean())
	}
	if !almostEqual(left.Variance(), whole.Variance()) {
		t.Errorf("merged Variance = %g, want %g", left.Variance(), whole.Variance())
	}
}

func TestAccumulator_MergeEmpty(t *testing.T) {
	var left, right Accumulator
	left.Add(4)
	left.Add(6)

	before := left
	left.Merge(right)
	if left != before {
		t.Errorf("merging an empty accumulator changed state: %+v vs %+v", left, before)
	}

	var empty Accumulator
	empty.Merge(before)
	if !almostEqual(empty.Mean(), 5) || empty.Count() != 2 {
		t.Errorf("merge into empty = %+v, want count 2 mean 5", empty)
	}
}
