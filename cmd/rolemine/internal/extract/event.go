// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"time"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
)

// ActionEvent is one classified, timestamped user action. Immutable once
// created.
type ActionEvent struct {
	Type actions.ActionType
	When time.Time
}

// TimeSpan tracks the running minimum and maximum timestamp across record
// streams. The zero value is empty; the first Observe initializes both
// bounds.
type TimeSpan struct {
	Earliest time.Time
	Latest   time.Time
}

// Observe widens the span to include t.
func (s *TimeSpan) Observe(t time.Time) {
	if s.Earliest.IsZero() || t.Before(s.Earliest) {
		s.Earliest = t
	}
	if s.Latest.IsZero() || t.After(s.Latest) {
		s.Latest = t
	}
}

// Valid reports whether at least one timestamp has been observed.
func (s TimeSpan) Valid() bool { return !s.Earliest.IsZero() }

// Duration returns the width of the span.
func (s TimeSpan) Duration() time.Duration { return s.Latest.Sub(s.Earliest) }
