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

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

func testOptions() Options {
	return Options{Roles: 3, Alpha: 0.1, Beta: 0.1, Sweeps: 20, Seed: 47}
}

// testCorpora builds two small networks with visibly different behavior:
// one dominated by question/answer sessions, one by moderation sessions.
func testCorpora() []Corpus {
	asking := SessionCounts([]actions.ActionType{
		actions.Question, actions.AnswerMQ, actions.CommentOAMQ,
	})
	answering := SessionCounts([]actions.ActionType{
		actions.AnswerOQ, actions.AnswerOQ, actions.CommentMAOQ,
	})
	moderating := SessionCounts([]actions.ActionType{
		actions.ModVote, actions.ModVote, actions.ModAction, actions.EditOQ,
	})

	qa := Corpus{Name: "gardening"}
	mod := Corpus{Name: "meta"}
	for i := 0; i < 12; i++ {
		qa.Sessions = append(qa.Sessions, asking, answering)
		mod.Sessions = append(mod.Sessions, moderating)
	}
	return []Corpus{qa, mod}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"valid", func(o *Options) {}, false},
		{"zero roles", func(o *Options) { o.Roles = 0 }, true},
		{"negative alpha", func(o *Options) { o.Alpha = -1 }, true},
		{"zero beta", func(o *Options) { o.Beta = 0 }, true},
		{"zero sweeps", func(o *Options) { o.Sweeps = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadOptions)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFit_RejectsBadOptions(t *testing.T) {
	opts := testOptions()
	opts.Roles = 0
	_, err := Fit(testCorpora(), opts, testLogger())
	require.ErrorIs(t, err, ErrBadOptions)
}

// TestFit_StateInvariants verifies the bookkeeping after a full fit: every
// session is assigned a valid role, count tables tally exactly the
// training data, and the likelihood is finite.
func TestFit_StateInvariants(t *testing.T) {
	corpora := testCorpora()
	model, err := Fit(corpora, testOptions(), testLogger())
	require.NoError(t, err)

	numSessions := len(corpora[0].Sessions) + len(corpora[1].Sessions)
	require.Len(t, model.Assignments(), numSessions)
	for _, z := range model.Assignments() {
		assert.GreaterOrEqual(t, z, 0)
		assert.Less(t, z, testOptions().Roles)
	}

	// Proportion tables account for every session exactly once.
	var assigned float64
	for _, prop := range model.Proportions() {
		for z := 0; z < prop.Dim(); z++ {
			assert.GreaterOrEqual(t, prop.RawCount(z), 0.0)
			assigned += prop.RawCount(z)
		}
	}
	assert.InDelta(t, float64(numSessions), assigned, 1e-9)

	// Role tables account for every action exactly once.
	var totalActions, tableActions float64
	for _, c := range corpora {
		for _, s := range c.Sessions {
			totalActions += float64(s.Total())
		}
	}
	for _, role := range model.Roles() {
		for e := 0; e < role.Dim(); e++ {
			assert.GreaterOrEqual(t, role.RawCount(e), 0.0)
			tableActions += role.RawCount(e)
		}
	}
	assert.InDelta(t, totalActions, tableActions, 1e-9)

	lj := model.LogJoint()
	assert.False(t, math.IsNaN(lj) || math.IsInf(lj, 0), "log joint = %g", lj)
}

// TestFit_Deterministic verifies that a fixed seed reproduces the chain
// exactly, and a different seed is allowed to diverge.
func TestFit_Deterministic(t *testing.T) {
	first, err := Fit(testCorpora(), testOptions(), testLogger())
	require.NoError(t, err)
	second, err := Fit(testCorpora(), testOptions(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, first.Assignments(), second.Assignments())
	assert.Equal(t, first.LogJoint(), second.LogJoint())
	for z := range first.Roles() {
		for e := 0; e < first.Roles()[z].Dim(); e++ {
			assert.Equal(t, first.Roles()[z].RawCount(e), second.Roles()[z].RawCount(e))
		}
	}
}

// TestFit_SeparatesBehaviors is a sanity check on modeling power: with two
// sharply different session types, the dominant role of the moderation
// network should differ from the question/answer network's.
func TestFit_SeparatesBehaviors(t *testing.T) {
	model, err := Fit(testCorpora(), testOptions(), testLogger())
	require.NoError(t, err)

	argmax := func(m *Multinomial) int {
		best, bestCount := 0, -1.0
		for z := 0; z < m.Dim(); z++ {
			if m.RawCount(z) > bestCount {
				best, bestCount = z, m.RawCount(z)
			}
		}
		return best
	}

	qaRole := argmax(model.Proportions()[0])
	modRole := argmax(model.Proportions()[1])
	assert.NotEqual(t, qaRole, modRole,
		"expected distinct dominant roles for distinct behaviors")
}
