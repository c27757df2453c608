// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dmmm fits a Dirichlet-Multinomial Mixture Model to per-network
// collections of session action histograms via collapsed Gibbs sampling.
//
// Each network is characterized by a latent multinomial over K "roles"
// users adopt when generating the actions of one session; each role is a
// multinomial over the action vocabulary. Both sets of distributions carry
// symmetric Dirichlet priors and are collapsed out: the sampler resamples
// only the per-session role assignments against live count tables.
//
// The chain is inherently sequential. Every session visit reads and writes
// the shared count tables, and the visit order (network, then session)
// determines the exact trajectory; there is no concurrent variant of this
// algorithm here. A fixed seed therefore reproduces assignments, counts,
// and the likelihood trace bit for bit.
package dmmm

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/pkg/logging"
)

// ErrBadOptions indicates an invalid model configuration. Fatal: the run
// aborts before any state is built.
var ErrBadOptions = errors.New("invalid model options")

// Options configures a fit.
type Options struct {
	// Roles is the model order K.
	Roles int

	// Alpha is the Dirichlet concentration on per-network role proportions.
	Alpha float64

	// Beta is the Dirichlet concentration on per-role action distributions.
	Beta float64

	// Sweeps is the fixed number of full Gibbs sweeps. There is no early
	// stopping; the likelihood trace is diagnostic only.
	Sweeps int

	// Seed initializes the sampler's PCG source.
	Seed uint64
}

// Validate checks the options; a fit never starts from invalid ones.
func (o Options) Validate() error {
	switch {
	case o.Roles < 1:
		return fmt.Errorf("%w: roles must be >= 1, got %d", ErrBadOptions, o.Roles)
	case o.Alpha <= 0:
		return fmt.Errorf("%w: alpha must be > 0, got %g", ErrBadOptions, o.Alpha)
	case o.Beta <= 0:
		return fmt.Errorf("%w: beta must be > 0, got %g", ErrBadOptions, o.Beta)
	case o.Sweeps < 1:
		return fmt.Errorf("%w: sweeps must be >= 1, got %d", ErrBadOptions, o.Sweeps)
	}
	return nil
}

// Corpus is one network's training data: every session histogram belonging
// to one community.
type Corpus struct {
	Name     string
	Sessions []SparseCounts
}

// Model is the sampler state: K role multinomials over the action
// vocabulary, one role-proportion multinomial per network, and one role
// assignment per session (flattened network-major).
//
// The count tables are an intrinsic part of the algorithm, mutated on
// every session visit. Model is not safe for concurrent use.
type Model struct {
	opts        Options
	roles       []*Multinomial
	proportions []*Multinomial
	assignments []int
	rng         *rand.Rand
}

// Roles returns the per-role action distributions.
func (m *Model) Roles() []*Multinomial { return m.roles }

// Proportions returns the per-network role-proportion distributions.
func (m *Model) Proportions() []*Multinomial { return m.proportions }

// Assignments returns the final role assignment per session, flattened in
// network order then session order.
func (m *Model) Assignments() []int { return m.assignments }

// Fit runs the collapsed Gibbs sampler over the corpora and returns the
// final-sweep state. This is a single-chain point estimate; nothing is
// averaged over sweeps.
func Fit(corpora []Corpus, opts Options, log *logging.Logger) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	numSessions := 0
	for _, c := range corpora {
		numSessions += len(c.Sessions)
	}

	m := &Model{
		opts:        opts,
		roles:       make([]*Multinomial, opts.Roles),
		proportions: make([]*Multinomial, len(corpora)),
		assignments: make([]int, numSessions),
		rng:         rand.New(rand.NewPCG(opts.Seed, opts.Seed)),
	}
	for z := range m.roles {
		m.roles[z] = NewMultinomial(Dirichlet{Concentration: opts.Beta, Dim: actions.NumActions})
	}
	for n := range m.proportions {
		m.proportions[n] = NewMultinomial(Dirichlet{Concentration: opts.Alpha, Dim: opts.Roles})
	}

	m.initialize(corpora)
	log.Info("sampler initialized",
		"networks", len(corpora), "sessions", numSessions,
		"roles", opts.Roles, "log_likelihood", m.LogJoint())

	for sweep := 1; sweep <= opts.Sweeps; sweep++ {
		if err := m.sweep(corpora); err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep, err)
		}
		log.Info("sweep complete", "sweep", sweep, "log_likelihood", m.LogJoint())
	}
	return m, nil
}

// initialize assigns every session a role sampled against the current
// (initially empty) count tables, incrementing as it goes. No decrement
// happens here; there is nothing to remove yet.
func (m *Model) initialize(corpora []Corpus) {
	x := 0
	for n, corpus := range corpora {
		for _, session := range corpus.Sessions {
			z := m.sampleRole(n, session)
			m.assignments[x] = z
			m.addSession(n, z, session)
			x++
		}
	}
}

// sweep revisits every session in fixed network-then-session order,
// removing it from its current role's counts, resampling against the
// decremented tables, and adding it back under the new role. Each visit
// depends on the state left by the previous one; this loop must stay
// sequential.
func (m *Model) sweep(corpora []Corpus) error {
	x := 0
	for n, corpus := range corpora {
		for _, session := range corpus.Sessions {
			old := m.assignments[x]
			if err := m.removeSession(n, old, session); err != nil {
				return err
			}
			z := m.sampleRole(n, session)
			m.assignments[x] = z
			m.addSession(n, z, session)
			x++
		}
	}
	return nil
}

// sampleRole draws a role for one session of network n using the
// Gumbel-max trick: the unnormalized log conditional of each candidate is
// perturbed with independent Gumbel(0,1) noise and the argmax is an exact
// sample from the normalized categorical. Working in log space avoids the
// underflow from multiplying the session's many per-action predictive
// probabilities.
func (m *Model) sampleRole(n int, session SparseCounts) int {
	best := 0
	bestScore := math.Inf(-1)

	for z := 0; z < m.opts.Roles; z++ {
		role := m.roles[z]
		score := math.Log(m.proportions[n].Probability(z))

		// Log Dirichlet-multinomial predictive of drawing this session's
		// action multiset from role z, term by term.
		denom := role.Total()
		j := 0.0
		session.Each(func(event actions.ActionType, count uint64) {
			base := role.Count(int(event))
			for i := 0.0; i < float64(count); i++ {
				score += math.Log(base+i) - math.Log(denom+j)
				j++
			}
		})

		if perturbed := score + m.gumbel(); perturbed > bestScore {
			bestScore = perturbed
			best = z
		}
	}
	return best
}

// gumbel draws one Gumbel(0,1) sample as -log(-log(U)), U uniform in (0,1).
func (m *Model) gumbel() float64 {
	u := m.rng.Float64()
	for u == 0 {
		u = m.rng.Float64()
	}
	return -math.Log(-math.Log(u))
}

func (m *Model) addSession(n, z int, session SparseCounts) {
	m.proportions[n].Increment(z, 1)
	session.Each(func(event actions.ActionType, count uint64) {
		m.roles[z].Increment(int(event), float64(count))
	})
}

func (m *Model) removeSession(n, z int, session SparseCounts) error {
	if err := m.proportions[n].Decrement(z, 1); err != nil {
		return err
	}
	var firstErr error
	session.Each(func(event actions.ActionType, count uint64) {
		if err := m.roles[z].Decrement(int(event), float64(count)); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// LogJoint returns the log joint likelihood of the current state: the sum
// of every role's and every network's closed-form Dirichlet-multinomial
// marginal. Computed once per sweep for monitoring; it never stops the
// chain.
func (m *Model) LogJoint() float64 {
	var sum float64
	for _, role := range m.roles {
		sum += role.LogMarginal()
	}
	for _, prop := range m.proportions {
		sum += prop.LogMarginal()
	}
	return sum
}
