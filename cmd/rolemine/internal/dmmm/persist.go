// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dmmm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Model files written into the output directory.
const (
	// RolesFile holds the K role action-count tables.
	RolesFile = "topics.bin"

	// ProportionsFile holds the per-network role-count tables plus the
	// network names.
	ProportionsFile = "topic-proportions.bin"
)

// ErrCorruptModel indicates a persisted model that cannot be decoded.
// Fatal: artifacts from an aborted or truncated run must not be consumed.
var ErrCorruptModel = errors.New("corrupt model file")

// SavedModel is a persisted final-sweep snapshot: the role multinomials
// and, per network, its name and role-proportion multinomial.
type SavedModel struct {
	Roles       []*Multinomial
	Networks    []string
	Proportions []*Multinomial
}

// Save writes the final-sweep snapshot into dir (created if needed) using
// the length-prefixed binary layout: uvarint table count, then per table
// the float64 prior concentration, uvarint dimension, and dimension raw
// counts as float64 bits.
func (m *Model) Save(dir string, networks []string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create model dir %s: %w", dir, err)
	}

	if err := writeTables(filepath.Join(dir, RolesFile), nil, m.roles); err != nil {
		return err
	}
	return writeTables(filepath.Join(dir, ProportionsFile), networks, m.proportions)
}

// Load reads a persisted model from dir.
func Load(dir string) (*SavedModel, error) {
	roles, _, err := readTables(filepath.Join(dir, RolesFile), false)
	if err != nil {
		return nil, err
	}
	proportions, networks, err := readTables(filepath.Join(dir, ProportionsFile), true)
	if err != nil {
		return nil, err
	}
	if len(networks) != len(proportions) {
		return nil, fmt.Errorf("%w: %d networks for %d proportion tables",
			ErrCorruptModel, len(networks), len(proportions))
	}
	return &SavedModel{Roles: roles, Networks: networks, Proportions: proportions}, nil
}

func writeTables(path string, names []string, tables []*Multinomial) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)

	putUvarint(bw, uint64(len(tables)))
	for i, t := range tables {
		if names != nil {
			putString(bw, names[i])
		}
		putFloat(bw, t.prior.Concentration)
		putUvarint(bw, uint64(t.prior.Dim))
		for e := 0; e < t.prior.Dim; e++ {
			putFloat(bw, t.counts[e])
		}
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func readTables(path string, named bool) ([]*Multinomial, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	br := bufio.NewReader(f)

	count, err := getUvarint(br)
	if err != nil {
		return nil, nil, corrupt(path, err)
	}

	tables := make([]*Multinomial, 0, count)
	var names []string
	for i := uint64(0); i < count; i++ {
		if named {
			name, err := getString(br)
			if err != nil {
				return nil, nil, corrupt(path, err)
			}
			names = append(names, name)
		}

		conc, err := getFloat(br)
		if err != nil {
			return nil, nil, corrupt(path, err)
		}
		dim, err := getUvarint(br)
		if err != nil {
			return nil, nil, corrupt(path, err)
		}
		if conc <= 0 || dim == 0 || dim > 1<<16 {
			return nil, nil, corrupt(path, fmt.Errorf("prior %g over %d outcomes", conc, dim))
		}

		t := NewMultinomial(Dirichlet{Concentration: conc, Dim: int(dim)})
		for e := 0; e < int(dim); e++ {
			c, err := getFloat(br)
			if err != nil {
				return nil, nil, corrupt(path, err)
			}
			if c < 0 || math.IsNaN(c) {
				return nil, nil, corrupt(path, fmt.Errorf("count %g for outcome %d", c, e))
			}
			t.Increment(e, c)
		}
		tables = append(tables, t)
	}
	return tables, names, nil
}

func corrupt(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
}

func putUvarint(bw *bufio.Writer, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	bw.Write(buf[:n])
}

func getUvarint(br *bufio.Reader) (uint64, error) {
	return binary.ReadUvarint(br)
}

func putFloat(bw *bufio.Writer, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	bw.Write(buf[:])
}

func getFloat(br *bufio.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func putString(bw *bufio.Writer, s string) {
	putUvarint(bw, uint64(len(s)))
	bw.WriteString(s)
}

func getString(br *bufio.Reader) (string, error) {
	n, err := getUvarint(br)
	if err != nil {
		return "", err
	}
	if n > 1<<20 {
		return "", fmt.Errorf("string length %d too large", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
