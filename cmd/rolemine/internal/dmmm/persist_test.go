// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dmmm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestModelPersistence_Roundtrip fits a model, saves it, and verifies the
// loaded snapshot carries identical tables and network names.
func TestModelPersistence_Roundtrip(t *testing.T) {
	model, err := Fit(testCorpora(), testOptions(), testLogger())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "model")
	networks := []string{"gardening", "meta"}
	require.NoError(t, model.Save(dir, networks))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, networks, loaded.Networks)
	require.Len(t, loaded.Roles, len(model.Roles()))
	require.Len(t, loaded.Proportions, len(model.Proportions()))

	for z, role := range model.Roles() {
		got := loaded.Roles[z]
		assert.Equal(t, role.Prior(), got.Prior())
		for e := 0; e < role.Dim(); e++ {
			assert.Equal(t, role.RawCount(e), got.RawCount(e))
		}
	}
	for n, prop := range model.Proportions() {
		got := loaded.Proportions[n]
		assert.Equal(t, prop.Prior(), got.Prior())
		for z := 0; z < prop.Dim(); z++ {
			assert.Equal(t, prop.RawCount(z), got.RawCount(z))
		}
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoad_Corrupt(t *testing.T) {
	writeModelDir := func(t *testing.T, roles, proportions []byte) string {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, RolesFile), roles, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProportionsFile), proportions, 0644))
		return dir
	}

	t.Run("truncated roles file", func(t *testing.T) {
		dir := writeModelDir(t, []byte{3}, []byte{0})
		_, err := Load(dir)
		require.ErrorIs(t, err, ErrCorruptModel)
	})

	t.Run("empty files", func(t *testing.T) {
		dir := writeModelDir(t, nil, nil)
		_, err := Load(dir)
		require.ErrorIs(t, err, ErrCorruptModel)
	})
}

// TestSaveLoad_NegativePrior verifies that a snapshot with a nonsensical
// prior is rejected rather than silently loaded.
func TestSaveLoad_NegativePrior(t *testing.T) {
	model, err := Fit(testCorpora(), testOptions(), testLogger())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, model.Save(dir, []string{"gardening", "meta"}))

	// Flip the concentration float of the first role table to a negative
	// value. It sits right after the table-count uvarint (one byte here).
	path := filepath.Join(dir, RolesFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[1+7] |= 0x80 // set the float64 sign bit (little endian)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Load(dir)
	require.ErrorIs(t, err, ErrCorruptModel)
}
