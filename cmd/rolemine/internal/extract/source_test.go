// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const postsXML = `<?xml version="1.0" encoding="utf-8"?>
<posts>
  <row Id="1" PostTypeId="1" CreationDate="2019-03-01T12:00:00.000" OwnerUserId="10" />
  <row Id="2" PostTypeId="2" CreationDate="2019-03-01T13:30:00.000" OwnerUserId="11" ParentId="1" />
</posts>
`

func writePlain(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func writeXZ(t *testing.T, dir, name, content string) {
	t.Helper()
	file, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer file.Close()
	w, err := xz.NewWriter(file)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func writeZstd(t *testing.T, dir, name, content string) {
	t.Helper()
	file, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer file.Close()
	w, err := zstd.NewWriter(file)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func drain(t *testing.T, src RowSource) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

// TestOpenRows_Encodings verifies that all three stream encodings decode
// to the same rows.
func TestOpenRows_Encodings(t *testing.T) {
	encodings := []struct {
		name  string
		file  string
		write func(*testing.T, string, string, string)
	}{
		{"plain", "Posts.xml", writePlain},
		{"xz", "Posts.xml.xz", writeXZ},
		{"zstd", "Posts.xml.zst", writeZstd},
	}

	for _, enc := range encodings {
		t.Run(enc.name, func(t *testing.T) {
			dir := t.TempDir()
			enc.write(t, dir, enc.file, postsXML)

			src, err := OpenRows(dir, "Posts")
			require.NoError(t, err)
			defer src.Close()

			rows := drain(t, src)
			require.Len(t, rows, 2)
			require.Equal(t, "1", rows[0]["Id"])
			require.Equal(t, "2", rows[1]["Id"])
			require.Equal(t, "1", rows[1]["ParentId"])
		})
	}
}

func TestOpenRows_Missing(t *testing.T) {
	_, err := OpenRows(t.TempDir(), "Posts")
	require.ErrorIs(t, err, ErrStreamMissing)
}

// TestOpenRows_PrefersPlain verifies probe order: a plain .xml wins over a
// compressed sibling.
func TestOpenRows_PrefersPlain(t *testing.T) {
	dir := t.TempDir()
	writePlain(t, dir, "Posts.xml", postsXML)
	writeXZ(t, dir, "Posts.xml.xz", `<posts><row Id="9"/></posts>`)

	src, err := OpenRows(dir, "Posts")
	require.NoError(t, err)
	defer src.Close()

	rows := drain(t, src)
	require.Len(t, rows, 2)
	require.Equal(t, "1", rows[0]["Id"])
}

func TestNext_UnrecognizedElement(t *testing.T) {
	dir := t.TempDir()
	writePlain(t, dir, "Posts.xml", `<posts><row Id="1"/><bogus/></posts>`)

	src, err := OpenRows(dir, "Posts")
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	require.NoError(t, err)
	_, err = src.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestRowAccessors(t *testing.T) {
	row := Row{
		"Id":           "17",
		"OwnerUserId":  "-1",
		"CreationDate": "2019-03-01T12:00:00.123",
		"BadDate":      "yesterday",
	}

	if v, ok := row.Uint("Id"); !ok || v != 17 {
		t.Errorf("Uint(Id) = %d, %v; want 17, true", v, ok)
	}
	// The community user is -1 and must be treated as unparseable.
	if _, ok := row.Uint("OwnerUserId"); ok {
		t.Error("Uint(OwnerUserId) accepted -1")
	}
	if _, ok := row.Uint("Absent"); ok {
		t.Error("Uint(Absent) reported ok")
	}

	when, ok := row.Time("CreationDate")
	if !ok {
		t.Fatal("Time(CreationDate) failed")
	}
	want := time.Date(2019, 3, 1, 12, 0, 0, 123000000, time.UTC)
	if !when.Equal(want) {
		t.Errorf("Time(CreationDate) = %v, want %v", when, want)
	}
	if _, ok := row.Time("BadDate"); ok {
		t.Error("Time(BadDate) reported ok")
	}
}
