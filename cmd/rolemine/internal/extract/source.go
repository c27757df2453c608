// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ErrStreamMissing indicates a required dump stream could not be found in
// any supported encoding. This is a fatal input error: the run aborts.
var ErrStreamMissing = errors.New("input stream not found")

// creationDateLayout matches the dump timestamp format. The input may carry
// fractional seconds; time.Parse accepts those without a layout marker.
const creationDateLayout = "2006-01-02T15:04:05"

// Row is one record from a dump stream: a flat set of named attributes.
// Only a small named subset is ever consumed.
type Row map[string]string

// Attr returns the named attribute, false if absent.
func (r Row) Attr(name string) (string, bool) {
	v, ok := r[name]
	return v, ok
}

// Uint parses the named attribute as an unsigned integer. Absent or
// unparseable values (e.g. the -1 community user) report false.
func (r Row) Uint(name string) (uint64, bool) {
	v, ok := r[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Time parses the named attribute as a dump creation timestamp.
func (r Row) Time(name string) (time.Time, bool) {
	v, ok := r[name]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(creationDateLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RowSource is an ordered record source. Next returns io.EOF at the end of
// the stream; any other error is fatal for the run.
type RowSource interface {
	Next() (Row, error)
	Close() error
}

// xmlRowSource streams <row .../> elements from a dump file, transparently
// decompressing .xz and .zst encodings.
type xmlRowSource struct {
	file    *os.File
	decoder *xml.Decoder
	closer  func() error
	root    string
}

// OpenRows opens the named dump stream inside folder, probing name.xml,
// name.xml.xz, and name.xml.zst in that order.
//
// Example:
//
//	src, err := extract.OpenRows(folder, "Posts")
//	if err != nil { ... }
//	defer src.Close()
func OpenRows(folder, name string) (RowSource, error) {
	for _, suffix := range []string{".xml", ".xml.xz", ".xml.zst"} {
		path := filepath.Join(folder, name+suffix)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return openRowFile(path)
	}
	return nil, fmt.Errorf("%w: %s.xml[.xz|.zst] in %s", ErrStreamMissing, name, folder)
}

func openRowFile(path string) (RowSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var reader io.Reader = file
	closer := func() error { return file.Close() }
	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		reader = xzr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		reader = zr
		closer = func() error {
			zr.Close()
			return file.Close()
		}
	}

	return &xmlRowSource{
		file:    file,
		decoder: xml.NewDecoder(reader),
		closer:  closer,
	}, nil
}

// Next returns the next row record, io.EOF at end of stream.
//
// The dump format is a single root element wrapping a flat run of <row/>
// elements; any other element is treated as corruption.
func (s *xmlRowSource) Next() (Row, error) {
	for {
		tok, err := s.decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read %s: %w", s.file.Name(), err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "row" {
			if s.root == "" {
				s.root = start.Name.Local
				continue
			}
			return nil, fmt.Errorf("read %s: unrecognized element %q", s.file.Name(), start.Name.Local)
		}

		row := make(Row, len(start.Attr))
		for _, attr := range start.Attr {
			row[attr.Name.Local] = attr.Value
		}
		if err := s.decoder.Skip(); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", s.file.Name(), err)
		}
		return row, nil
	}
}

// Close releases the underlying file and decompressor.
func (s *xmlRowSource) Close() error {
	return s.closer()
}
