// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sessions

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
)

// ErrCorruptCorpus indicates a session file that cannot be decoded. Fatal:
// a partial corpus must never feed the model.
var ErrCorruptCorpus = errors.New("corrupt session file")

// Session file layout, all counts uvarint, one byte per action:
//
//	#user-lists { #sessions { #actions { action }* }* }*

// WriteSlice encodes one slice to w.
func WriteSlice(w io.Writer, slice Slice) error {
	bw := bufio.NewWriter(w)
	writeUvarint(bw, uint64(len(slice)))
	for _, userList := range slice {
		writeUvarint(bw, uint64(len(userList)))
		for _, session := range userList {
			writeUvarint(bw, uint64(len(session)))
			for _, code := range session {
				bw.WriteByte(byte(code))
			}
		}
	}
	return bw.Flush()
}

// ReadSlice decodes one slice from r.
func ReadSlice(r io.Reader) (Slice, error) {
	br := bufio.NewReader(r)

	numLists, err := binaryCount(br)
	if err != nil {
		return nil, err
	}
	slice := make(Slice, 0, numLists)
	for i := uint64(0); i < numLists; i++ {
		numSessions, err := binaryCount(br)
		if err != nil {
			return nil, err
		}
		userList := make(UserSessions, 0, numSessions)
		for j := uint64(0); j < numSessions; j++ {
			numActions, err := binaryCount(br)
			if err != nil {
				return nil, err
			}
			session := make(SessionCodes, numActions)
			for k := range session {
				b, err := br.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrCorruptCorpus, err)
				}
				if int(b) >= actions.NumActions {
					return nil, fmt.Errorf("%w: action code %d out of range", ErrCorruptCorpus, b)
				}
				session[k] = actions.ActionType(b)
			}
			userList = append(userList, session)
		}
		slice = append(slice, userList)
	}
	return slice, nil
}

// WriteSliceFile writes one slice to path, creating or truncating it.
func WriteSliceFile(path string, slice Slice) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSlice(f, slice); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadSliceFile reads one slice from path.
func ReadSliceFile(path string) (Slice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	slice, err := ReadSlice(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return slice, nil
}

// Sessions flattens a slice into its sessions, dropping the per-user
// grouping. This is the shape the mixture model consumes.
func (s Slice) Sessions() []SessionCodes {
	var out []SessionCodes
	for _, userList := range s {
		out = append(out, userList...)
	}
	return out
}

func writeUvarint(bw *bufio.Writer, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	bw.Write(buf[:n])
}

func binaryCount(br *bufio.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(br)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptCorpus, err)
	}
	return v, nil
}
