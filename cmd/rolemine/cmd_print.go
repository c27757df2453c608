// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/sessions"
)

type printedSession struct {
	Actions []string `json:"actions"`
}

type printedUser struct {
	User     int              `json:"user"`
	Sessions []printedSession `json:"sessions"`
}

// runPrint dumps a binary session file as JSON, with action codes
// rendered as their display names.
func runPrint(cmd *cobra.Command, args []string) error {
	slice, err := sessions.ReadSliceFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	out := make([]printedUser, 0, len(slice))
	for i, user := range slice {
		pu := printedUser{User: i, Sessions: make([]printedSession, 0, len(user))}
		for _, session := range user {
			ps := printedSession{Actions: make([]string, 0, len(session))}
			for _, code := range session {
				name, err := actions.ActionType(code).Name()
				if err != nil {
					return fmt.Errorf("session file %s: %w", args[0], err)
				}
				ps.Actions = append(ps.Actions, name)
			}
			pu.Sessions = append(pu.Sessions, ps)
		}
		out = append(out, pu)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
