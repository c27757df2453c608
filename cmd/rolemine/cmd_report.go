// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/actions"
	"github.com/PelagicAI/rolemine/cmd/rolemine/internal/dmmm"
)

// runReport loads a fitted model and renders it as CSV: one action
// distribution file per role, plus one role-proportion file per network.
func runReport(cmd *cobra.Command, args []string) error {
	modelDir := args[0]
	outDir := modelDir
	if len(args) == 2 {
		outDir = args[1]
	}

	model, err := dmmm.Load(modelDir)
	if err != nil {
		return fmt.Errorf("loading model from %s: %w", modelDir, err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for i, role := range model.Roles {
		path := filepath.Join(outDir, fmt.Sprintf("topic%d.csv", i+1))
		if err := writeRoleCSV(path, role); err != nil {
			return err
		}
	}
	for i, network := range model.Networks {
		path := filepath.Join(outDir, network+"-proportions.csv")
		if err := writeProportionsCSV(path, model.Proportions[i]); err != nil {
			return err
		}
	}
	log.Info("report written", "dir", outDir,
		"roles", len(model.Roles), "networks", len(model.Networks))
	return nil
}

// writeRoleCSV writes one role's posterior action distribution, one row
// per action kind observed under that role.
func writeRoleCSV(path string, role *dmmm.Multinomial) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"action", "probability"}); err != nil {
		return err
	}
	var nameErr error
	role.EachSeen(func(e int, count float64) {
		name, err := actions.ActionType(e).Name()
		if err != nil {
			nameErr = err
			return
		}
		if err := w.Write([]string{name, formatProb(role.Probability(e))}); err != nil {
			nameErr = err
		}
	})
	if nameErr != nil {
		return fmt.Errorf("writing %s: %w", path, nameErr)
	}
	w.Flush()
	return w.Error()
}

// writeProportionsCSV writes one network's posterior role proportions.
func writeProportionsCSV(path string, props *dmmm.Multinomial) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"topic", "probability"}); err != nil {
		return err
	}
	for k := 0; k < props.Dim(); k++ {
		row := []string{strconv.Itoa(k + 1), formatProb(props.Probability(k))}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatProb(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
