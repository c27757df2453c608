// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command rolemine turns Q&A community data dumps into per-user behavioral
// sessions and fits a Dirichlet-multinomial mixture model that discovers
// the latent roles users adopt.
//
// The pipeline is file-driven: extract writes per-slice session files,
// fit consumes them (one file per network) and persists the model, and
// report renders the model as CSV tables.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
