// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/PelagicAI/rolemine/cmd/rolemine/config"
	"github.com/PelagicAI/rolemine/pkg/logging"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath      string
	verbose         bool
	quiet           bool
	jsonLogs        bool
	logDir          string
	timeSliceMonths int
	sessionGap      string
	modelRoles      int
	modelAlpha      float64
	modelBeta       float64
	modelSweeps     int
	modelSeed       uint64
	sessionsOutDir  string

	cfg config.RunConfig
	log *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "rolemine",
		Short: "Mine behavioral roles from Q&A community data dumps",
		Long: `Rolemine reads the Posts, Comments and PostHistory streams of a
				Q&A data dump, classifies every user action, groups actions into
				inactivity-bounded sessions, and fits a Dirichlet-multinomial
				mixture model that discovers the latent roles users adopt.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupRun, // Defined below
	}

	extractCmd = &cobra.Command{
		Use:   "extract [data folder] [output prefix]",
		Short: "Extract per-user sessions from a data dump into slice files",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runExtract, // Defined in cmd_extract.go
	}

	healthCmd = &cobra.Command{
		Use:   "health [data folder] [output csv]",
		Short: "Compute per-slice community health statistics",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runHealth, // Defined in cmd_health.go
	}

	fitCmd = &cobra.Command{
		Use:   "fit [output dir] [session file...]",
		Short: "Fit the role mixture model on one or more session files",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runFit, // Defined in cmd_fit.go
	}

	reportCmd = &cobra.Command{
		Use:   "report [model dir] [output dir]",
		Short: "Render a fitted model as CSV role and proportion tables",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runReport, // Defined in cmd_report.go
	}

	sessionsCmd = &cobra.Command{
		Use:   "sessions [session file...]",
		Short: "Tally session counts per slice into per-network CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSessions, // Defined in cmd_sessions.go
	}

	printCmd = &cobra.Command{
		Use:   "print [session file]",
		Short: "Dump a binary session file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrint, // Defined in cmd_print.go
	}
)

// setupRun loads the run configuration, applies CLI overrides, and builds
// the shared logger before any subcommand executes.
func setupRun(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if cmd.Flags().Changed("time-slice") {
		cfg.Extract.SliceMonths = timeSliceMonths
	}
	if cmd.Flags().Changed("session-gap") {
		d, gapErr := config.ParseDuration(sessionGap)
		if gapErr != nil {
			return fmt.Errorf("parsing --session-gap: %w", gapErr)
		}
		cfg.Extract.SessionGap = d
	}
	if cmd.Flags().Changed("roles") {
		cfg.Model.Roles = modelRoles
	}
	if cmd.Flags().Changed("alpha") {
		cfg.Model.Alpha = modelAlpha
	}
	if cmd.Flags().Changed("beta") {
		cfg.Model.Beta = modelBeta
	}
	if cmd.Flags().Changed("sweeps") {
		cfg.Model.Sweeps = modelSweeps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Model.Seed = modelSeed
	}
	if verbose {
		cfg.Logging.Verbose = true
	}
	if jsonLogs {
		cfg.Logging.JSON = true
	}
	if logDir != "" {
		cfg.Logging.Dir = logDir
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	level := logging.LevelInfo
	if cfg.Logging.Verbose {
		level = logging.LevelDebug
	}
	log = logging.New(logging.Config{
		Level:  level,
		LogDir: cfg.Logging.Dir,
		JSON:   cfg.Logging.JSON,
		Quiet:  quiet,
	})
	return nil
}

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML run configuration file (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug-level logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"Suppress console logging (file logging still applies)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false,
		"Emit structured JSON logs instead of text")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Directory for log files (console only when empty)")

	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().IntVar(&timeSliceMonths, "time-slice", 0,
		"Partition sessions into slices of this many months (0 = single slice)")
	extractCmd.Flags().StringVar(&sessionGap, "session-gap", "",
		"Inactivity gap that closes a session (e.g. 6h, 90m)")

	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().IntVar(&timeSliceMonths, "time-slice", 1,
		"Width of each health slice in months")

	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().IntVarP(&modelRoles, "roles", "k", 0, "Number of latent roles")
	fitCmd.Flags().Float64Var(&modelAlpha, "alpha", 0, "Dirichlet prior over role proportions")
	fitCmd.Flags().Float64Var(&modelBeta, "beta", 0, "Dirichlet prior over per-role action distributions")
	fitCmd.Flags().IntVar(&modelSweeps, "sweeps", 0, "Number of Gibbs sweeps")
	fitCmd.Flags().Uint64Var(&modelSeed, "seed", 0, "Random seed for the sampler")

	rootCmd.AddCommand(reportCmd)

	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().StringVarP(&sessionsOutDir, "out-dir", "o", "counts-by-month",
		"Directory for the per-network session count CSV files")

	rootCmd.AddCommand(printCmd)
}
