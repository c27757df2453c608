// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config holds the externally supplied run configuration: the
// segmentation knobs, the mixture-model hyperparameters, and logging.
// Invalid values are fatal; a run never starts on a half-valid config.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML parsing of "6h"-style strings.
type Duration time.Duration

// UnmarshalYAML parses a duration string or a bare number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration syntax.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ParseDuration parses a "6h"-style string into a Duration.
func ParseDuration(s string) (Duration, error) {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(parsed), nil
}

// ExtractConfig controls session segmentation and time slicing.
type ExtractConfig struct {
	// SessionGap is the inactivity threshold that splits sessions.
	SessionGap Duration `yaml:"session_gap" validate:"gt=0"`

	// SliceMonths buckets sessions into windows of this many mean months
	// since dataset birth. Zero keeps everything in a single slice.
	SliceMonths int `yaml:"slice_months" validate:"gte=0"`
}

// ModelConfig holds the mixture-model hyperparameters.
type ModelConfig struct {
	// Roles is the model order K.
	Roles int `yaml:"roles" validate:"gte=1,lte=256"`

	// Alpha is the Dirichlet concentration on role proportions.
	Alpha float64 `yaml:"alpha" validate:"gt=0"`

	// Beta is the Dirichlet concentration on role action distributions.
	Beta float64 `yaml:"beta" validate:"gt=0"`

	// Sweeps is the fixed Gibbs sweep count.
	Sweeps int `yaml:"sweeps" validate:"gte=1"`

	// Seed initializes the sampler RNG; a fixed seed reproduces a run.
	Seed uint64 `yaml:"seed"`
}

// LoggingConfig controls pipeline logging.
type LoggingConfig struct {
	// Verbose enables debug-level output.
	Verbose bool `yaml:"verbose"`

	// JSON switches stderr logs to JSON.
	JSON bool `yaml:"json"`

	// Dir enables file logging in the given directory.
	Dir string `yaml:"dir"`
}

// RunConfig is the full configuration surface of one pipeline run.
type RunConfig struct {
	Extract ExtractConfig `yaml:"extract"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file is supplied: 6 hour
// session gap, single slice, K=5 roles with 0.1 concentrations, 100
// sweeps.
func Default() RunConfig {
	return RunConfig{
		Extract: ExtractConfig{
			SessionGap:  Duration(6 * time.Hour),
			SliceMonths: 0,
		},
		Model: ModelConfig{
			Roles:  5,
			Alpha:  0.1,
			Beta:   0.1,
			Sweeps: 100,
			Seed:   47,
		},
	}
}
