// Copyright (C) 2025 Pelagic AI (oss@pelagic.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates configuration values that fail validation.
// Fatal: the whole run aborts.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads, parses, and validates a YAML run configuration. An empty
// path returns the defaults. File values overlay the defaults, so a
// partial file only needs the keys it changes.
func Load(path string) (RunConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return RunConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a configuration against the struct tags.
func Validate(cfg RunConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: field %s fails %q", ErrInvalidConfig, f.Namespace(), f.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
