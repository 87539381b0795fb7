package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	validOutputs    = []string{"auto", "text", "markdown", "json"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks if the configuration is valid. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error
	if c.RulesFile == "" {
		errs = append(errs, errors.New("rules_file is required"))
	}
	if len(c.SourceDirs) == 0 {
		errs = append(errs, errors.New("source_dirs must name at least one directory"))
	}
	if !slices.Contains(validOutputs, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %v, got %q", validOutputs, c.OutputFormat))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format must be one of %v, got %q", validLogFormats, c.LogFormat))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS))
	}
	return errors.Join(errs...)
}
