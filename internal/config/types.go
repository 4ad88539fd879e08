// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nagaoil/nagaoil/internal/format"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
	// ErrBlankPath is returned for a path field that is set but whitespace-only.
	ErrBlankPath = errors.New("path must not be blank")
)

type (
	// Config is the effective build configuration after all layers are merged.
	Config struct {
		Include        []string `mapstructure:"include"`
		Defs           []string `mapstructure:"defs"`
		AdditionalDefs []string `mapstructure:"additional_defs"`
		Format         string   `mapstructure:"format"`
		Output         string   `mapstructure:"output"`
		NoValidation   bool     `mapstructure:"no_validation"`
		Verbose        bool     `mapstructure:"verbose"`

		// File is the project file the config was read from, empty when
		// none was found.
		File string `mapstructure:"-"`
	}

	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific file; it must exist.
		ConfigFilePath string
		// WorkDir is where nagaoil.cue and .env are looked up. Defaults to ".".
		WorkDir string
		// Flags, when set, are bound so that explicitly set flags win.
		Flags *pflag.FlagSet
	}

	// InvalidConfigError collects field-level validation failures of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// InvalidLoadOptionsError collects field-level validation failures of LoadOptions.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}

	// BlankPathError names a path field that is set but whitespace-only.
	BlankPathError struct {
		Field string
	}
)

// DefaultConfig returns the built-in defaults: search the current directory,
// no definitions, format chosen from the output, validation on.
func DefaultConfig() *Config {
	return &Config{
		Include:        []string{},
		Defs:           []string{},
		AdditionalDefs: []string{},
	}
}

// Validate checks what the CUE schema cannot see once env and flags are merged.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Format) != "" {
		if _, err := format.Parse(c.Format); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Output != "" && strings.TrimSpace(c.Output) == "" {
		errs = append(errs, &BlankPathError{Field: "output"})
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// OutputFormat returns the requested output format, or format.Unset when the
// choice is left to the output extension. A Config that passed Validate
// always parses.
func (c *Config) OutputFormat() format.Format {
	f, err := format.Parse(c.Format)
	if err != nil {
		return format.Unset
	}
	return f
}

// Validate rejects whitespace-only paths.
func (o LoadOptions) Validate() error {
	var errs []error
	if o.ConfigFilePath != "" && strings.TrimSpace(o.ConfigFilePath) == "" {
		errs = append(errs, &BlankPathError{Field: "config file"})
	}
	if o.WorkDir != "" && strings.TrimSpace(o.WorkDir) == "" {
		errs = append(errs, &BlankPathError{Field: "work dir"})
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so both
// errors.Is(err, ErrInvalidConfig) and checks against a field error match.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }

func (e *BlankPathError) Error() string {
	return e.Field + ": " + ErrBlankPath.Error()
}

// Unwrap returns ErrBlankPath for errors.Is() compatibility.
func (e *BlankPathError) Unwrap() error { return ErrBlankPath }
