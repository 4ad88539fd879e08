// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nagaoil/nagaoil/internal/format"
	"github.com/nagaoil/nagaoil/internal/issue"
	"github.com/nagaoil/nagaoil/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "nagaoil"
	// FileName is the project config file looked up in the working directory.
	FileName = "nagaoil.cue"
	// DotEnvFileName is the optional dotenv file looked up in the working directory.
	DotEnvFileName = ".env"
	// EnvConfigFile names the project config file when --config is not given.
	EnvConfigFile = "NAGA_OIL_CONFIG"

	KeyInclude        = "include"
	KeyDefs           = "defs"
	KeyAdditionalDefs = "additional_defs"
	KeyFormat         = "format"
	KeyOutput         = "output"
	KeyNoValidation   = "no_validation"
	KeyVerbose        = "verbose"
)

//go:embed config_schema.cue
var configSchema []byte

// binding ties a config key to its environment variable and CLI flag.
type binding struct {
	key  string
	env  string
	flag string
}

var bindings = []binding{
	{key: KeyInclude, env: "NAGA_OIL_INCLUDE_PATH", flag: "include"},
	{key: KeyDefs, env: "NAGA_OIL_DEFS", flag: "defs"},
	{key: KeyAdditionalDefs, env: "NAGA_OIL_ADDITIONAL_DEFS", flag: "additional-defs"},
	{key: KeyFormat, env: "NAGA_OIL_FORMAT", flag: "format"},
	{key: KeyOutput, env: "NAGA_OIL_OUTPUT", flag: "output"},
	{key: KeyNoValidation, env: "NAGA_OIL_NO_VALIDATION", flag: "no-validation"},
	{key: KeyVerbose, env: "NAGA_OIL_VERBOSE", flag: "verbose"},
}

// EnvVar returns the environment variable bound to a config key.
func EnvVar(key string) (string, bool) {
	for _, b := range bindings {
		if b.key == key {
			return b.env, true
		}
	}
	return "", false
}

// ResolvePath returns the project file a load with opts would read, or ""
// when there is none. An explicit ConfigFilePath is returned even if missing.
func ResolvePath(opts LoadOptions) (string, error) {
	dotenv, err := readDotEnv(workDir(opts))
	if err != nil {
		return "", err
	}
	path, _ := resolvePath(opts, dotenv)
	return path, nil
}

// loadWithOptions builds a fresh Viper instance per call so concurrent loads
// never share state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault(KeyInclude, defaults.Include)
	v.SetDefault(KeyDefs, defaults.Defs)
	v.SetDefault(KeyAdditionalDefs, defaults.AdditionalDefs)
	v.SetDefault(KeyFormat, defaults.Format)
	v.SetDefault(KeyOutput, defaults.Output)
	v.SetDefault(KeyNoValidation, defaults.NoValidation)
	v.SetDefault(KeyVerbose, defaults.Verbose)

	dotenv, err := readDotEnv(workDir(opts))
	if err != nil {
		return nil, err
	}

	path, explicit := resolvePath(opts, dotenv)
	if path != "" {
		if !fileExists(path) {
			if explicit {
				return nil, issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(path).
					WithIssue(issue.ConfigLoadFailedId).
					WithSuggestion("Verify the file path passed to --config or NAGA_OIL_CONFIG").
					WithSuggestion("Run 'nagaoil config init' to create a default nagaoil.cue").
					Wrap(fmt.Errorf("config file not found: %w", fs.ErrNotExist)).
					BuildError()
			}
			path = ""
		} else if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare the fields against 'nagaoil config show'").
				Wrap(err).
				BuildError()
		}
	}

	// .env sits above the project file and below the real environment,
	// which BindEnv consults first.
	overlay := make(map[string]any)
	for _, b := range bindings {
		if val, ok := dotenv[b.env]; ok && val != "" {
			overlay[b.key] = val
		}
	}
	if len(overlay) > 0 {
		if err := v.MergeConfigMap(overlay); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", DotEnvFileName, err)
		}
	}

	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
		if opts.Flags == nil {
			continue
		}
		if f := opts.Flags.Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.key, f); err != nil {
				return nil, fmt.Errorf("bind --%s: %w", b.flag, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(listHook)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = path

	if err := cfg.Validate(); err != nil {
		ctx := issue.NewErrorContext().WithOperation("validate configuration")
		if errors.Is(err, format.ErrInvalidFormat) {
			ctx.WithIssue(issue.InvalidFormatId).
				WithSuggestion("Use one of wgsl, glsl, naga or spv for --format (or NAGA_OIL_FORMAT)")
		} else {
			ctx.WithIssue(issue.ConfigLoadFailedId)
		}
		return nil, ctx.Wrap(err).BuildError()
	}

	return &cfg, nil
}

// listHook keeps a scalar string from env or .env as a single list entry;
// ";" splitting happens where the list is consumed.
func listHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	s := reflect.ValueOf(data).String()
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}
	return []string{s}, nil
}

func workDir(opts LoadOptions) string {
	if opts.WorkDir == "" {
		return "."
	}
	return opts.WorkDir
}

// resolvePath reports the project file and whether it was named explicitly.
func resolvePath(opts LoadOptions, dotenv map[string]string) (string, bool) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, true
	}
	if p, ok := os.LookupEnv(EnvConfigFile); ok && p != "" {
		return p, true
	}
	if p := dotenv[EnvConfigFile]; p != "" {
		return resolveRelative(workDir(opts), p), true
	}
	return filepath.Join(workDir(opts), FileName), false
}

func resolveRelative(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// readDotEnv parses dir/.env without touching the process environment.
func readDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DotEnvFileName)
	if !fileExists(path) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load environment file").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Use KEY=value lines, one per line").
			Wrap(err).
			BuildError()
	}
	return values, nil
}

// loadCUEIntoViper validates a project file against #Config and merges it
// into v. Fields are optional, so concreteness is not enforced.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		}
		return fmt.Errorf("failed to create config file: %w", err)
	}
	content, err := GenerateCUE(DefaultConfig())
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Close()
}

// GenerateCUE renders cfg as a nagaoil.cue document that validates against
// #Config. Fields are emitted by their mapstructure keys in binding order.
func GenerateCUE(cfg *Config) (string, error) {
	fields := make(map[string]any, len(bindings))
	if err := mapstructure.Decode(cfg, &fields); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("// nagaoil project configuration.\n")
	sb.WriteString("// Flags and NAGA_OIL_* environment variables override these values.\n\n")

	for _, b := range bindings {
		switch val := fields[b.key].(type) {
		case []string:
			writeList(&sb, b.key, val)
		case string:
			if b.key == KeyFormat {
				val = strings.ToLower(strings.TrimSpace(val))
			}
			fmt.Fprintf(&sb, "%s: %q\n", b.key, val)
		case bool:
			fmt.Fprintf(&sb, "%s: %t\n", b.key, val)
		case nil:
			writeList(&sb, b.key, nil)
		default:
			return "", fmt.Errorf("config key %s: unsupported type %T", b.key, val)
		}
	}

	return sb.String(), nil
}

func writeList(sb *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(sb, "%s: []\n", key)
		return
	}
	fmt.Fprintf(sb, "%s: [\n", key)
	for _, v := range values {
		fmt.Fprintf(sb, "\t%q,\n", v)
	}
	sb.WriteString("]\n")
}
