// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/config"
	"github.com/nagaoil/nagaoil/internal/discovery"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every Cobra handler delegates through it.
	App struct {
		Config      ConfigProvider
		Diagnostics DiagnosticRenderer
		Engines     EngineFactory
		stdout      io.Writer
		stderr      io.Writer

		// verbose is the effective verbosity of the running command, known
		// once its configuration is loaded.
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Diagnostics DiagnosticRenderer
		Engines     EngineFactory
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DiagnosticRenderer renders harvest diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []discovery.Diagnostic, stderr io.Writer)
	}

	// EngineFactory creates the composition engine for one build.
	EngineFactory func(validating bool) compose.Engine

	// session is the configuration and logger of one command invocation.
	session struct {
		cfg    *config.Config
		logger *log.Logger
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}
	if deps.Engines == nil {
		deps.Engines = func(validating bool) compose.Engine {
			return compose.NewNagaEngine(validating)
		}
	}

	return &App{
		Config:      deps.Config,
		Diagnostics: deps.Diagnostics,
		Engines:     deps.Engines,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}

// load resolves the layered configuration for cmd and builds its logger.
func (a *App) load(cmd *cobra.Command) (*session, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: configPath,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	a.verbose = cfg.Verbose

	s := &session{cfg: cfg, logger: a.newLogger(cfg.Verbose)}
	if cfg.File != "" {
		s.logger.Debug("loaded configuration", "file", cfg.File)
	}
	return s, nil
}

func (a *App) newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// harvest builds the module registry from the configured include roots and
// renders any harvest diagnostics.
func (a *App) harvest(ctx context.Context, s *session) (*discovery.Registry, error) {
	roots := discovery.ExpandSearchPaths(s.cfg.Include)
	s.logger.Debug("harvesting modules", "roots", roots)

	res, err := discovery.NewHarvester(nil).Harvest(roots)
	if err != nil {
		return nil, err
	}
	a.Diagnostics.Render(ctx, res.Diagnostics, a.stderr)

	s.logger.Debug("harvested modules", "count", res.Registry.Len())
	return res.Registry, nil
}

func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []discovery.Diagnostic, stderr io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, diag.Message)
	}
}
