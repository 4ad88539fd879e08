// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/config"
	"github.com/nagaoil/nagaoil/internal/issue"
)

// newConfigCommand creates the `nagaoil config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage nagaoil configuration",
		Long: `Manage nagaoil configuration.

Settings are layered, highest precedence first:
  1. command-line flags
  2. NAGA_OIL_* environment variables
  3. a .env file in the current directory
  4. the project file (./nagaoil.cue, --config or NAGA_OIL_CONFIG)
  5. built-in defaults`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default nagaoil.cue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.initConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the project config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfigPath(cmd)
		},
	})

	return cfgCmd
}

func (a *App) showConfig(cmd *cobra.Command) error {
	s, err := a.load(cmd)
	if err != nil {
		return err
	}

	source := "built-in defaults"
	if s.cfg.File != "" {
		source = s.cfg.File
	}
	rendered, err := config.GenerateCUE(s.cfg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.stdout, "// source: %s\n", source)
	_, _ = fmt.Fprint(a.stdout, rendered)
	return nil
}

func (a *App) initConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if path == "" {
		path = config.FileName
	}

	if err := config.WriteDefault(path); err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId)
		if errors.Is(err, config.ErrConfigExists) {
			ctx.WithSuggestion("Edit the existing file or remove it first")
		}
		return ctx.Wrap(err).BuildError()
	}

	_, _ = fmt.Fprintf(a.stdout, "%s created %s\n", SuccessStyle.Render("ok:"), CmdStyle.Render(path))
	return nil
}

func (a *App) showConfigPath(cmd *cobra.Command) error {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: explicit})
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		_, _ = fmt.Fprintf(a.stdout, "%s %s\n", path, SubtitleStyle.Render("(not found, using defaults)"))
		return nil
	}
	_, _ = fmt.Fprintln(a.stdout, path)
	return nil
}
