// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/issue"
	"github.com/nagaoil/nagaoil/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "nagaoil [flags] <shader>",
		Short: "Compose modular WGSL shaders into WGSL, GLSL, SPIR-V or naga IR",
		Long: TitleStyle.Render("nagaoil") + SubtitleStyle.Render(" - a modular WGSL build driver") + `

nagaoil reads a top-level shader, finds the modules it imports under the
include roots, composes them into one program, validates it and writes the
result in the requested format.

Modules declare their import name with '#define_import_path' and are pulled
in with '#import'. Files without a declared name are importable by their
quoted path relative to the include root, e.g. #import "util.wgsl".

` + SubtitleStyle.Render("Examples:") + `
  nagaoil main.wgsl -i shaders                Print the composed WGSL
  nagaoil main.wgsl -i shaders -o main.spv    Write SPIR-V (format from extension)
  nagaoil main.wgsl -d "LIGHTS=4;SHADOWS"     Compose with shader definitions
  nagaoil modules --check -i shaders          List modules and check their imports
  nagaoil graph main.wgsl --dot | dot -Tsvg   Draw the import graph`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.build(cmd, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.StringArrayP("include", "i", nil, "module search root; repeatable, entries may be ';'-joined (env NAGA_OIL_INCLUDE_PATH)")
	pf.String("config", "", "project config file (default ./nagaoil.cue, env NAGA_OIL_CONFIG)")
	pf.BoolP("verbose", "v", false, "enable debug logging and troubleshooting guides (env NAGA_OIL_VERBOSE)")

	f := root.Flags()
	f.BoolP("no-validation", "n", false, "compose without the name invariance checks (env NAGA_OIL_NO_VALIDATION)")
	f.StringArrayP("defs", "d", nil, "shader definitions NAME[=VALUE], ';'-separated (env NAGA_OIL_DEFS)")
	f.StringArrayP("additional-defs", "a", nil, "definitions applied after --defs (env NAGA_OIL_ADDITIONAL_DEFS)")
	f.StringP("format", "f", "", "output format: wgsl, glsl, naga or spv (env NAGA_OIL_FORMAT)")
	f.StringP("output", "o", "", "output file; stdout when empty (env NAGA_OIL_OUTPUT)")

	root.AddCommand(
		newModulesCommand(app),
		newGraphCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI with args and returns the process exit status.
func (a *App) Run(ctx context.Context, args []string) types.ExitCode {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(a.handleError),
	)
	return exitCodeOf(err)
}

// Main runs the CLI against the process arguments and returns the exit status.
func Main() int {
	return int(NewApp(Dependencies{}).Run(context.Background(), os.Args[1:]))
}

// Execute is called by main.main and exits the process.
func Execute() {
	os.Exit(Main())
}

// handleError prints composition diagnostics verbatim, actionable errors in
// their formatted form and everything else the fang way. In verbose mode the
// matching troubleshooting guide follows.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var compErr *compose.CompositionError
	var actionable *issue.ActionableError

	switch {
	case errors.As(err, &compErr):
		_, _ = fmt.Fprintln(w, compErr.Error())
		a.renderIssue(w, issue.CompositionFailedId)
	case errors.As(err, &actionable):
		_, _ = fmt.Fprintln(w, ErrorStyle.Render("error:")+" "+actionable.Format(a.verbose))
		a.renderIssue(w, actionable.Issue)
	default:
		fang.DefaultErrorHandler(w, styles, err)
	}
}

func (a *App) renderIssue(w io.Writer, id issue.Id) {
	if !a.verbose || !id.IsValid() {
		return
	}
	rendered, err := issue.Get(id).Render("auto")
	if err != nil {
		return
	}
	_, _ = fmt.Fprint(w, rendered)
}
