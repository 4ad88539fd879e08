// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/emit"
	"github.com/nagaoil/nagaoil/internal/format"
	"github.com/nagaoil/nagaoil/internal/issue"
	"github.com/nagaoil/nagaoil/internal/resolve"
	"github.com/nagaoil/nagaoil/internal/shaderdef"
	"github.com/nagaoil/nagaoil/pkg/types"
)

// build runs the full pipeline for one target shader. The target is
// classified before any harvesting, and the output format is only selected
// once composition has succeeded.
func (a *App) build(cmd *cobra.Command, targetPath string) error {
	s, err := a.load(cmd)
	if err != nil {
		return err
	}

	target, err := emit.LoadTarget(targetPath)
	if err != nil {
		return err
	}

	registry, err := a.harvest(cmd.Context(), s)
	if err != nil {
		return err
	}

	defs, err := shaderdef.Gather(s.cfg.Defs, s.cfg.AdditionalDefs)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("parse shader definitions").
			WithIssue(issue.InvalidDefinitionId).
			WithSuggestion("Use NAME, NAME=true|false, NAME=<int> or NAME=<uint>u").
			Wrap(err).
			BuildError()
	}

	engine := a.Engines(!s.cfg.NoValidation)
	res, err := resolve.New(registry, engine, s.logger).Resolve(target.Requirements)
	if err != nil {
		return resolveError(err)
	}
	s.logger.Debug("resolved imports", "modules", len(res.Added), "rounds", res.Rounds)

	driver := emit.NewDriver(engine, a.stdout, s.logger)
	program, err := driver.Compose(target, defs)
	if err != nil {
		if errors.Is(err, compose.ErrComposition) {
			return &ExitError{Code: types.ExitCompositionFailed, Err: err}
		}
		return issue.NewErrorContext().
			WithOperation("compose shader").
			WithResource(target.Path).
			WithIssue(issue.CompositionFailedId).
			Wrap(err).
			BuildError()
	}

	return driver.Emit(program, format.Select(s.cfg.OutputFormat(), s.cfg.Output), s.cfg.Output)
}

// resolveError attaches the matching troubleshooting entry to a resolver error.
func resolveError(err error) error {
	ctx := issue.NewErrorContext().WithOperation("resolve imports")

	var missing *resolve.MissingImportError
	var cycle *resolve.CircularDependencyError
	switch {
	case errors.As(err, &missing):
		ctx.WithIssue(issue.ImportNotFoundId).
			WithSuggestion("Add the directory that contains " + missing.Name + " with --include").
			WithSuggestion("Run 'nagaoil modules' to list the importable names")
	case errors.As(err, &cycle):
		ctx.WithIssue(issue.CircularDependencyId).
			WithSuggestion("Run 'nagaoil graph <shader> --dot' to inspect the import graph")
	}

	return ctx.Wrap(err).BuildError()
}
