// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/dag"
	"github.com/nagaoil/nagaoil/internal/discovery"
	"github.com/nagaoil/nagaoil/internal/issue"
)

// ErrModuleCheck is wrapped by the error of a failed `modules --check`.
var ErrModuleCheck = errors.New("module check failed")

func newModulesCommand(app *App) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules found on the include roots",
		Long: `List every module found on the include roots with its source language,
file and imports.

With --check, every import of every module is checked: imports that no module
provides and import cycles are reported and the command fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.listModules(cmd, check)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "report missing imports and import cycles across all modules")

	return cmd
}

func (a *App) listModules(cmd *cobra.Command, check bool) error {
	s, err := a.load(cmd)
	if err != nil {
		return err
	}

	registry, err := a.harvest(cmd.Context(), s)
	if err != nil {
		return err
	}

	if registry.Len() == 0 {
		_, _ = fmt.Fprintln(a.stdout, SubtitleStyle.Render("no modules found"))
	} else {
		_, _ = fmt.Fprintln(a.stdout, moduleTable(registry))
	}

	if !check {
		return nil
	}
	return a.checkModules(registry)
}

func moduleTable(registry *discovery.Registry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("NAME", "LANGUAGE", "PATH", "IMPORTS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})

	for _, name := range registry.Names() {
		m, _ := registry.Get(name)
		t.Row(name, m.Language.String(), m.Path, strings.Join(m.Requirements, ", "))
	}
	return t.Render()
}

// checkModules reports every missing import and import cycle of the registry.
func (a *App) checkModules(registry *discovery.Registry) error {
	graph, missing := dag.FromRegistry(registry)

	var problems []error
	for _, m := range missing {
		problems = append(problems, errors.New(m.String()))
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		problems = append(problems, err)
	}

	if len(problems) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "%s %d modules, all imports resolve, no cycles\n",
			SuccessStyle.Render("ok:"), len(order))
		return nil
	}

	id := issue.ImportNotFoundId
	if len(missing) == 0 {
		id = issue.CircularDependencyId
	}
	return issue.NewErrorContext().
		WithOperation("check modules").
		WithIssue(id).
		Wrap(fmt.Errorf("%w:\n%w", ErrModuleCheck, errors.Join(problems...))).
		BuildError()
}
