// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [issue]",
		Short: "Show a troubleshooting guide",
		Long: `Show the troubleshooting guide for an error. Failing commands name the
guide in their output, e.g. "Run 'nagaoil explain import-not-found'".

Without an argument, list every guide.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, i := range issue.Values() {
				names = append(names, i.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				app.listIssues()
				return nil
			}
			return app.explain(args[0], style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty or ascii")

	return cmd
}

func (a *App) listIssues() {
	_, _ = fmt.Fprintln(a.stdout, TitleStyle.Render("Troubleshooting guides"))
	for _, i := range issue.Values() {
		_, _ = fmt.Fprintf(a.stdout, "  %s\n", CmdStyle.Render(i.Name()))
	}
}

func (a *App) explain(name, style string) error {
	id, err := issue.ParseId(name)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("explain issue").
			WithSuggestion("Run 'nagaoil explain' to list the guides").
			Wrap(err).
			BuildError()
	}

	rendered, err := issue.Get(id).Render(style)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, _ = fmt.Fprint(a.stdout, rendered)
	return nil
}
