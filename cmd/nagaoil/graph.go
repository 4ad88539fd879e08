// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/dag"
	"github.com/nagaoil/nagaoil/internal/discovery"
	"github.com/nagaoil/nagaoil/internal/emit"
	"github.com/nagaoil/nagaoil/internal/resolve"
)

// recordingStore is a ModuleStore that only remembers what was added.
type recordingStore struct {
	added map[string]bool
}

func (s *recordingStore) ContainsModule(name string) bool {
	return s.added[name]
}

func (s *recordingStore) AddModule(desc compose.ModuleDescriptor) error {
	s.added[desc.Name] = true
	return nil
}

func newGraphCommand(app *App) *cobra.Command {
	var dot bool

	cmd := &cobra.Command{
		Use:   "graph <shader>",
		Short: "Show the modules a shader pulls in",
		Long: `Resolve the imports of a shader without composing it and print the
modules in the order they would be added to the composer.

With --dot, print the import graph reachable from the shader in Graphviz DOT
format instead; the shader itself is drawn with a double outline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.graph(cmd, args[0], dot)
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "print the import graph in Graphviz DOT format")

	return cmd
}

func (a *App) graph(cmd *cobra.Command, targetPath string, dot bool) error {
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

	store := &recordingStore{added: make(map[string]bool)}
	res, err := resolve.New(registry, store, s.logger).Resolve(target.Requirements)
	if err != nil {
		return resolveError(err)
	}

	if dot {
		return dag.WriteDOT(a.stdout, importGraph(registry, target), target.Path)
	}

	_, _ = fmt.Fprintln(a.stdout, TitleStyle.Render(target.Path))
	for i, name := range res.Added {
		_, _ = fmt.Fprintf(a.stdout, "%3d. %s\n", i+1, CmdStyle.Render(name))
	}
	if len(res.Added) == 0 {
		_, _ = fmt.Fprintln(a.stdout, SubtitleStyle.Render("     (no imports)"))
	}
	return nil
}

// importGraph is the registry graph plus the target, restricted to what the
// target reaches.
func importGraph(registry *discovery.Registry, target *emit.Target) *dag.Graph {
	g, _ := dag.FromRegistry(registry)
	g.AddNode(target.Path)
	for _, req := range target.Requirements {
		g.AddImport(target.Path, req)
	}
	return g.Reachable(target.Path)
}
