// SPDX-License-Identifier: MPL-2.0

// Package dag builds the import graph of a module registry. It orders modules
// so that every module comes after the modules it imports, and reports import
// cycles and imports no module provides. It backs `nagaoil modules --check`
// and `nagaoil graph --dot`.
package dag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"
)

type (
	// CycleError indicates that some modules import each other.
	CycleError struct {
		// Cycle lists the modules that could not be ordered, sorted.
		Cycle []string
	}

	// MissingImport is an import edge whose target is not a known module.
	MissingImport struct {
		Module string
		Import string
	}

	// Graph is a directed import graph. It stores an edge from B to A when A
	// imports B, so edges point the way modules must be added.
	Graph struct {
		g graph.Graph[string, string]
		// order records each node's insertion index for deterministic output.
		order map[string]int
		nodes []string
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle between modules: %s", strings.Join(e.Cycle, ", "))
}

func (m MissingImport) String() string {
	return fmt.Sprintf("%s imports %s, which no module provides", m.Module, m.Import)
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		g:     graph.New(graph.StringHash, graph.Directed()),
		order: make(map[string]int),
	}
}

// AddNode adds a module. Adding an existing module is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.order[name]; ok {
		return
	}
	_ = g.g.AddVertex(name)
	g.order[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddImport records that module imports dep. Repeated edges are ignored.
func (g *Graph) AddImport(module, dep string) {
	g.AddNode(module)
	g.AddNode(dep)
	// Both vertices exist, so the only possible error is ErrEdgeAlreadyExists.
	_ = g.g.AddEdge(dep, module)
}

// Nodes returns the modules in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Imports returns the direct imports of module, ordered by when each was
// added to the graph.
func (g *Graph) Imports(module string) []string {
	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil
	}
	deps := make([]string, 0, len(preds[module]))
	for dep := range preds[module] {
		deps = append(deps, dep)
	}
	slices.SortFunc(deps, g.compare)
	return deps
}

// Reachable returns the subgraph of modules reachable from roots, roots included.
func (g *Graph) Reachable(roots ...string) *Graph {
	sub := New()
	stack := slices.Clone(roots)
	slices.Reverse(stack)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := sub.order[name]; seen {
			continue
		}
		sub.AddNode(name)
		deps := g.Imports(name)
		slices.Reverse(deps)
		stack = append(stack, deps...)
	}
	for _, name := range sub.nodes {
		for _, dep := range g.Imports(name) {
			sub.AddImport(name, dep)
		}
	}
	return sub
}

// TopologicalSort orders modules so each one follows its imports. Modules
// that become ready together keep insertion order. Returns *CycleError when
// some modules import each other.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	order, err := graph.StableTopologicalSort(g.g, func(a, b string) bool {
		return g.order[a] < g.order[b]
	})
	if err == nil {
		return order, nil
	}

	stuck, cerr := g.stuck()
	if cerr != nil {
		return nil, cerr
	}
	if len(stuck) == 0 {
		return nil, fmt.Errorf("order import graph: %w", err)
	}
	return nil, &CycleError{Cycle: stuck}
}

// stuck returns the modules on an import cycle together with every module
// that imports one of them, directly or not, sorted.
func (g *Graph) stuck() ([]string, error) {
	components, err := graph.StronglyConnectedComponents(g.g)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	for _, comp := range components {
		if len(comp) == 1 {
			if _, err := g.g.Edge(comp[0], comp[0]); err != nil {
				continue
			}
		}
		for _, name := range comp {
			if set[name] {
				continue
			}
			err := graph.BFS(g.g, name, func(dependent string) bool {
				set[dependent] = true
				return false
			})
			if err != nil {
				return nil, err
			}
		}
	}

	stuck := make([]string, 0, len(set))
	for name := range set {
		stuck = append(stuck, name)
	}
	slices.Sort(stuck)
	return stuck, nil
}

func (g *Graph) compare(a, b string) int {
	return g.order[a] - g.order[b]
}
