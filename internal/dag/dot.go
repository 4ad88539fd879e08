// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"io"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// WriteDOT renders g in Graphviz DOT. Edges point from a module to its imports.
// Nodes listed in highlight are drawn with a double outline.
func WriteDOT(w io.Writer, g *Graph, highlight ...string) error {
	out := graph.New(graph.StringHash, graph.Directed())

	marked := make(map[string]bool, len(highlight))
	for _, name := range highlight {
		marked[name] = true
	}

	for _, name := range g.nodes {
		attrs := []func(*graph.VertexProperties){graph.VertexAttribute("shape", "box")}
		if marked[name] {
			attrs = append(attrs, graph.VertexAttribute("peripheries", "2"))
		}
		if err := out.AddVertex(dotID(name), attrs...); err != nil {
			return err
		}
	}
	for _, name := range g.nodes {
		for _, dep := range g.Imports(name) {
			if err := out.AddEdge(dotID(name), dotID(dep)); err != nil {
				return err
			}
		}
	}

	return draw.DOT(out, w)
}

// dotID escapes the quotes of path-derived module names.
func dotID(name string) string {
	return strings.ReplaceAll(name, `"`, `\"`)
}
