// SPDX-License-Identifier: MPL-2.0

package dag

import "github.com/nagaoil/nagaoil/internal/discovery"

// FromRegistry builds the import graph of every registered module. Imports of
// unknown modules are returned separately and left out of the graph.
func FromRegistry(reg *discovery.Registry) (*Graph, []MissingImport) {
	g := New()
	var missing []MissingImport

	for _, name := range reg.Names() {
		g.AddNode(name)
	}
	for _, name := range reg.Names() {
		m, _ := reg.Get(name)
		for _, req := range m.Requirements {
			if _, ok := reg.Get(req); !ok {
				missing = append(missing, MissingImport{Module: name, Import: req})
				continue
			}
			g.AddImport(name, req)
		}
	}
	return g, missing
}
