// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"sort"

	"github.com/nagaoil/nagaoil/internal/compose"
)

type (
	// Module is a discovered shader module. It is immutable once registered.
	Module struct {
		// Name is the registry name (declared or synthesized).
		Name string
		// DeclaredName is the #define_import_path value, empty for anonymous modules.
		DeclaredName string
		// Requirements are the distinct imported module names, sorted.
		Requirements []string
		// Path is the file the module was read from.
		Path string
		// Language is the source language derived from the extension.
		Language compose.Language
		// Source is the full module text.
		Source string
	}

	// Registry maps module names to modules. Names are unique; a later
	// registration replaces an earlier one.
	Registry struct {
		modules map[string]*Module
	}
)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Put registers m under m.Name and reports whether an existing entry was replaced.
func (r *Registry) Put(m *Module) bool {
	_, replaced := r.modules[m.Name]
	r.modules[m.Name] = m
	return replaced
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptor converts m into the engine's module descriptor.
func (m *Module) Descriptor() compose.ModuleDescriptor {
	return compose.ModuleDescriptor{
		Name:     m.Name,
		Source:   m.Source,
		FilePath: m.Path,
		Language: m.Language,
	}
}
