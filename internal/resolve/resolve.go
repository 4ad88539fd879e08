// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/discovery"
)

type (
	// ModuleStore is the part of the composition engine the resolver drives.
	ModuleStore interface {
		ContainsModule(name string) bool
		AddModule(desc compose.ModuleDescriptor) error
	}

	// ModuleSource looks modules up by registry name.
	ModuleSource interface {
		Get(name string) (*discovery.Module, bool)
	}

	// Resolver brings a ModuleStore to a state where a set of requirements
	// and everything they import transitively is present.
	Resolver struct {
		modules ModuleSource
		store   ModuleStore
		logger  *log.Logger
	}

	// Result describes a successful resolution.
	Result struct {
		// Added lists the modules added to the store, in order.
		Added []string
		// Rounds is the number of passes over the pending set.
		Rounds int
	}

	// pendingSet is a set of module names.
	pendingSet map[string]struct{}
)

// New creates a Resolver. A nil logger discards log output.
func New(modules ModuleSource, store ModuleStore, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{modules: modules, store: store, logger: logger}
}

// Resolve adds every module reachable from requirements to the store.
//
// Each round visits the pending names in sorted order. A name the store
// already holds is dropped. A name whose own requirements are all present is
// added. Any other name stays pending together with its missing requirements.
// The resolution fails when a name is not in the registry, or when a round
// ends with the same non-empty pending set it started with.
func (r *Resolver) Resolve(requirements []string) (Result, error) {
	var result Result

	pending := make(pendingSet, len(requirements))
	for _, name := range requirements {
		pending[name] = struct{}{}
	}

	for len(pending) > 0 {
		result.Rounds++
		next := make(pendingSet)

		for _, name := range pending.sorted() {
			if r.store.ContainsModule(name) {
				continue
			}

			m, ok := r.modules.Get(name)
			if !ok {
				return result, &MissingImportError{Name: name}
			}

			missing := r.missingRequirements(m)
			if len(missing) == 0 {
				r.logger.Debug("adding module", "name", name, "path", m.Path)
				if err := r.store.AddModule(m.Descriptor()); err != nil {
					return result, &AddModuleError{Name: name, Err: err}
				}
				result.Added = append(result.Added, name)
				continue
			}

			next[name] = struct{}{}
			for _, req := range missing {
				next[req] = struct{}{}
			}
		}

		for name := range next {
			if r.store.ContainsModule(name) {
				delete(next, name)
			}
		}

		r.logger.Debug("resolution round", "round", result.Rounds, "pending", len(next))

		if len(next) > 0 && next.equal(pending) {
			return result, &CircularDependencyError{Pending: next.sorted()}
		}
		pending = next
	}

	return result, nil
}

func (r *Resolver) missingRequirements(m *discovery.Module) []string {
	var missing []string
	for _, req := range m.Requirements {
		if !r.store.ContainsModule(req) {
			missing = append(missing, req)
		}
	}
	return missing
}

func (s pendingSet) sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s pendingSet) equal(other pendingSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if _, ok := other[name]; !ok {
			return false
		}
	}
	return true
}
