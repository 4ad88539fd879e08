// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/issue"
)

type (
	// MetadataFunc extracts the declared name and imports of a module source
	// without a full parse.
	MetadataFunc func(source string) compose.Metadata

	// Harvester walks search roots and registers every recognized module file.
	Harvester struct {
		extract MetadataFunc
	}

	// HarvestResult bundles the registry with the non-fatal diagnostics
	// produced while building it.
	HarvestResult struct {
		Registry    *Registry
		Diagnostics []Diagnostic
	}

	// pendingPath is a filesystem path waiting to be visited, remembering the
	// search root it was found under and the real paths of the directories
	// that led to it.
	pendingPath struct {
		path      string
		root      string
		explicit  bool
		ancestors []string
	}
)

// NewHarvester creates a Harvester. A nil extract uses compose.ScanMetadata.
func NewHarvester(extract MetadataFunc) *Harvester {
	if extract == nil {
		extract = compose.ScanMetadata
	}
	return &Harvester{extract: extract}
}

// Harvest visits the roots (last root first) and returns the module registry.
// Directories are expanded lazily, depth first; entries are listed in name
// order so a given tree is always visited in the same order.
//
// Every root is walked in full, so overlapping or repeated roots register
// their modules again. Only a directory that is its own ancestor through a
// symlink is skipped.
//
// Unreadable roots, directories and module files abort the harvest. A
// duplicate module name keeps the module found last and adds one warning.
func (h *Harvester) Harvest(roots []string) (HarvestResult, error) {
	registry := NewRegistry()
	var diagnostics []Diagnostic

	pending := make([]pendingPath, 0, len(roots))
	for _, root := range roots {
		pending = append(pending, pendingPath{path: root, root: root, explicit: true})
	}

	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		info, err := os.Stat(next.path)
		if err != nil {
			if next.explicit {
				return HarvestResult{}, unreadablePathError(next.path, err)
			}
			if _, ok := compose.LanguageFromPath(next.path); !ok {
				continue
			}
			return HarvestResult{}, unreadableModuleError(next.path, err)
		}

		if info.IsDir() {
			children, err := expandDir(next)
			if err != nil {
				return HarvestResult{}, err
			}
			pending = append(pending, children...)
			continue
		}

		language, ok := compose.LanguageFromPath(next.path)
		if !ok {
			continue
		}

		m, err := h.load(next, language)
		if err != nil {
			return HarvestResult{}, err
		}

		if registry.Put(m) {
			diagnostics = append(diagnostics, NewDiagnosticWithPath(
				SeverityWarning, CodeDuplicateModule,
				fmt.Sprintf("duplicate definition for `%s`", m.Name), m.Path))
		}
	}

	return HarvestResult{Registry: registry, Diagnostics: diagnostics}, nil
}

// load reads a module file and extracts its metadata.
func (h *Harvester) load(p pendingPath, language compose.Language) (*Module, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, unreadableModuleError(p.path, err)
	}

	source := string(data)
	md := h.extract(source)

	return &Module{
		Name:         registryName(md.Name, p),
		DeclaredName: md.Name,
		Requirements: md.Requirements(),
		Path:         p.path,
		Language:     language,
		Source:       source,
	}, nil
}

// expandDir lists a directory and returns its entries as pending paths.
// A directory whose real path already appears among its ancestors closes a
// symlink cycle and yields no entries.
func expandDir(dir pendingPath) ([]pendingPath, error) {
	real, err := filepath.EvalSymlinks(dir.path)
	if err != nil {
		real = dir.path
	}
	if abs, absErr := filepath.Abs(real); absErr == nil {
		real = abs
	}
	if slices.Contains(dir.ancestors, real) {
		return nil, nil
	}
	ancestors := append(slices.Clip(dir.ancestors), real)

	entries, err := os.ReadDir(dir.path)
	if err != nil {
		return nil, unreadablePathError(dir.path, err)
	}

	children := make([]pendingPath, 0, len(entries))
	for _, entry := range entries {
		children = append(children, pendingPath{
			path:      filepath.Join(dir.path, entry.Name()),
			root:      dir.root,
			ancestors: ancestors,
		})
	}
	return children, nil
}

// registryName returns the declared name, or the file path relative to its
// search root wrapped in double quotes. Quoting keeps path-derived names
// apart from declared ones.
func registryName(declared string, p pendingPath) string {
	if declared != "" {
		return declared
	}

	rel := filepath.Clean(p.path)
	if !p.explicit {
		if r, err := filepath.Rel(p.root, p.path); err == nil {
			rel = r
		}
	}
	return `"` + filepath.ToSlash(rel) + `"`
}

func unreadablePathError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("read include path").
		WithResource(path).
		WithIssue(issue.IncludePathUnreadableId).
		WithSuggestion("Check that the path passed to --include (or NAGA_OIL_INCLUDE_PATH) exists").
		WithSuggestion("Check the directory permissions").
		Wrap(err).
		BuildError()
}

func unreadableModuleError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("read module file").
		WithResource(path).
		WithIssue(issue.IncludePathUnreadableId).
		WithSuggestion("Check the file permissions").
		Wrap(err).
		BuildError()
}
