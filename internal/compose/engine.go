// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/wgsl"
)

// entryFileName labels an entry shader that has no file path.
const entryFileName = "<entry>"

// NagaEngine composes WGSL modules with the naga compiler.
type NagaEngine struct {
	validating bool
	modules    map[string]ModuleDescriptor
	order      []string
}

// NewNagaEngine creates an engine. When validating is set, Compose rejects
// top-level names declared by more than one source.
func NewNagaEngine(validating bool) *NagaEngine {
	return &NagaEngine{
		validating: validating,
		modules:    make(map[string]ModuleDescriptor),
	}
}

// ContainsModule reports whether a module was added under name.
func (e *NagaEngine) ContainsModule(name string) bool {
	_, ok := e.modules[name]
	return ok
}

// AddModule stores a module for later composition.
func (e *NagaEngine) AddModule(desc ModuleDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("module %s has no name", desc.FilePath)
	}
	if e.ContainsModule(desc.Name) {
		return fmt.Errorf("%w: %s", ErrModuleExists, desc.Name)
	}
	e.modules[desc.Name] = desc
	e.order = append(e.order, desc.Name)
	return nil
}

// Compose merges the entry shader with the modules it imports and lowers the
// result to naga IR. Every failure is a *CompositionError.
func (e *NagaEngine) Compose(desc EntryDescriptor) (*Program, error) {
	file := desc.FilePath
	if file == "" {
		file = entryFileName
	}
	if desc.ShaderType.Language() != LanguageWGSL {
		return nil, &CompositionError{
			File:    file,
			Message: fmt.Sprintf("%s entry shaders are not supported, only WGSL can be composed", desc.ShaderType),
			Cause:   ErrUnsupportedLanguage,
		}
	}

	entry, err := preprocess(file, desc.Source, desc.Defs)
	if err != nil {
		return nil, err
	}

	imported, err := e.closure(entry, desc)
	if err != nil {
		return nil, err
	}

	segments := make([]*preprocessed, 0, len(imported)+1)
	names := make([]string, 0, len(imported))
	for _, name := range e.order {
		if p, ok := imported[name]; ok {
			segments = append(segments, p)
			names = append(names, name)
		}
	}
	segments = append(segments, entry)

	rewriteQualifiers(segments)

	if e.validating {
		if err := checkDuplicateNames(segments); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	starts := make([]int, len(segments))
	line := 1
	for i, seg := range segments {
		starts[i] = line
		sb.WriteString(seg.text())
		sb.WriteString("\n")
		line += len(seg.lines)
	}
	composed := sb.String()

	ast, err := naga.Parse(composed)
	if err != nil {
		return nil, locate(err, segments, starts)
	}
	module, err := naga.LowerWithSource(ast, composed)
	if err != nil {
		return nil, locate(err, segments, starts)
	}
	if len(module.EntryPoints) == 0 {
		return nil, &CompositionError{File: file, Message: "no entry point found"}
	}

	return &Program{Source: composed, Module: module, Modules: names}, nil
}

// closure preprocesses every module reachable from the entry's imports.
func (e *NagaEngine) closure(entry *preprocessed, desc EntryDescriptor) (map[string]*preprocessed, error) {
	type edge struct {
		from *preprocessed
		path string
	}

	seen := make(map[string]*preprocessed)
	var stack []edge
	push := func(from *preprocessed) {
		for _, imp := range from.imports {
			stack = append(stack, edge{from: from, path: imp.Path})
		}
	}
	push(entry)

	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[next.path]; ok {
			continue
		}

		mod, ok := e.modules[next.path]
		if !ok {
			return nil, diagnosticAt(next.from.file, next.from.raw, next.from.importLines[next.path],
				"required import %s has not been added", next.path)
		}
		if mod.Language != LanguageWGSL {
			err := diagnosticAt(next.from.file, next.from.raw, next.from.importLines[next.path],
				"module %s is %s and cannot be imported into WGSL", next.path, mod.Language)
			err.Cause = ErrUnsupportedLanguage
			return nil, err
		}

		p, err := preprocess(mod.FilePath, mod.Source, desc.Defs)
		if err != nil {
			return nil, err
		}
		seen[next.path] = p
		push(p)
	}
	return seen, nil
}

// rewriteQualifiers removes `path::` and `alias::` prefixes of imported items.
func rewriteQualifiers(segments []*preprocessed) {
	set := make(map[string]bool)
	for _, seg := range segments {
		for _, imp := range seg.imports {
			set[imp.Path] = true
			if imp.Alias != "" {
				set[imp.Alias] = true
			}
			if !strings.HasPrefix(imp.Path, `"`) {
				if idx := strings.LastIndex(imp.Path, "::"); idx >= 0 {
					set[imp.Path[idx+2:]] = true
				}
			}
		}
	}
	if len(set) == 0 {
		return
	}

	qualifiers := make([]string, 0, len(set))
	for q := range set {
		qualifiers = append(qualifiers, regexp.QuoteMeta(q))
	}
	// Longest first so `a::b::` wins over `b::`.
	slices.SortFunc(qualifiers, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	pattern := regexp.MustCompile(`(^|[^A-Za-z0-9_:])(?:` + strings.Join(qualifiers, "|") + `)::`)

	for _, seg := range segments {
		for i, line := range seg.lines {
			if strings.Contains(line, "::") {
				seg.lines[i] = pattern.ReplaceAllString(line, "$1")
			}
		}
	}
}

// checkDuplicateNames rejects top-level declarations that appear in two sources.
func checkDuplicateNames(segments []*preprocessed) error {
	owner := make(map[string]int)
	for i, seg := range segments {
		ast, err := naga.Parse(seg.text())
		if err != nil {
			return locate(err, []*preprocessed{seg}, []int{1})
		}
		for _, d := range topLevelDecls(ast) {
			if prev, ok := owner[d.name]; ok && prev != i {
				return diagnosticAt(seg.file, seg.raw, d.line,
					"`%s` is already defined in %s", d.name, segments[prev].file)
			}
			owner[d.name] = i
		}
	}
	return nil
}

type decl struct {
	name string
	line int
}

func topLevelDecls(m *wgsl.Module) []decl {
	var out []decl
	for _, f := range m.Functions {
		out = append(out, decl{f.Name, f.Span.Start.Line})
	}
	for _, s := range m.Structs {
		out = append(out, decl{s.Name, s.Span.Start.Line})
	}
	for _, v := range m.GlobalVars {
		out = append(out, decl{v.Name, v.Span.Start.Line})
	}
	for _, c := range m.Constants {
		out = append(out, decl{c.Name, c.Span.Start.Line})
	}
	for _, a := range m.Aliases {
		out = append(out, decl{a.Name, a.Span.Start.Line})
	}
	return out
}

// locate turns a naga error on the composed text into a diagnostic on the
// source the offending line came from.
func locate(err error, segments []*preprocessed, starts []int) *CompositionError {
	message, line, column := err.Error(), 0, 0

	var srcErr *wgsl.SourceError
	var srcErrs *wgsl.SourceErrors
	var parseErr wgsl.ParseError
	switch {
	case errors.As(err, &srcErr):
		message, line, column = srcErr.Message, srcErr.Span.Start.Line, srcErr.Span.Start.Column
	case errors.As(err, &srcErrs) && srcErrs != nil && len(*srcErrs) > 0:
		first := (*srcErrs)[0]
		message, line, column = first.Message, first.Span.Start.Line, first.Span.Start.Column
	case errors.As(err, &parseErr):
		message, line, column = parseErr.Message, parseErr.Token.Line, parseErr.Token.Column
	}

	seg := segments[len(segments)-1]
	local := 0
	if line > 0 {
		for i := len(starts) - 1; i >= 0; i-- {
			if line >= starts[i] {
				seg = segments[i]
				local = line - starts[i] + 1
				break
			}
		}
	}
	if local > len(seg.lines) {
		local, column = 0, 0
	}

	return &CompositionError{
		File:    seg.file,
		Line:    local,
		Column:  column,
		Message: message,
		Source:  seg.raw,
		Cause:   err,
	}
}
