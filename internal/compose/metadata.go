// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	directiveImportPath = "#define_import_path"
	directiveImport     = "#import"
)

var errEmptyImport = errors.New("import directive without a module path")

type (
	// Import is one #import directive.
	Import struct {
		// Path is the imported module name; quoted file names keep their quotes.
		Path string
		// Alias is the optional `as` name used as a qualifier.
		Alias string
		// Items are the names listed in a `::{a, b}` group.
		Items []string
	}

	// Metadata is the lightweight header information of a module source.
	Metadata struct {
		// Name is the #define_import_path value, empty when the module is anonymous.
		Name    string
		Imports []Import
	}
)

// Requirements returns the distinct imported module names, sorted.
func (m Metadata) Requirements() []string {
	seen := make(map[string]bool, len(m.Imports))
	reqs := make([]string, 0, len(m.Imports))
	for _, imp := range m.Imports {
		if seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		reqs = append(reqs, imp.Path)
	}
	sort.Strings(reqs)
	return reqs
}

// ScanMetadata extracts the declared module name and the raw import list.
// Conditional directives are not evaluated and malformed imports are skipped;
// Compose reports those with line information.
func ScanMetadata(source string) Metadata {
	var md Metadata
	for _, line := range strings.Split(source, "\n") {
		keyword, rest := splitDirective(line)
		switch keyword {
		case directiveImportPath:
			if md.Name == "" {
				md.Name = strings.TrimSpace(rest)
			}
		case directiveImport:
			imp, err := parseImport(rest)
			if err != nil {
				continue
			}
			md.Imports = append(md.Imports, imp)
		}
	}
	return md
}

// splitDirective returns the leading directive keyword of a line and the rest.
// Lines that are not directives return an empty keyword.
func splitDirective(line string) (string, string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "#{") {
		return "", ""
	}
	end := strings.IndexAny(trimmed, " \t")
	if end < 0 {
		return trimmed, ""
	}
	return trimmed[:end], strings.TrimSpace(trimmed[end:])
}

func parseImport(rest string) (Import, error) {
	rest = stripLineComment(rest)
	var imp Import

	if head, alias, ok := cutLast(rest, " as "); ok {
		imp.Alias = strings.TrimSpace(alias)
		rest = strings.TrimSpace(head)
	}

	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			return Import{}, fmt.Errorf("unterminated quoted import %s", rest)
		}
		imp.Path = rest[:end+2]
		rest = rest[end+2:]
	} else {
		end := strings.IndexFunc(rest, func(r rune) bool {
			return r == '{' || r == ' ' || r == '\t'
		})
		if end < 0 {
			end = len(rest)
		}
		imp.Path = strings.TrimSuffix(rest[:end], "::")
		rest = rest[end:]
	}

	if imp.Path == "" || imp.Path == `""` {
		return Import{}, errEmptyImport
	}

	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "::"))
	if strings.HasPrefix(rest, "{") {
		inner := strings.TrimSuffix(strings.TrimPrefix(rest, "{"), "}")
		for _, item := range strings.Split(inner, ",") {
			if item = strings.TrimSpace(item); item != "" {
				imp.Items = append(imp.Items, item)
			}
		}
	}

	return imp, nil
}

func stripLineComment(s string) string {
	if idx := strings.Index(s, "//"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func cutLast(s, sep string) (string, string, bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}
