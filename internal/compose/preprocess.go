// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/nagaoil/nagaoil/internal/shaderdef"
)

const (
	directiveIfdef  = "#ifdef"
	directiveIfndef = "#ifndef"
	directiveIf     = "#if"
	directiveElse   = "#else"
	directiveEndif  = "#endif"
	directiveDefine = "#define"
)

var (
	conditionPattern    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(==|!=|<=|>=|<|>)\s*(\S+)$`)
	substitutionPattern = regexp.MustCompile(`#\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

type (
	// branch is one open #if block.
	branch struct {
		line         int
		parentActive bool
		active       bool
		taken        bool
		sawElse      bool
	}

	// preprocessed is a source with directives evaluated. Directive and
	// inactive lines are blanked so line numbers match the original text.
	preprocessed struct {
		file    string
		raw     string
		lines   []string
		imports []Import
		// importLines maps an imported path to the line of its first #import.
		importLines map[string]int
	}
)

// preprocess evaluates conditionals, defines and substitutions of one source.
// defs is not modified; #define only affects the rest of this source.
func preprocess(file, source string, defs shaderdef.Set) (*preprocessed, error) {
	defs = maps.Clone(defs)
	if defs == nil {
		defs = make(shaderdef.Set)
	}

	raw := strings.Split(source, "\n")
	out := &preprocessed{
		file:        file,
		raw:         source,
		lines:       make([]string, len(raw)),
		importLines: make(map[string]int),
	}
	var stack []*branch

	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}
	fail := func(lineNo int, format string, args ...any) error {
		return diagnosticAt(file, source, lineNo, format, args...)
	}

	for i, line := range raw {
		lineNo := i + 1
		keyword, rest := splitDirective(line)
		rest = stripLineComment(rest)

		switch keyword {
		case "":
			if !active() {
				continue
			}
			substituted, err := substitute(line, defs)
			if err != nil {
				return nil, fail(lineNo, "%v", err)
			}
			out.lines[i] = substituted

		case directiveIfdef, directiveIfndef, directiveIf:
			parent := active()
			cond := false
			if parent {
				var err error
				if cond, err = evalCondition(keyword, rest, defs); err != nil {
					return nil, fail(lineNo, "%v", err)
				}
			}
			stack = append(stack, &branch{
				line:         lineNo,
				parentActive: parent,
				active:       parent && cond,
				taken:        cond,
			})

		case directiveElse:
			if len(stack) == 0 {
				return nil, fail(lineNo, "#else without matching #if")
			}
			top := stack[len(stack)-1]
			if top.sawElse {
				return nil, fail(lineNo, "#else after final #else")
			}
			cond := true
			if rest != "" {
				elseKeyword, elseRest := splitDirective("#" + rest)
				if elseKeyword != directiveIfdef && elseKeyword != directiveIfndef && elseKeyword != directiveIf {
					return nil, fail(lineNo, "unexpected `%s` after #else", rest)
				}
				if top.parentActive && !top.taken {
					var err error
					if cond, err = evalCondition(elseKeyword, elseRest, defs); err != nil {
						return nil, fail(lineNo, "%v", err)
					}
				}
			} else {
				top.sawElse = true
			}
			top.active = top.parentActive && !top.taken && cond
			top.taken = top.taken || cond

		case directiveEndif:
			if len(stack) == 0 {
				return nil, fail(lineNo, "#endif without matching #if")
			}
			stack = stack[:len(stack)-1]

		case directiveDefine:
			if !active() {
				continue
			}
			name, value, err := parseDefine(rest)
			if err != nil {
				return nil, fail(lineNo, "%v", err)
			}
			defs[name] = value

		case directiveImportPath:
			// Module name only; nothing to emit.

		case directiveImport:
			if !active() {
				continue
			}
			imp, err := parseImport(rest)
			if err != nil {
				return nil, fail(lineNo, "invalid import: %v", err)
			}
			out.imports = append(out.imports, imp)
			if _, seen := out.importLines[imp.Path]; !seen {
				out.importLines[imp.Path] = lineNo
			}

		default:
			if active() {
				return nil, fail(lineNo, "unknown directive `%s`", keyword)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fail(stack[len(stack)-1].line, "missing #endif")
	}
	return out, nil
}

// text returns the preprocessed lines joined.
func (p *preprocessed) text() string {
	return strings.Join(p.lines, "\n")
}

func evalCondition(keyword, rest string, defs shaderdef.Set) (bool, error) {
	switch keyword {
	case directiveIfdef, directiveIfndef:
		name := strings.TrimSpace(rest)
		if name == "" {
			return false, fmt.Errorf("%s requires a definition name", keyword)
		}
		_, defined := defs[name]
		return defined == (keyword == directiveIfdef), nil
	}

	m := conditionPattern.FindStringSubmatch(strings.TrimSpace(rest))
	if m == nil {
		return false, fmt.Errorf("malformed condition `%s`, expected `NAME <op> VALUE`", rest)
	}
	name, op, text := m[1], m[2], m[3]

	have, ok := defs[name]
	if !ok {
		return false, fmt.Errorf("unknown shader definition `%s`", name)
	}
	want, err := shaderdef.ParseValue(text)
	if err != nil {
		return false, err
	}
	return compareValues(name, have, op, want)
}

func compareValues(name string, have shaderdef.Value, op string, want shaderdef.Value) (bool, error) {
	if hb, ok := have.AsBool(); ok {
		wb, ok := want.AsBool()
		if !ok {
			return false, fmt.Errorf("cannot compare boolean `%s` with %s", name, want)
		}
		switch op {
		case "==":
			return hb == wb, nil
		case "!=":
			return hb != wb, nil
		default:
			return false, fmt.Errorf("operator %s is not defined for boolean `%s`", op, name)
		}
	}

	h, ok := numeric(have)
	w, wok := numeric(want)
	if !ok || !wok {
		return false, fmt.Errorf("cannot compare `%s` (%s) with %s", name, have, want)
	}
	switch op {
	case "==":
		return h == w, nil
	case "!=":
		return h != w, nil
	case "<":
		return h < w, nil
	case "<=":
		return h <= w, nil
	case ">":
		return h > w, nil
	default:
		return h >= w, nil
	}
}

func numeric(v shaderdef.Value) (int64, bool) {
	if i, ok := v.AsInt(); ok {
		return int64(i), true
	}
	if u, ok := v.AsUInt(); ok {
		return int64(u), true
	}
	return 0, false
}

func parseDefine(rest string) (string, shaderdef.Value, error) {
	fields := strings.Fields(rest)
	switch len(fields) {
	case 1:
		return fields[0], shaderdef.Bool(true), nil
	case 2:
		v, err := shaderdef.ParseValue(fields[1])
		return fields[0], v, err
	default:
		return "", shaderdef.Value{}, fmt.Errorf("malformed #define `%s`", rest)
	}
}

func substitute(line string, defs shaderdef.Set) (string, error) {
	var missing string
	out := substitutionPattern.ReplaceAllStringFunc(line, func(match string) string {
		name := match[2 : len(match)-1]
		v, ok := defs[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return v.String()
	})
	if missing != "" {
		return "", fmt.Errorf("undefined shader definition `%s` in substitution", missing)
	}
	return out, nil
}
