// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComposition is wrapped by every CompositionError.
	ErrComposition = errors.New("composition failed")
	// ErrValidation is returned when a composed program fails validation.
	ErrValidation = errors.New("validation failed")
	// ErrModuleExists is returned when a module name is added twice.
	ErrModuleExists = errors.New("module already added")
	// ErrUnsupportedLanguage is returned for sources the engine has no front end for.
	ErrUnsupportedLanguage = errors.New("unsupported shader language")
)

// CompositionError is a diagnostic about the entry shader or one of its
// modules. Error returns the rendered diagnostic, with the offending source
// line when the location is known.
type CompositionError struct {
	// File is the source file, empty when unknown.
	File string
	// Line and Column are 1-based; zero when unknown.
	Line   int
	Column int
	// Message is the bare diagnostic text.
	Message string
	// Source is the raw text of File, used to print the offending line.
	Source string
	// Cause is the underlying engine error (optional).
	Cause error
}

func (e *CompositionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s", e.Message)

	if e.File == "" {
		return sb.String()
	}
	sb.WriteString("\n  --> ")
	sb.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&sb, ":%d", e.Column)
		}
	}

	lines := strings.Split(e.Source, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return sb.String()
	}
	line := strings.TrimRight(lines[e.Line-1], "\r")
	sb.WriteString("\n   |\n")
	fmt.Fprintf(&sb, "%3d| %s", e.Line, line)
	if e.Column > 0 {
		col := min(e.Column, len(line)+1)
		fmt.Fprintf(&sb, "\n   | %s^", strings.Repeat(" ", col-1))
	}
	return sb.String()
}

// Is matches ErrComposition.
func (e *CompositionError) Is(target error) bool {
	return target == ErrComposition
}

func (e *CompositionError) Unwrap() error { return e.Cause }

// ValidationError reports the first problem the validator found.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// diagnosticAt builds a CompositionError for a line of a source file.
func diagnosticAt(file, source string, line int, format string, args ...any) *CompositionError {
	return &CompositionError{
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
	}
}
