// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "compose shader"},
			expected: "failed to compose shader",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read shader", Resource: "./main.wgsl"},
			expected: "failed to read shader: ./main.wgsl",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "load config", Cause: errors.New("unexpected token")},
			expected: "failed to load config: unexpected token",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "read include path",
				Resource:  "shaders/",
				Cause:     fs.ErrNotExist,
			},
			expected: "failed to read include path: shaders/: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "write output", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load config"},
			contains: []string{"failed to load config"},
			excludes: []string{"•", "Error chain:"},
		},
		{
			name: "suggestions are bulleted",
			err: &ActionableError{
				Operation:   "read shader",
				Resource:    "main.wgsl",
				Suggestions: []string{"Check the path", "Check file permissions"},
			},
			contains: []string{"failed to read shader: main.wgsl", "• Check the path", "• Check file permissions"},
		},
		{
			name: "issue adds explain hint",
			err: &ActionableError{
				Operation: "resolve imports",
				Issue:     ImportNotFoundId,
			},
			contains: []string{"• Run 'nagaoil explain import-not-found' for more details"},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.Join(errors.New("outer"), errors.New("inner")),
			},
			verbose:  true,
			contains: []string{"Error chain:", "1. outer"},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.New("syntax error"),
			},
			excludes: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q in:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Format() should not contain %q in:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestActionableError_FormatDoesNotMutateSuggestions(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "compose shader",
		Issue:       CompositionFailedId,
		Suggestions: make([]string, 1, 4),
	}
	err.Suggestions[0] = "first"

	_ = err.Format(false)
	_ = err.Format(false)

	if len(err.Suggestions) != 1 {
		t.Errorf("Suggestions = %v, want unchanged", err.Suggestions)
	}
	if err.HasSuggestions() != true {
		t.Error("HasSuggestions() = false, want true")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	ae := NewErrorContext().
		WithOperation("write output").
		WithResource("out.spv").
		WithIssue(OutputWriteFailedId).
		WithSuggestion("Check the directory exists").
		WithSuggestion("Pick another --output").
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "write output" || ae.Resource != "out.spv" {
		t.Errorf("Build() = %+v", ae)
	}
	if ae.Issue != OutputWriteFailedId {
		t.Errorf("Issue = %v, want %v", ae.Issue, OutputWriteFailedId)
	}
	if len(ae.Suggestions) != 2 {
		t.Errorf("Suggestions = %v, want 2 entries", ae.Suggestions)
	}
	if !errors.Is(ae, cause) {
		t.Error("Build() result should wrap the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() = %+v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}
}

func TestActionableError_FormatChain(t *testing.T) {
	t.Parallel()

	inner := errors.New("unexpected token")
	err := NewErrorContext().
		WithOperation("load config").
		Wrap(fmt.Errorf("parse nagaoil.cue: %w", inner)).
		Build()

	got := err.Format(true)
	for _, want := range []string{
		"1. parse nagaoil.cue: unexpected token",
		"2. unexpected token",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Format(true) missing %q in:\n%s", want, got)
		}
	}
}
