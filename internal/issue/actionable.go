// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is the user-facing failure of a build step. It names the
	// step that failed, the path or module it was working on, and what the
	// user can do next. A set Issue adds a pointer to `nagaoil explain`.
	//
	// Construct it through ErrorContext:
	//
	//	return issue.NewErrorContext().
	//		WithOperation("read shader").
	//		WithResource(path).
	//		WithIssue(issue.ShaderReadFailedId).
	//		WithSuggestion("Check that the file exists").
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "read shader" or "write output".
		Operation string
		// Resource is the file, include root, or module involved, if any.
		Resource string
		// Issue selects the catalog guide, if any.
		Issue Id
		// Suggestions are printed as bullets under the message.
		Suggestions []string
		// Cause is the wrapped error.
		Cause error
	}

	// ErrorContext accumulates the fields of an ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext returns an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := make([]string, 0, 3)
	parts = append(parts, "failed to "+e.Operation)
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// HasSuggestions reports whether any suggestion was attached.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Format renders the message followed by bulleted hints. Verbose output
// also lists each error of the unwrap chain on its own numbered line.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if hints := e.hints(); len(hints) > 0 {
		b.WriteByte('\n')
		for _, h := range hints {
			b.WriteString("\n  • ")
			b.WriteString(h)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for i, cause := range unwrapChain(e.Cause) {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, cause.Error())
		}
	}

	return b.String()
}

// hints returns the suggestions plus the explain pointer without touching
// the backing array of e.Suggestions.
func (e *ActionableError) hints() []string {
	if !e.Issue.IsValid() {
		return e.Suggestions
	}
	out := make([]string, 0, len(e.Suggestions)+1)
	out = append(out, e.Suggestions...)
	return append(out, fmt.Sprintf("Run 'nagaoil explain %s' for more details", e.Issue))
}

func unwrapChain(err error) []error {
	var chain []error
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, err)
	}
	return chain
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.Issue = id
	return c
}

// WithSuggestion appends one hint; it may be called repeatedly.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns nil unless an operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	ae := c.err
	ae.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &ae
}

// BuildError is Build typed as error, so a missing operation yields a
// true nil interface.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
