// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingImport is returned when a required module is not in the registry.
	ErrMissingImport = errors.New("required import not found")
	// ErrCircularDependency is returned when the pending requirements stop shrinking.
	ErrCircularDependency = errors.New("circular dependency")
)

type (
	// MissingImportError names the module no search root provides.
	MissingImportError struct {
		Name string
	}

	// CircularDependencyError reports the stuck requirement set, sorted.
	CircularDependencyError struct {
		Pending []string
	}

	// AddModuleError wraps an engine failure while adding a module.
	AddModuleError struct {
		Name string
		Err  error
	}
)

func (e *MissingImportError) Error() string {
	return fmt.Sprintf("required import %s not found", e.Name)
}

// Unwrap returns ErrMissingImport for errors.Is.
func (e *MissingImportError) Unwrap() error { return ErrMissingImport }

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency between modules: {%s}", strings.Join(e.Pending, ", "))
}

// Unwrap returns ErrCircularDependency for errors.Is.
func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

func (e *AddModuleError) Error() string {
	return fmt.Sprintf("failed to add module %s: %v", e.Name, e.Err)
}

func (e *AddModuleError) Unwrap() error { return e.Err }
