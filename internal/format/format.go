// SPDX-License-Identifier: MPL-2.0

// Package format selects the output encoding of a composed shader program.
//
// The selection is made once per run, after composition succeeded: an explicit
// --format value wins, otherwise the output file extension decides, otherwise
// WGSL text is emitted.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// Unset means no format was requested explicitly.
	Unset Format = iota
	// WGSL is native shader text.
	WGSL
	// GLSL is OpenGL shading language text.
	GLSL
	// SPIRV is binary SPIR-V intermediate code.
	SPIRV
	// Naga is the serialized intermediate representation (JSON).
	Naga
)

// ErrInvalidFormat is the sentinel error wrapped by InvalidFormatError.
var ErrInvalidFormat = errors.New("invalid output format")

type (
	// Format is an output encoding.
	Format int

	// InvalidFormatError is returned when a --format value is not recognized.
	InvalidFormatError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (expected one of: wgsl, glsl, naga, spv)", e.Value)
}

// Unwrap returns ErrInvalidFormat for errors.Is compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// String returns the flag spelling of the format.
func (f Format) String() string {
	switch f {
	case WGSL:
		return "wgsl"
	case GLSL:
		return "glsl"
	case SPIRV:
		return "spv"
	case Naga:
		return "naga"
	default:
		return "unset"
	}
}

// IsBinary reports whether the format is written as raw bytes rather than UTF-8 text.
func (f Format) IsBinary() bool {
	return f == SPIRV || f == Naga
}

// Parse converts a --format value. Matching ignores case and surrounding whitespace.
// An empty value yields Unset.
func Parse(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return Unset, nil
	case "wgsl":
		return WGSL, nil
	case "glsl":
		return GLSL, nil
	case "naga":
		return Naga, nil
	case "spv":
		return SPIRV, nil
	default:
		return Unset, &InvalidFormatError{Value: value}
	}
}

// FromExtension maps an output path to a format by its extension.
func FromExtension(path string) (Format, bool) {
	ext := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(filepath.Ext(path), ".")))
	switch ext {
	case "wgsl":
		return WGSL, true
	case "frag", "vert":
		return GLSL, true
	case "json":
		return Naga, true
	case "spv", "bin":
		return SPIRV, true
	default:
		return Unset, false
	}
}

// Select decides the output format: explicit, then the output extension, then WGSL.
func Select(explicit Format, output string) Format {
	if explicit != Unset {
		return explicit
	}
	if output != "" {
		if f, ok := FromExtension(output); ok {
			return f
		}
	}
	return WGSL
}
