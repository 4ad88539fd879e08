// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"errors"
	"fmt"
	"os"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/issue"
)

// ErrUnsupportedShader is returned for target shaders with an unknown extension.
var ErrUnsupportedShader = errors.New("unsupported shader type")

type (
	// UnsupportedShaderError names a target whose extension has no shader type.
	UnsupportedShaderError struct {
		Path string
	}

	// Target is the top-level shader being built.
	Target struct {
		Path       string
		Source     string
		ShaderType compose.ShaderType
		// Requirements are the modules the target imports directly.
		Requirements []string
	}
)

func (e *UnsupportedShaderError) Error() string {
	return fmt.Sprintf("unsupported shader type for %s: expected .wgsl, .vert or .frag", e.Path)
}

// Unwrap returns ErrUnsupportedShader for errors.Is.
func (e *UnsupportedShaderError) Unwrap() error { return ErrUnsupportedShader }

// ShaderTypeFor derives the shader type of a target from its extension.
func ShaderTypeFor(path string) (compose.ShaderType, error) {
	t, ok := compose.ShaderTypeFromPath(path)
	if !ok {
		return 0, &UnsupportedShaderError{Path: path}
	}
	return t, nil
}

// LoadTarget classifies and reads the target shader. The extension is checked
// before the file is read.
func LoadTarget(path string) (*Target, error) {
	shaderType, err := ShaderTypeFor(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("classify shader").
			WithResource(path).
			WithIssue(issue.UnsupportedShaderId).
			WithSuggestion("Use a .wgsl, .vert or .frag file").
			Wrap(err).
			BuildError()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read shader").
			WithResource(path).
			WithIssue(issue.ShaderReadFailedId).
			WithSuggestion("Check that the file exists and is readable").
			Wrap(err).
			BuildError()
	}

	source := string(data)
	return &Target{
		Path:         path,
		Source:       source,
		ShaderType:   shaderType,
		Requirements: compose.ScanMetadata(source).Requirements(),
	}, nil
}
