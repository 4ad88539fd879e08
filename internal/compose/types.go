// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gogpu/naga/ir"

	"github.com/nagaoil/nagaoil/internal/format"
	"github.com/nagaoil/nagaoil/internal/shaderdef"
)

const (
	// LanguageWGSL is the native module language.
	LanguageWGSL Language = iota + 1
	// LanguageGLSL is the OpenGL shading language.
	LanguageGLSL
)

const (
	// ShaderTypeWGSL is a WGSL shader; its stages come from its entry point attributes.
	ShaderTypeWGSL ShaderType = iota + 1
	// ShaderTypeGLSLVertex is a GLSL vertex shader (.vert).
	ShaderTypeGLSLVertex
	// ShaderTypeGLSLFragment is a GLSL fragment shader (.frag).
	ShaderTypeGLSLFragment
)

type (
	// Language is the source language of a module.
	Language int

	// ShaderType is the language plus stage flavour of an entry shader.
	ShaderType int

	// ModuleDescriptor describes a module handed to AddModule.
	ModuleDescriptor struct {
		// Name is the registry name the module is importable as.
		Name string
		// Source is the raw module text including directives.
		Source string
		// FilePath is used in diagnostics.
		FilePath string
		// Language selects the front end.
		Language Language
	}

	// EntryDescriptor describes the target shader handed to Compose.
	EntryDescriptor struct {
		Source     string
		FilePath   string
		ShaderType ShaderType
		Defs       shaderdef.Set
	}

	// Program is a composed shader.
	Program struct {
		// Source is the flattened, preprocessed shader text.
		Source string
		// Module is the lowered intermediate representation.
		Module *ir.Module
		// Modules lists the imported modules merged into Source, in merge order.
		Modules []string
	}

	// Info is the analysis produced by validation.
	Info struct {
		Stage      ir.ShaderStage
		EntryPoint string
	}

	// ModuleSet tracks which modules the engine already holds.
	ModuleSet interface {
		ContainsModule(name string) bool
		AddModule(desc ModuleDescriptor) error
	}

	// Composer merges an entry shader with previously added modules.
	Composer interface {
		ModuleSet
		Compose(desc EntryDescriptor) (*Program, error)
	}

	// Validator checks a composed program.
	Validator interface {
		Validate(p *Program) (*Info, error)
	}

	// Encoder writes a validated program in one output format.
	Encoder interface {
		Encode(w io.Writer, p *Program, info *Info) error
	}

	// Engine is the full composition, validation and backend capability set.
	Engine interface {
		Composer
		Validator
		Encoder(f format.Format) (Encoder, error)
	}
)

// String returns the language name.
func (l Language) String() string {
	switch l {
	case LanguageWGSL:
		return "wgsl"
	case LanguageGLSL:
		return "glsl"
	default:
		return "unknown"
	}
}

// String returns the shader type name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeWGSL:
		return "wgsl"
	case ShaderTypeGLSLVertex:
		return "glsl-vertex"
	case ShaderTypeGLSLFragment:
		return "glsl-fragment"
	default:
		return "unknown"
	}
}

// Language returns the source language of the shader type.
func (t ShaderType) Language() Language {
	switch t {
	case ShaderTypeWGSL:
		return LanguageWGSL
	case ShaderTypeGLSLVertex, ShaderTypeGLSLFragment:
		return LanguageGLSL
	default:
		return 0
	}
}

// ShaderTypeFromPath classifies a file by extension (case-insensitive).
func ShaderTypeFromPath(path string) (ShaderType, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "wgsl":
		return ShaderTypeWGSL, true
	case "vert":
		return ShaderTypeGLSLVertex, true
	case "frag":
		return ShaderTypeGLSLFragment, true
	default:
		return 0, false
	}
}

// LanguageFromPath returns the source language of a module file.
func LanguageFromPath(path string) (Language, bool) {
	t, ok := ShaderTypeFromPath(path)
	if !ok {
		return 0, false
	}
	return t.Language(), true
}
