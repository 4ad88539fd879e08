// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"

	"github.com/nagaoil/nagaoil/internal/format"
)

type (
	wgslEncoder  struct{}
	glslEncoder  struct{}
	spirvEncoder struct{}
	irEncoder    struct{}
)

// Validate runs the naga validator and describes the first entry point.
func (e *NagaEngine) Validate(p *Program) (*Info, error) {
	if p == nil || p.Module == nil {
		return nil, &ValidationError{Message: "no composed module"}
	}

	problems, err := naga.Validate(p.Module)
	if err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}
	if len(problems) > 0 {
		first := problems[0]
		msg := first.Error()
		if len(problems) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(problems)-1)
		}
		return nil, &ValidationError{Message: msg, Cause: first}
	}
	if len(p.Module.EntryPoints) == 0 {
		return nil, &ValidationError{Message: "module has no entry point"}
	}

	ep := p.Module.EntryPoints[0]
	return &Info{Stage: ep.Stage, EntryPoint: ep.Name}, nil
}

// Encoder returns the backend for f.
func (e *NagaEngine) Encoder(f format.Format) (Encoder, error) {
	switch f {
	case format.WGSL:
		return wgslEncoder{}, nil
	case format.GLSL:
		return glslEncoder{}, nil
	case format.SPIRV:
		return spirvEncoder{}, nil
	case format.Naga:
		return irEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", format.ErrInvalidFormat, f)
	}
}

// Encode writes the composed WGSL text.
func (wgslEncoder) Encode(w io.Writer, p *Program, _ *Info) error {
	_, err := io.WriteString(w, p.Source)
	return err
}

// Encode writes GLSL 4.50 for the validated entry point.
func (glslEncoder) Encode(w io.Writer, p *Program, info *Info) error {
	opts := glsl.Options{LangVersion: glsl.Version450}
	if info != nil {
		opts.EntryPoint = info.EntryPoint
	}
	src, _, err := glsl.Compile(p.Module, opts)
	if err != nil {
		return fmt.Errorf("generate glsl: %w", err)
	}
	_, err = io.WriteString(w, src)
	return err
}

// Encode writes SPIR-V as big-endian 32-bit words.
func (spirvEncoder) Encode(w io.Writer, p *Program, _ *Info) error {
	code, err := naga.GenerateSPIRV(p.Module, spirv.DefaultOptions())
	if err != nil {
		return err
	}
	words, err := bigEndianWords(code)
	if err != nil {
		return err
	}
	_, err = w.Write(words)
	return err
}

// Encode writes the IR module as JSON.
func (irEncoder) Encode(w io.Writer, p *Program, _ *Info) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Module); err != nil {
		return fmt.Errorf("serialize ir: %w", err)
	}
	return nil
}

// bigEndianWords re-encodes a little-endian SPIR-V stream word by word.
func bigEndianWords(code []byte) ([]byte, error) {
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("spir-v stream length %d is not a multiple of 4", len(code))
	}
	out := make([]byte, len(code))
	for i := 0; i < len(code); i += 4 {
		binary.BigEndian.PutUint32(out[i:], binary.LittleEndian.Uint32(code[i:]))
	}
	return out, nil
}

// StageName returns the lower-case name of a shader stage.
func StageName(stage ir.ShaderStage) string {
	switch stage {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	case ir.StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("stage(%d)", stage)
	}
}
