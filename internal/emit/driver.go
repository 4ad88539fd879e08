// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"bytes"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/format"
	"github.com/nagaoil/nagaoil/internal/issue"
	"github.com/nagaoil/nagaoil/internal/shaderdef"
)

// Driver composes a target with an engine and writes the selected format.
type Driver struct {
	engine compose.Engine
	stdout io.Writer
	logger *log.Logger
}

// NewDriver creates a Driver writing to stdout when no output path is given.
// A nil logger discards log output.
func NewDriver(engine compose.Engine, stdout io.Writer, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Driver{engine: engine, stdout: stdout, logger: logger}
}

// Compose asks the engine to compose the target with the given definitions.
// Engine diagnostics are returned unchanged.
func (d *Driver) Compose(t *Target, defs shaderdef.Set) (*compose.Program, error) {
	d.logger.Debug("composing shader", "path", t.Path, "type", t.ShaderType, "defs", len(defs))
	return d.engine.Compose(compose.EntryDescriptor{
		Source:     t.Source,
		FilePath:   t.Path,
		ShaderType: t.ShaderType,
		Defs:       defs,
	})
}

// Emit validates p, encodes it as f and writes it to output, or to stdout
// when output is empty. Nothing is written unless encoding succeeded.
func (d *Driver) Emit(p *compose.Program, f format.Format, output string) error {
	info, err := d.engine.Validate(p)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("validate shader").
			WithIssue(issue.ValidationFailedId).
			Wrap(err).
			BuildError()
	}
	d.logger.Debug("validated shader", "stage", compose.StageName(info.Stage), "entry_point", info.EntryPoint)

	enc, err := d.engine.Encoder(f)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("select encoder").
			WithResource(f.String()).
			WithIssue(issue.InvalidFormatId).
			Wrap(err).
			BuildError()
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, p, info); err != nil {
		return issue.NewErrorContext().
			WithOperation("generate " + f.String()).
			Wrap(err).
			BuildError()
	}

	if output == "" {
		_, err = d.stdout.Write(buf.Bytes())
	} else {
		err = os.WriteFile(output, buf.Bytes(), 0o644)
	}
	if err != nil {
		dest := output
		if dest == "" {
			dest = "stdout"
		}
		return issue.NewErrorContext().
			WithOperation("write output").
			WithResource(dest).
			WithIssue(issue.OutputWriteFailedId).
			WithSuggestion("Check that the output directory exists and is writable").
			Wrap(err).
			BuildError()
	}

	d.logger.Debug("wrote output", "format", f, "bytes", buf.Len(), "path", output)
	return nil
}
