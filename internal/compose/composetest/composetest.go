// SPDX-License-Identifier: MPL-2.0

// Package composetest provides an in-memory compose.Engine for tests.
package composetest

import (
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/naga/ir"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/format"
)

// ErrDuplicateModule is returned when a module name is added twice.
var ErrDuplicateModule = errors.New("module already added")

type (
	// Engine records module additions and returns canned results.
	// The zero value is not usable; call New.
	Engine struct {
		modules map[string]compose.ModuleDescriptor

		// Added lists module names in the order they were added.
		Added []string
		// OutOfOrder lists modules added before one of their imports was present.
		OutOfOrder []string
		// Entries records every Compose call.
		Entries []compose.EntryDescriptor

		// AddErr, when set, is returned by AddModule for the named modules.
		AddErr map[string]error
		// ComposeErr, when set, is returned by Compose.
		ComposeErr error
		// ValidateErr, when set, is returned by Validate.
		ValidateErr error
		// EncodeErr, when set, is returned by every encoder.
		EncodeErr error
		// Info is returned by Validate.
		Info compose.Info
	}

	// textEncoder writes "<format>\n<source>".
	textEncoder struct {
		f   format.Format
		err error
	}
)

// New creates an empty Engine whose modules already contain preset.
func New(preset ...string) *Engine {
	e := &Engine{
		modules: make(map[string]compose.ModuleDescriptor),
		Info:    compose.Info{Stage: ir.StageFragment, EntryPoint: "main"},
	}
	for _, name := range preset {
		e.modules[name] = compose.ModuleDescriptor{Name: name}
	}
	return e
}

// ContainsModule reports whether name was preset or added.
func (e *Engine) ContainsModule(name string) bool {
	_, ok := e.modules[name]
	return ok
}

// AddModule stores desc and checks that its imports are already present.
func (e *Engine) AddModule(desc compose.ModuleDescriptor) error {
	if err := e.AddErr[desc.Name]; err != nil {
		return err
	}
	if e.ContainsModule(desc.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, desc.Name)
	}
	for _, req := range compose.ScanMetadata(desc.Source).Requirements() {
		if !e.ContainsModule(req) {
			e.OutOfOrder = append(e.OutOfOrder, desc.Name)
			break
		}
	}
	e.modules[desc.Name] = desc
	e.Added = append(e.Added, desc.Name)
	return nil
}

// Compose returns the entry source unchanged.
func (e *Engine) Compose(desc compose.EntryDescriptor) (*compose.Program, error) {
	e.Entries = append(e.Entries, desc)
	if e.ComposeErr != nil {
		return nil, e.ComposeErr
	}
	return &compose.Program{
		Source:  desc.Source,
		Module:  &ir.Module{},
		Modules: append([]string(nil), e.Added...),
	}, nil
}

// Validate returns e.Info or e.ValidateErr.
func (e *Engine) Validate(*compose.Program) (*compose.Info, error) {
	if e.ValidateErr != nil {
		return nil, e.ValidateErr
	}
	info := e.Info
	return &info, nil
}

// Encoder returns an encoder that writes the format name and the program source.
func (e *Engine) Encoder(f format.Format) (compose.Encoder, error) {
	if f == format.Unset {
		return nil, format.ErrInvalidFormat
	}
	return textEncoder{f: f, err: e.EncodeErr}, nil
}

func (t textEncoder) Encode(w io.Writer, p *compose.Program, _ *compose.Info) error {
	if t.err != nil {
		return t.err
	}
	_, err := fmt.Fprintf(w, "%s\n%s", t.f, p.Source)
	return err
}
