// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[map[string]any](
//	    schema, data, "#Config",
//	    cueutil.WithFilename("nagaoil.cue"),
//	    cueutil.WithConcrete(false),
//	)
//
// Errors carry the file name and the offending field in JSON-path
// notation, e.g. `nagaoil.cue: defs.LIGHTS: conflicting values`.
package cueutil
