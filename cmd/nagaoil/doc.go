// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the nagaoil command line.
//
// The root command composes one shader: it reads the target, harvests modules
// from the include roots, resolves the target's imports into a composition
// engine, composes, validates and writes the selected output format. The
// subcommands (modules, graph, config, explain) reuse the same harvesting and
// configuration layers without writing shaders.
//
// Exit status is 0 on success, 1 when composition fails with a diagnostic
// and 2 for every other error.
package cmd
