// SPDX-License-Identifier: MPL-2.0

// Package discovery finds shader modules under a set of search roots.
//
// Search roots come from --include arguments (see ExpandSearchPaths). Each root
// is either a module file or a directory that is walked recursively. Files are
// classified by extension (.wgsl, .vert, .frag); anything else is skipped. For
// each module the declared name and the import list are extracted without a
// full parse and the module is registered in a Registry under its declared
// name, or under its quoted path relative to the search root when it has none.
//
// Non-fatal findings (duplicate names) are returned as Diagnostic values so the
// CLI decides how to render them.
package discovery
