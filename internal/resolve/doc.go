// SPDX-License-Identifier: MPL-2.0

// Package resolve feeds the modules a shader imports into the composition
// engine so that every module is added only after its own imports.
//
// Module requirements are only known once a module is looked up, so the
// resolver runs rounds over the set of pending names instead of sorting the
// whole registry up front. A round that adds nothing while names are still
// pending means the remaining names import each other.
package resolve
