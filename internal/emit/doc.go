// SPDX-License-Identifier: MPL-2.0

// Package emit drives a composition engine from a target shader to the bytes
// of the selected output format.
package emit
