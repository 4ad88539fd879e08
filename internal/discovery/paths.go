// SPDX-License-Identifier: MPL-2.0

package discovery

import "strings"

const (
	// DefaultSearchRoot is used when no include paths are given.
	DefaultSearchRoot = "."

	searchPathSeparator = ";"
)

// ExpandSearchPaths flattens include arguments into search roots. Each argument
// may hold several paths joined with ';'. Order is preserved, duplicates are
// kept and empty segments are dropped. With no arguments the current directory
// is the only root.
func ExpandSearchPaths(args []string) []string {
	if len(args) == 0 {
		return []string{DefaultSearchRoot}
	}

	roots := make([]string, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, searchPathSeparator) {
			if part == "" {
				continue
			}
			roots = append(roots, part)
		}
	}
	return roots
}
