// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The Issue catalog holds a Markdown guide per failure class,
// rendered with glamour by `nagaoil explain`.
package issue
