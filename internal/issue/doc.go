// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// This package defines error types that include remediation steps and a catalog
// of known failure modes rendered as Markdown help pages, improving the user
// experience when errors occur during CLI operations.
package issue
