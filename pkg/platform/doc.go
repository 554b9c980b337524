// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility constants.
//
// It centralizes the runtime.GOOS string literals used when selecting
// platform-specific behavior, such as config directory conventions and
// shell lookup order.
package platform
