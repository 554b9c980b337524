// SPDX-License-Identifier: MPL-2.0

// Package build orchestrates the packaging lifecycle: resolve version-control
// describe output, render and parse the recipe, run its build script, and run
// its post-build test commands. Scripts execute through the runtime registry
// with the recipe's template variables exported into their environment.
package build
