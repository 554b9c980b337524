// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test infrastructure: a controllable clock
// for deterministic timing tests and scratch-file helpers.
//
// The Clock interface is also used by production code (route execution paces
// itself with it), so this package must stay free of testing-only imports.
package testutil
