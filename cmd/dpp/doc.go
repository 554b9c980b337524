// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dpp.
//
// This package implements the Cobra command hierarchy for the dpp CLI,
// including the root command, subcommands for recipe inspection, package
// building and testing, the hub server, and route management.
package cmd
