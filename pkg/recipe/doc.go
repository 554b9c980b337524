// SPDX-License-Identifier: MPL-2.0

// Package recipe models the plugin's packaging recipe: a declarative
// build/distribution manifest read once per release by the packaging tool.
//
// A recipe starts life as a template ({{ }} expressions and {% %} conditional
// blocks over the GIT_DESCRIBE_TAG, GIT_DESCRIBE_NUMBER, and PKG_NAME
// variables), is rendered exactly once at build time, and the rendered YAML
// is then parsed, schema-checked, and semantically validated. After rendering
// the manifest is immutable; nothing in this package mutates a parsed Recipe.
//
// The version-derivation rule (DeriveVersion) and the build/run requirements
// mirror invariant are the load-bearing parts; everything else is shape.
package recipe
