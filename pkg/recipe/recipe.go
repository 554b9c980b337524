// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
var ErrInvalidPackageName = errors.New("invalid package name")

// packageNamePattern matches a dotted namespace plus package identifier,
// e.g. "microdrop.droplet-planning-plugin".
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*(\.[a-z0-9][a-z0-9_-]*)*$`)

type (
	// PackageName is a dotted namespace plus package identifier.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName value does not
	// match the dotted-identifier format.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// Recipe is the parsed package manifest: the declarative document the
	// packaging tool reads to build, test, and publish the plugin package.
	// Field order mirrors the document's top-level key order and is preserved
	// on re-encoding.
	Recipe struct {
		// Source locates the code being packaged, relative to the recipe.
		Source Source `json:"source" yaml:"source"`
		// Package names the artifact and carries its derived version.
		Package Package `json:"package" yaml:"package"`
		// Build tells the packaging tool how to produce the artifact.
		Build Build `json:"build" yaml:"build"`
		// Requirements declares build-time and run-time dependencies.
		Requirements Requirements `json:"requirements" yaml:"requirements"`
		// Test declares the post-build smoke-test commands.
		Test Test `json:"test" yaml:"test"`
		// About carries descriptive metadata.
		About About `json:"about" yaml:"about"`

		// FilePath is the path the recipe was loaded from (not part of the
		// document; set by Load).
		FilePath types.FilesystemPath `json:"-" yaml:"-"`
	}

	// Source locates the packaged code.
	Source struct {
		// GitURL is the repository the packaging tool checks out, usually a
		// relative path to the surrounding checkout.
		GitURL string `json:"git_url,omitempty" yaml:"git_url,omitempty"`
	}

	// Package names and versions the artifact.
	Package struct {
		Name PackageName `json:"name" yaml:"name"`
		// Version is the derived version string (see DeriveVersion).
		Version string `json:"version" yaml:"version"`
	}

	// Build describes how the packaging tool produces the artifact.
	Build struct {
		// Number is the monotonic rebuild counter for an identical version.
		Number int `json:"number" yaml:"number"`
		// Script is the command the packaging tool executes to build.
		Script string `json:"script" yaml:"script"`
	}

	// Requirements declares the two dependency phases. In this recipe the two
	// lists mirror each other entry-for-entry; they stay separate because the
	// phases are semantically distinct, and validation enforces the mirror.
	Requirements struct {
		// Build lists packages required only while building, in order.
		Build []string `json:"build" yaml:"build"`
		// Run lists packages required at install/run time, in order.
		Run []string `json:"run" yaml:"run"`
	}

	// Test declares the post-build validation commands.
	Test struct {
		// Commands run in order after the build; the first non-zero exit fails
		// the package.
		Commands []string `json:"commands" yaml:"commands"`
	}

	// About carries descriptive package metadata.
	About struct {
		Home    string `json:"home,omitempty" yaml:"home,omitempty"`
		License string `json:"license,omitempty" yaml:"license,omitempty"`
	}
)

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be dotted lowercase identifiers", e.Value)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// IsValid returns whether the PackageName matches the dotted-identifier
// format, and a list of validation errors if it does not.
func (n PackageName) IsValid() (bool, []error) {
	if !packageNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidPackageNameError{Value: n}}
	}
	return true, nil
}

// BuildDependencies parses the build-phase requirements list in order.
func (r *Recipe) BuildDependencies() ([]Dependency, error) {
	return ParseDependencies(r.Requirements.Build)
}

// RunDependencies parses the run-phase requirements list in order.
func (r *Recipe) RunDependencies() ([]Dependency, error) {
	return ParseDependencies(r.Requirements.Run)
}

// Encode renders the Recipe back to canonical YAML for the packaging tool.
// The build and run requirement lists are emitted exactly as parsed — the
// duplication between them is intentional and must survive re-encoding.
func (r *Recipe) Encode() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	return out, nil
}
