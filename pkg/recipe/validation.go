// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"
	"strings"
)

const (
	// SeverityError indicates a validation failure that fails the recipe.
	SeverityError ValidationSeverity = iota
	// SeverityWarning indicates a potential issue that doesn't fail the recipe.
	SeverityWarning
)

type (
	// ValidationSeverity indicates the severity level of a validation error.
	ValidationSeverity int

	// ValidationError represents a single validation issue found in a recipe.
	ValidationError struct {
		// Field is the document path where the issue occurred
		// (e.g., "requirements.run[2]").
		Field string
		// Message is the human-readable error message.
		Message string
		// Severity indicates whether this is an error or warning.
		Severity ValidationSeverity
	}

	// ValidationErrors is a collection of validation errors that implements
	// the error interface, so a single validation pass can report every issue.
	ValidationErrors []ValidationError
)

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("recipe validation failed with %d issue(s):", len(errs)))
	for _, e := range errs {
		sb.WriteString("\n  ")
		if e.Severity == SeverityWarning {
			sb.WriteString("warning: ")
		}
		sb.WriteString(e.Field)
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// HasErrors returns true if the collection contains any error-severity issue.
func (errs ValidationErrors) HasErrors() bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity issues.
func (errs ValidationErrors) Errors() ValidationErrors {
	var result ValidationErrors
	for _, e := range errs {
		if e.Severity == SeverityError {
			result = append(result, e)
		}
	}
	return result
}

// Warnings returns only the warning-severity issues.
func (errs ValidationErrors) Warnings() ValidationErrors {
	var result ValidationErrors
	for _, e := range errs {
		if e.Severity == SeverityWarning {
			result = append(result, e)
		}
	}
	return result
}

// Validate runs the semantic checks the CUE schema cannot express and returns
// every issue found. A nil result means the recipe is clean.
func (r *Recipe) Validate() ValidationErrors {
	var errs ValidationErrors

	if valid, nameErrs := r.Package.Name.IsValid(); !valid {
		for _, err := range nameErrs {
			errs = append(errs, ValidationError{
				Field:    "package.name",
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}

	errs = append(errs, validateRequirementsList("requirements.build", r.Requirements.Build)...)
	errs = append(errs, validateRequirementsList("requirements.run", r.Requirements.Run)...)
	errs = append(errs, r.validateMirror()...)

	for i, cmd := range r.Test.Commands {
		if strings.TrimSpace(cmd) == "" {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("test.commands[%d]", i),
				Message:  "test command is empty",
				Severity: SeverityError,
			})
		}
	}

	if r.About.License == "" {
		errs = append(errs, ValidationError{
			Field:    "about.license",
			Message:  "no license declared",
			Severity: SeverityWarning,
		})
	}

	return errs
}

// validateRequirementsList checks every entry of one requirements phase.
func validateRequirementsList(field string, entries []string) ValidationErrors {
	var errs ValidationErrors
	for i, entry := range entries {
		if _, err := ParseDependency(entry); err != nil {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("%s[%d]", field, i),
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateMirror enforces the invariant that the build and run requirement
// lists mirror each other entry-for-entry. The two phases are declared
// separately on purpose; this recipe keeps their contents identical and a
// divergence means one side was edited without the other.
func (r *Recipe) validateMirror() ValidationErrors {
	build, run := r.Requirements.Build, r.Requirements.Run

	if len(build) != len(run) {
		return ValidationErrors{{
			Field: "requirements",
			Message: fmt.Sprintf("build and run lists must mirror each other: %d build entries vs %d run entries",
				len(build), len(run)),
			Severity: SeverityError,
		}}
	}

	var errs ValidationErrors
	for i := range build {
		if build[i] != run[i] {
			errs = append(errs, ValidationError{
				Field: fmt.Sprintf("requirements.run[%d]", i),
				Message: fmt.Sprintf("entry %q does not mirror build entry %q",
					run[i], build[i]),
				Severity: SeverityError,
			})
		}
	}
	return errs
}
