// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// OpNone means the entry pins no version (any version satisfies it).
	OpNone ConstraintOperator = ""
	// OpMinimum requires the named version or newer.
	OpMinimum ConstraintOperator = ">="
	// OpExact requires exactly the named version.
	OpExact ConstraintOperator = "=="
)

var (
	// ErrInvalidDependency is the sentinel error wrapped by InvalidDependencyError.
	ErrInvalidDependency = errors.New("invalid dependency entry")
	// ErrInvalidConstraintOperator is the sentinel error wrapped by InvalidConstraintOperatorError.
	ErrInvalidConstraintOperator = errors.New("invalid constraint operator")
)

type (
	// ConstraintOperator is the comparison operator of a dependency entry's
	// version constraint. The zero value (OpNone) means no constraint.
	ConstraintOperator string

	// InvalidConstraintOperatorError is returned when a constraint operator
	// is not one of the supported operators.
	InvalidConstraintOperatorError struct {
		Value ConstraintOperator
	}

	// Dependency is one parsed requirements entry: a package name and an
	// optional version constraint.
	Dependency struct {
		// Name is the dependency's package name.
		Name string
		// Operator compares installed versions against Version.
		Operator ConstraintOperator
		// Version is the constraint's version string; empty iff Operator is OpNone.
		Version string
	}

	// InvalidDependencyError is returned when a requirements entry does not
	// parse into a (name, constraint) pair.
	InvalidDependencyError struct {
		Entry  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConstraintOperatorError) Error() string {
	return fmt.Sprintf("invalid constraint operator %q (supported: >=, ==)", e.Value)
}

// Unwrap returns ErrInvalidConstraintOperator for errors.Is() compatibility.
func (e *InvalidConstraintOperatorError) Unwrap() error { return ErrInvalidConstraintOperator }

// Error implements the error interface.
func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("invalid dependency entry %q: %s", e.Entry, e.Reason)
}

// Unwrap returns ErrInvalidDependency for errors.Is() compatibility.
func (e *InvalidDependencyError) Unwrap() error { return ErrInvalidDependency }

// Validate returns an error if the ConstraintOperator is not supported.
func (o ConstraintOperator) Validate() error {
	switch o {
	case OpNone, OpMinimum, OpExact:
		return nil
	}
	return &InvalidConstraintOperatorError{Value: o}
}

// ParseDependency parses one requirements entry of the form "name",
// "name >=version", or "name ==version" into a Dependency.
func ParseDependency(entry string) (Dependency, error) {
	fields := strings.Fields(entry)
	switch len(fields) {
	case 0:
		return Dependency{}, &InvalidDependencyError{Entry: entry, Reason: "empty entry"}
	case 1:
		return Dependency{Name: fields[0]}, nil
	case 2:
		dep := Dependency{Name: fields[0]}
		constraint := fields[1]
		for _, op := range []ConstraintOperator{OpMinimum, OpExact} {
			if strings.HasPrefix(constraint, string(op)) {
				dep.Operator = op
				dep.Version = constraint[len(op):]
				break
			}
		}
		if dep.Operator == OpNone {
			return Dependency{}, &InvalidDependencyError{
				Entry:  entry,
				Reason: fmt.Sprintf("constraint %q does not start with a supported operator (>=, ==)", constraint),
			}
		}
		if dep.Version == "" {
			return Dependency{}, &InvalidDependencyError{Entry: entry, Reason: "constraint has no version"}
		}
		return dep, nil
	}
	return Dependency{}, &InvalidDependencyError{Entry: entry, Reason: "more than one constraint field"}
}

// ParseDependencies parses an ordered requirements list, preserving order.
func ParseDependencies(entries []string) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(entries))
	for _, entry := range entries {
		dep, err := ParseDependency(entry)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// String renders the Dependency back to its requirements-entry form.
func (d Dependency) String() string {
	if d.Operator == OpNone {
		return d.Name
	}
	return fmt.Sprintf("%s %s%s", d.Name, d.Operator, d.Version)
}
