// SPDX-License-Identifier: MPL-2.0

// Package runtime provides the script execution runtime interface and
// implementations. Recipe build scripts and import tests run through a
// Runtime, either the system shell (native) or the built-in POSIX
// interpreter (virtual).
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

// Runtime type constants for the supported execution environments.
const (
	TypeNative  Type = "native"
	TypeVirtual Type = "virtual"
)

var (
	// ErrRuntimeNotAvailable is returned when the selected runtime cannot run
	// on the current system.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
	// ErrShellNotFound is returned when the native runtime cannot locate a
	// usable shell.
	ErrShellNotFound = errors.New("no suitable shell found")
)

type (
	// Type identifies a runtime implementation.
	Type string

	// ExecutionContext contains everything needed to execute a script.
	ExecutionContext struct {
		// Script is the shell script to execute.
		Script string
		// Context is the Go context for cancellation.
		Context context.Context
		// WorkDir is the working directory for the script.
		WorkDir string
		// Env contains environment variables set on top of the inherited
		// process environment.
		Env map[string]string
		// Stdout is where to write standard output.
		Stdout io.Writer
		// Stderr is where to write standard error.
		Stderr io.Writer
		// Stdin is where to read standard input.
		Stdin io.Reader
	}

	// Result contains the result of a script execution.
	Result struct {
		// ExitCode is the exit code of the script.
		ExitCode types.ExitCode
		// Error contains any error that occurred outside the script itself.
		Error error
		// Output contains captured stdout (if captured).
		Output string
		// ErrOutput contains captured stderr (if captured).
		ErrOutput string
	}

	// Runtime defines the interface for script execution.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Execute runs a script in this runtime.
		Execute(ctx *ExecutionContext) *Result
		// Available returns whether this runtime is usable on the current system.
		Available() bool
		// Validate checks if a script can be executed with this runtime.
		Validate(ctx *ExecutionContext) error
	}

	// CapturingRuntime is implemented by runtimes that support capturing output.
	CapturingRuntime interface {
		// ExecuteCapture runs a script and captures stdout/stderr.
		ExecuteCapture(ctx *ExecutionContext) *Result
	}

	// Registry holds all available runtimes.
	Registry struct {
		runtimes map[Type]Runtime
	}
)

// NewExecutionContext creates an execution context with defaults wired to the
// process's standard streams.
func NewExecutionContext(script string) *ExecutionContext {
	return &ExecutionContext{
		Script:  script,
		Context: context.Background(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
		Env:     make(map[string]string),
	}
}

// Success returns true if the script executed successfully.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// NewRegistry creates a registry with the default runtimes registered.
func NewRegistry() *Registry {
	r := &Registry{runtimes: make(map[Type]Runtime)}
	r.Register(TypeNative, NewNativeRuntime())
	r.Register(TypeVirtual, NewVirtualRuntime())
	return r
}

// Register adds a runtime to the registry.
func (r *Registry) Register(typ Type, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type.
func (r *Registry) Get(typ Type) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered", typ)
	}
	return rt, nil
}

// Available returns the types of all usable runtimes.
func (r *Registry) Available() []Type {
	var types []Type
	for typ, rt := range r.runtimes {
		if rt.Available() {
			types = append(types, typ)
		}
	}
	return types
}

// Execute runs a script using the named runtime.
func (r *Registry) Execute(typ Type, ctx *ExecutionContext) *Result {
	rt, err := r.Get(typ)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	// Validate first: it reports the specific reason (missing shell, bad
	// script) where Available can only say yes or no.
	if err := rt.Validate(ctx); err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	if !rt.Available() {
		return &Result{
			ExitCode: 1,
			Error:    fmt.Errorf("runtime '%s' is not available on this system: %w", rt.Name(), ErrRuntimeNotAvailable),
		}
	}

	return rt.Execute(ctx)
}

// EnvToSlice converts a map of environment variables to KEY=VALUE form.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}
