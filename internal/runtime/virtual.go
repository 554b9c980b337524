// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

// VirtualRuntime executes scripts with the built-in POSIX shell interpreter.
// It needs no shell installed, which makes recipe test commands portable to
// hosts where the system shell is unknown.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string {
	return "virtual"
}

// Available returns true; the virtual runtime is built in.
func (r *VirtualRuntime) Available() bool {
	return true
}

// Validate checks the script parses as POSIX shell.
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if ctx.Script == "" {
		return fmt.Errorf("script has no content to execute")
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(ctx.Script), "script"); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}
	return nil
}

// Execute runs a script in the interpreter with the context's stdio.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, ctx.Stdout, ctx.Stderr)
}

// ExecuteCapture runs a script and captures its output.
func (r *VirtualRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	var stdout, stderr bytes.Buffer
	result := r.run(ctx, &stdout, &stderr)
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func (r *VirtualRuntime) run(ctx *ExecutionContext, stdout, stderr io.Writer) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(ctx.Script), "script")
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to parse script: %w", err)}
	}

	env := append(os.Environ(), EnvToSlice(ctx.Env)...)

	runner, err := interp.New(
		interp.Dir(ctx.WorkDir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(ctx.Stdin, stdout, stderr),
	)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	if err := runner.Run(execCtx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: types.ExitCode(exitStatus)}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("script execution failed: %w", err)}
	}

	return &Result{ExitCode: 0}
}
