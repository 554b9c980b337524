// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

// NativeRuntime executes scripts using the system's default shell.
type NativeRuntime struct {
	// Shell overrides the default shell.
	Shell string
	// ShellArgs are arguments passed to the shell before the script.
	ShellArgs []string
}

// NewNativeRuntime creates a new native runtime.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string {
	return "native"
}

// Available returns whether a usable shell was found.
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Validate checks if a script can be executed.
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	if ctx.Script == "" {
		return fmt.Errorf("script has no content to execute")
	}
	if _, err := r.getShell(); err != nil {
		return err
	}
	return nil
}

// Execute runs a script using the system shell.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	cmd, err := r.prepare(ctx)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr
	cmd.Stdin = ctx.Stdin

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &Result{ExitCode: types.ExitCode(exitErr.ExitCode())}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to execute script: %w", err)}
	}

	return &Result{ExitCode: 0}
}

// ExecuteCapture runs a script and captures its output.
func (r *NativeRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	cmd, err := r.prepare(ctx)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result := &Result{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = types.ExitCode(exitErr.ExitCode())
		} else {
			result.ExitCode = 1
			result.Error = err
		}
	}

	return result
}

// prepare builds the exec.Cmd for the script.
func (r *NativeRuntime) prepare(ctx *ExecutionContext) (*exec.Cmd, error) {
	shell, err := r.getShell()
	if err != nil {
		return nil, err
	}

	args := append(r.getShellArgs(shell), ctx.Script)

	cmd := exec.CommandContext(ctx.Context, shell, args...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = append(os.Environ(), EnvToSlice(ctx.Env)...)
	return cmd, nil
}

// getShell determines which shell to use.
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	switch runtime.GOOS {
	case "windows":
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		if cmd, err := exec.LookPath("cmd"); err == nil {
			return cmd, nil
		}
		return "", ErrShellNotFound
	default:
		if shell := os.Getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
		return "", ErrShellNotFound
	}
}

// getShellArgs returns the arguments to pass to the shell.
func (r *NativeRuntime) getShellArgs(shell string) []string {
	if len(r.ShellArgs) > 0 {
		return r.ShellArgs
	}

	base := filepath.Base(shell)
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		// Assume POSIX shell
		return []string{"-c"}
	}
}
