// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	goruntime "runtime"
	"sort"
	"strings"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	for _, typ := range []Type{TypeNative, TypeVirtual} {
		rt, err := reg.Get(typ)
		if err != nil {
			t.Errorf("Get(%q) error = %v", typ, err)
			continue
		}
		if rt.Name() != string(typ) {
			t.Errorf("Get(%q).Name() = %q", typ, rt.Name())
		}
	}

	if _, err := reg.Get("container"); err == nil {
		t.Error("Get() of unregistered runtime did not fail")
	}
}

func TestRegistryExecuteUnknownRuntime(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	result := reg.Execute("container", NewExecutionContext("true"))
	if result.Error == nil {
		t.Fatal("Execute() with unknown runtime succeeded")
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

// stubRuntime is a registry entry that reports itself unavailable.
type stubRuntime struct{}

func (stubRuntime) Name() string                      { return "stub" }
func (stubRuntime) Available() bool                   { return false }
func (stubRuntime) Validate(*ExecutionContext) error  { return nil }
func (stubRuntime) Execute(*ExecutionContext) *Result { return &Result{} }

func TestRegistryExecuteUnavailableRuntime(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("stub", stubRuntime{})

	result := reg.Execute("stub", NewExecutionContext("true"))
	if !errors.Is(result.Error, ErrRuntimeNotAvailable) {
		t.Errorf("Execute() error = %v, want ErrRuntimeNotAvailable", result.Error)
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

func TestNativeValidateNoShell(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("shell lookup differs on windows")
	}

	// Not parallel: mutates the process environment.
	t.Setenv("SHELL", "")
	t.Setenv("PATH", t.TempDir())

	rt := NewNativeRuntime()
	err := rt.Validate(NewExecutionContext("true"))
	if !errors.Is(err, ErrShellNotFound) {
		t.Errorf("Validate() error = %v, want ErrShellNotFound", err)
	}
}

func TestRegistryExecuteValidates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	result := reg.Execute(TypeVirtual, NewExecutionContext(""))
	if result.Error == nil {
		t.Fatal("Execute() with empty script succeeded")
	}
}

func TestEnvToSlice(t *testing.T) {
	t.Parallel()

	got := EnvToSlice(map[string]string{
		"GIT_DESCRIBE_TAG":    "v2.5",
		"GIT_DESCRIBE_NUMBER": "4",
	})
	sort.Strings(got)

	want := []string{"GIT_DESCRIBE_NUMBER=4", "GIT_DESCRIBE_TAG=v2.5"}
	if len(got) != len(want) {
		t.Fatalf("EnvToSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EnvToSlice()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResultSuccess(t *testing.T) {
	t.Parallel()

	if !(&Result{ExitCode: 0}).Success() {
		t.Error("zero exit code not reported as success")
	}
	if (&Result{ExitCode: 2}).Success() {
		t.Error("nonzero exit code reported as success")
	}
}

func TestVirtualExecuteCapture(t *testing.T) {
	t.Parallel()

	rt := NewVirtualRuntime()

	ctx := NewExecutionContext("echo hello $PKG_NAME")
	ctx.Env["PKG_NAME"] = "microdrop.droplet-planning-plugin"

	result := rt.ExecuteCapture(ctx)
	if !result.Success() {
		t.Fatalf("ExecuteCapture() = %+v, want success", result)
	}
	if want := "hello microdrop.droplet-planning-plugin\n"; result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
}

func TestVirtualExecuteExitCode(t *testing.T) {
	t.Parallel()

	rt := NewVirtualRuntime()
	result := rt.ExecuteCapture(NewExecutionContext("exit 3"))
	if result.Error != nil {
		t.Fatalf("ExecuteCapture() error = %v", result.Error)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
}

func TestVirtualValidateSyntaxError(t *testing.T) {
	t.Parallel()

	rt := NewVirtualRuntime()
	err := rt.Validate(NewExecutionContext("if true; then"))
	if err == nil {
		t.Fatal("Validate() of unterminated if succeeded")
	}
	if !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("Validate() error = %v, want syntax error", err)
	}
}

func TestNativeExecuteCapture(t *testing.T) {
	t.Parallel()

	rt := NewNativeRuntime()
	if !rt.Available() {
		t.Skip("no shell available")
	}

	ctx := NewExecutionContext("echo native-ok")
	result := rt.ExecuteCapture(ctx)
	if !result.Success() {
		t.Fatalf("ExecuteCapture() = %+v, want success", result)
	}
	if !strings.Contains(result.Output, "native-ok") {
		t.Errorf("Output = %q, want it to contain %q", result.Output, "native-ok")
	}
}

func TestNativeShellArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell string
		want  string
	}{
		{shell: "/bin/bash", want: "-c"},
		{shell: "/usr/bin/zsh", want: "-c"},
		{shell: "cmd.exe", want: "/C"},
		{shell: "pwsh", want: "-NoProfile"},
	}

	rt := NewNativeRuntime()
	for _, tt := range tests {
		args := rt.getShellArgs(tt.shell)
		if len(args) == 0 || args[0] != tt.want {
			t.Errorf("getShellArgs(%q) = %v, want first arg %q", tt.shell, args, tt.want)
		}
	}
}
