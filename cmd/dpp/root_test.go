// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/sci-bots/droplet-planning-plugin/internal/config"
	"github.com/sci-bots/droplet-planning-plugin/internal/issue"
	"github.com/sci-bots/droplet-planning-plugin/internal/runtime"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v2.5.0"
		Commit = "abc1234"
		BuildDate = "2026-08-23T10:00:00Z"

		got := getVersionString()
		want := "v2.5.0 (commit: abc1234, built: 2026-08-23T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestResolveRuntime(t *testing.T) {
	// Not parallel: overrides the config directory.
	t.Cleanup(config.Reset)
	config.SetConfigDirOverride(t.TempDir())

	tests := []struct {
		flag    string
		want    runtime.Type
		wantErr bool
	}{
		{flag: "native", want: runtime.TypeNative},
		{flag: "virtual", want: runtime.TypeVirtual},
		{flag: "", want: runtime.TypeNative}, // config default
		{flag: "container", wantErr: true},
	}

	for _, tt := range tests {
		got, err := resolveRuntime(tt.flag)
		if tt.wantErr {
			if err == nil {
				t.Errorf("resolveRuntime(%q) succeeded, want error", tt.flag)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveRuntime(%q) error = %v", tt.flag, err)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveRuntime(%q) = %q, want %q", tt.flag, got, tt.want)
		}
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("formatErrorForDisplay(plain) = %q", got)
	}

	actionable := issue.NewErrorContext().
		WithOperation("load recipe").
		WithResource(".conda-recipe/meta.yaml").
		WithSuggestion("Use --recipe to point at a non-default location").
		Wrap(errors.New("no such file")).
		Build()

	got := formatErrorForDisplay(actionable, false)
	if !strings.Contains(got, "load recipe") {
		t.Errorf("formatted error missing operation: %q", got)
	}
	if !strings.Contains(got, "Use --recipe") {
		t.Errorf("formatted error missing suggestion: %q", got)
	}
}
