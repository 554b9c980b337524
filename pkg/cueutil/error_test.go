// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		err := FormatError(nil, "meta.yaml")
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		originalErr := errors.New("some error")
		err := FormatError(originalErr, "meta.yaml")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "meta.yaml") {
			t.Errorf("error should contain filepath, got: %v", err)
		}
		if !strings.Contains(err.Error(), "some error") {
			t.Errorf("error should contain original message, got: %v", err)
		}
	})
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	withPath := &ValidationError{
		FilePath: "meta.yaml",
		CUEPath:  "requirements.build[1]",
		Message:  "value does not match dependency pattern",
	}
	if got := withPath.Error(); !strings.Contains(got, "requirements.build[1]") {
		t.Errorf("Error() = %q, want the CUE path included", got)
	}

	withoutPath := &ValidationError{FilePath: "config.cue", Message: "bad value"}
	if got := withoutPath.Error(); got != "config.cue: bad value" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{
			name:     "empty path",
			path:     []string{},
			expected: "",
		},
		{
			name:     "single element",
			path:     []string{"version"},
			expected: "version",
		},
		{
			name:     "nested path",
			path:     []string{"build", "script"},
			expected: "build.script",
		},
		{
			name:     "array index",
			path:     []string{"requirements", "build", "0"},
			expected: "requirements.build[0]",
		},
		{
			name:     "multiple array indices",
			path:     []string{"test", "commands", "2", "args", "1"},
			expected: "test.commands[2].args[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := formatPath(tt.path)
			if result != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	t.Run("data within limit returns nil", func(t *testing.T) {
		t.Parallel()

		if err := CheckFileSize([]byte("hello world"), 100, "meta.yaml"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("data at exact limit returns nil", func(t *testing.T) {
		t.Parallel()

		if err := CheckFileSize(make([]byte, 100), 100, "meta.yaml"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("data exceeding limit returns error", func(t *testing.T) {
		t.Parallel()

		err := CheckFileSize(make([]byte, 101), 100, "meta.yaml")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "meta.yaml") {
			t.Errorf("error should name the file, got: %v", err)
		}
	})
}
