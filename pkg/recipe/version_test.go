// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestDeriveVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tag      string
		distance int
		want     string
	}{
		{name: "tagged release", tag: "v2.5", distance: 0, want: "2.5"},
		{name: "three commits past tag", tag: "v2.5", distance: 3, want: "2.5.post3"},
		{name: "post-release tag stacks suffixes", tag: "v2.5.post4", distance: 1, want: "2.5.post4.post1"},
		{name: "single-digit tag", tag: "v1", distance: 0, want: "1"},
		{name: "unprefixed tag loses leading digit", tag: "2.5", distance: 0, want: ".5"},
		{name: "empty tag", tag: "", distance: 0, want: ""},
		{name: "empty tag with distance", tag: "", distance: 2, want: ".post2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DeriveVersion(tt.tag, tt.distance); got != tt.want {
				t.Errorf("DeriveVersion(%q, %d) = %q, want %q", tt.tag, tt.distance, got, tt.want)
			}
		})
	}
}

func TestDeriveVersionProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		core := rapid.StringMatching(`[0-9]+\.[0-9]+(\.[a-z0-9]+)?`).Draw(t, "core")
		distance := rapid.IntRange(1, 100000).Draw(t, "distance")

		// For any tag v<core> and distance N > 0 the derived version is
		// <core>.post<N>; for N == 0 it is <core> exactly.
		if got, want := DeriveVersion("v"+core, distance), fmt.Sprintf("%s.post%d", core, distance); got != want {
			t.Fatalf("DeriveVersion(v%s, %d) = %q, want %q", core, distance, got, want)
		}
		if got := DeriveVersion("v"+core, 0); got != core {
			t.Fatalf("DeriveVersion(v%s, 0) = %q, want %q", core, got, core)
		}
	})
}

func TestHasTagPrefix(t *testing.T) {
	t.Parallel()

	if !HasTagPrefix("v2.5") {
		t.Error("HasTagPrefix(v2.5) = false, want true")
	}
	if HasTagPrefix("2.5") {
		t.Error("HasTagPrefix(2.5) = true, want false")
	}
	if HasTagPrefix("") {
		t.Error("HasTagPrefix(\"\") = true, want false")
	}
}
