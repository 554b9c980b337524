// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"errors"
	"testing"
	"time"
)

func TestTableAdd(t *testing.T) {
	t.Parallel()

	tbl := &Table{}

	r0, err := tbl.Add([]string{"e1", "e2", "e3"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if r0 != 0 {
		t.Errorf("first route index = %d, want 0", r0)
	}

	r1, err := tbl.Add([]string{"e4", "e5"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if r1 != 1 {
		t.Errorf("second route index = %d, want 1", r1)
	}

	if tbl.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tbl.Len())
	}

	route, err := tbl.Route(0)
	if err != nil {
		t.Fatalf("Route(0) error = %v", err)
	}
	want := []string{"e1", "e2", "e3"}
	for i := range want {
		if route[i] != want[i] {
			t.Errorf("Route(0)[%d] = %q, want %q", i, route[i], want[i])
		}
	}
}

func TestTableAddEmpty(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	if _, err := tbl.Add(nil); !errors.Is(err, ErrEmptyRoute) {
		t.Errorf("Add(nil) error = %v, want ErrEmptyRoute", err)
	}
}

func TestTableClearByElectrode(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	mustAdd(t, tbl, "e1", "e2")
	mustAdd(t, tbl, "e2", "e3")
	mustAdd(t, tbl, "e4", "e5")

	// e2 appears in routes 0 and 1; both go, route 2 stays.
	tbl.Clear("e2")

	idxs := tbl.RouteIndexes()
	if len(idxs) != 1 || idxs[0] != 2 {
		t.Errorf("RouteIndexes() after Clear = %v, want [2]", idxs)
	}
}

func TestTableClearAll(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	mustAdd(t, tbl, "e1", "e2")
	tbl.Clear("")

	if tbl.Len() != 0 {
		t.Errorf("Len() after Clear(\"\") = %d, want 0", tbl.Len())
	}
}

func TestTableSelect(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	mustAdd(t, tbl, "e1", "e2")
	mustAdd(t, tbl, "e3", "e4")

	sel, err := tbl.Select(1)
	if err != nil {
		t.Fatalf("Select(1) error = %v", err)
	}
	if sel.Len() != 2 {
		t.Errorf("selected table Len() = %d, want 2", sel.Len())
	}

	if _, err := tbl.Select(7); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Select(7) error = %v, want ErrRouteNotFound", err)
	}
}

func TestTableCycles(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	mustAdd(t, tbl, "e1", "e2", "e3", "e1") // cycle
	mustAdd(t, tbl, "e4", "e5")             // not a cycle
	mustAdd(t, tbl, "e6")                   // single electrode is not a cycle

	cycles := tbl.Cycles()
	if !cycles[0] {
		t.Error("route 0 not reported as cycle")
	}
	if cycles[1] || cycles[2] {
		t.Errorf("non-cycle routes reported as cycles: %v", cycles)
	}
}

func TestTableElectrodesAndLengths(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	mustAdd(t, tbl, "e1", "e2")
	mustAdd(t, tbl, "e2", "e3", "e4")

	electrodes := tbl.Electrodes()
	if len(electrodes) != 4 {
		t.Errorf("Electrodes() = %v, want 4 distinct", electrodes)
	}

	lengths := tbl.Lengths()
	if lengths[0] != 2 || lengths[1] != 3 {
		t.Errorf("Lengths() = %v, want {0:2 1:3}", lengths)
	}
}

func TestStepOptionsNormalize(t *testing.T) {
	t.Parallel()

	opts, err := StepOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if opts.TrailLength != 1 || opts.RouteRepeats != 1 || opts.TransitionDuration != 750*time.Millisecond {
		t.Errorf("Normalize() defaults = %+v", opts)
	}
}

func TestStepOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts StepOptions
		ok   bool
	}{
		{name: "defaults", opts: DefaultStepOptions(), ok: true},
		{name: "trail below minimum", opts: StepOptions{TrailLength: -1, RouteRepeats: 1}, ok: false},
		{name: "repeats below minimum", opts: StepOptions{TrailLength: 1, RouteRepeats: -2}, ok: false},
		{name: "negative repeat duration", opts: StepOptions{TrailLength: 1, RouteRepeats: 1, RepeatDuration: -time.Second}, ok: false},
		{name: "zero transition duration", opts: StepOptions{TrailLength: 1, RouteRepeats: 1}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate(%+v) error = %v, want ok=%v", tt.opts, err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidStepOptions) {
				t.Errorf("error does not wrap ErrInvalidStepOptions: %v", err)
			}
		})
	}
}

func mustAdd(t *testing.T, tbl *Table, electrodes ...string) int {
	t.Helper()

	route, err := tbl.Add(electrodes)
	if err != nil {
		t.Fatalf("Add(%v) error = %v", electrodes, err)
	}
	return route
}
