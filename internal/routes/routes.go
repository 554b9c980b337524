// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyRoute is returned when adding a route with no electrodes.
	ErrEmptyRoute = errors.New("route has no electrodes")
	// ErrRouteNotFound is the sentinel error wrapped by RouteNotFoundError.
	ErrRouteNotFound = errors.New("route not found")
)

type (
	// Transition is one hop of a droplet route: the electrode the droplet
	// occupies at the given position along the route.
	Transition struct {
		// Route is the index of the route this transition belongs to.
		Route int `json:"route"`
		// Index is the transition's position along the route, from 0.
		Index int `json:"index"`
		// Electrode identifies the electrode to actuate.
		Electrode string `json:"electrode"`
	}

	// Table holds every droplet route of the current protocol step as a flat,
	// ordered list of transitions. The zero value is an empty table.
	//
	// Table is not safe for concurrent use; the hub plugin serializes access.
	Table struct {
		transitions []Transition
	}

	// RouteNotFoundError is returned when an operation names a route index
	// the table does not contain.
	RouteNotFoundError struct {
		Route int
	}
)

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("route %d not found", e.Route)
}

// Unwrap returns ErrRouteNotFound for errors.Is() compatibility.
func (e *RouteNotFoundError) Unwrap() error { return ErrRouteNotFound }

// NewTable creates a Table from a flat transition list, e.g. one previously
// serialized by Transitions.
func NewTable(transitions []Transition) *Table {
	t := &Table{}
	t.transitions = append(t.transitions, transitions...)
	return t
}

// Add appends a new route visiting the given electrodes in order and returns
// its route index. Route indexes are dense from 0 in insertion order and are
// not reused within one table after Clear.
func (t *Table) Add(electrodes []string) (int, error) {
	if len(electrodes) == 0 {
		return 0, ErrEmptyRoute
	}

	route := t.nextRoute()
	for i, e := range electrodes {
		t.transitions = append(t.transitions, Transition{Route: route, Index: i, Electrode: e})
	}
	return route, nil
}

// nextRoute returns one past the highest route index in the table.
func (t *Table) nextRoute() int {
	next := 0
	for _, tr := range t.transitions {
		if tr.Route >= next {
			next = tr.Route + 1
		}
	}
	return next
}

// Clear removes every route passing through the given electrode. An empty
// electrode identifier clears the whole table.
func (t *Table) Clear(electrode string) {
	if electrode == "" {
		t.transitions = nil
		return
	}

	doomed := make(map[int]bool)
	for _, tr := range t.transitions {
		if tr.Electrode == electrode {
			doomed[tr.Route] = true
		}
	}

	kept := t.transitions[:0]
	for _, tr := range t.transitions {
		if !doomed[tr.Route] {
			kept = append(kept, tr)
		}
	}
	t.transitions = kept
}

// Transitions returns a copy of the flat transition list, in insertion order.
func (t *Table) Transitions() []Transition {
	out := make([]Transition, len(t.transitions))
	copy(out, t.transitions)
	return out
}

// Len returns the number of transitions in the table.
func (t *Table) Len() int { return len(t.transitions) }

// RouteIndexes returns the sorted route indexes present in the table.
func (t *Table) RouteIndexes() []int {
	seen := make(map[int]bool)
	for _, tr := range t.transitions {
		seen[tr.Route] = true
	}

	idxs := make([]int, 0, len(seen))
	for r := range seen {
		idxs = append(idxs, r)
	}
	sort.Ints(idxs)
	return idxs
}

// Route returns the electrodes of one route in transition order.
func (t *Table) Route(route int) ([]string, error) {
	var electrodes []string
	for _, tr := range t.transitions {
		if tr.Route == route {
			electrodes = append(electrodes, tr.Electrode)
		}
	}
	if electrodes == nil {
		return nil, &RouteNotFoundError{Route: route}
	}
	return electrodes, nil
}

// Select returns a new table containing only the named route.
func (t *Table) Select(route int) (*Table, error) {
	sel := &Table{}
	for _, tr := range t.transitions {
		if tr.Route == route {
			sel.transitions = append(sel.transitions, tr)
		}
	}
	if sel.Len() == 0 {
		return nil, &RouteNotFoundError{Route: route}
	}
	return sel, nil
}

// Electrodes returns the distinct electrodes referenced by any route, in
// first-appearance order.
func (t *Table) Electrodes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tr := range t.transitions {
		if !seen[tr.Electrode] {
			seen[tr.Electrode] = true
			out = append(out, tr.Electrode)
		}
	}
	return out
}

// Lengths returns the number of transitions per route.
func (t *Table) Lengths() map[int]int {
	lengths := make(map[int]int)
	for _, tr := range t.transitions {
		lengths[tr.Route]++
	}
	return lengths
}

// Cycles returns the set of cycle routes: routes whose first and last
// electrode match. Cycle routes wrap their trail window during execution so
// the droplet keeps circulating instead of parking at the end.
func (t *Table) Cycles() map[int]bool {
	first := make(map[int]string)
	last := make(map[int]string)
	count := make(map[int]int)

	for _, tr := range t.transitions {
		if _, ok := first[tr.Route]; !ok {
			first[tr.Route] = tr.Electrode
		}
		last[tr.Route] = tr.Electrode
		count[tr.Route]++
	}

	cycles := make(map[int]bool)
	for r := range first {
		if count[r] > 1 && first[r] == last[r] {
			cycles[r] = true
		}
	}
	return cycles
}
