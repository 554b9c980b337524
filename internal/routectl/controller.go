// SPDX-License-Identifier: MPL-2.0

package routectl

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sci-bots/droplet-planning-plugin/internal/routes"
	"github.com/sci-bots/droplet-planning-plugin/internal/testutil"
)

type (
	// ElectrodeWriter receives electrode state vectors as routes execute.
	// In production this is the hub connection to the electrode controller
	// plugin; tests supply a recorder.
	ElectrodeWriter interface {
		// SetElectrodeStates actuates (true) or releases (false) the named
		// electrodes. Electrodes absent from the map are left alone.
		SetElectrodeStates(ctx context.Context, states map[string]bool) error
	}

	// Controller executes a route table in lock-step: every route advances by
	// one transition per tick, so droplets on different routes move together.
	Controller struct {
		writer ElectrodeWriter
		clock  testutil.Clock
		log    *log.Logger
	}

	// Option configures a Controller.
	Option func(*Controller)

	// Result summarizes one Execute call.
	Result struct {
		// Repeats is the number of completed passes over the route table.
		Repeats int
		// Transitions is the total number of transition windows applied,
		// summed over all passes.
		Transitions int
		// Elapsed is the wall time between start and completion.
		Elapsed time.Duration
	}

	// pass holds the per-pass execution state derived from the table.
	pass struct {
		table   *routes.Table
		lengths map[int]int
		cycles  map[int]bool
		order   []int
		stop    int
	}
)

// WithClock overrides the controller's time source. Tests use a fake clock to
// drive transitions deterministically.
func WithClock(clock testutil.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger overrides the controller's logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) { c.log = logger }
}

// New creates a Controller writing electrode states to writer.
func New(writer ElectrodeWriter, opts ...Option) *Controller {
	c := &Controller{
		writer: writer,
		clock:  testutil.RealClock{},
		log:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs every route in table to completion, honoring the step
// options' trail length, transition duration, and repeat settings. It blocks
// until all repeats complete, the context is canceled, or the writer fails;
// on either failure every route electrode is released before returning.
func (c *Controller) Execute(ctx context.Context, table *routes.Table, opts routes.StepOptions) (*Result, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	if table.Len() == 0 {
		return &Result{}, nil
	}

	p := newPass(table)
	start := c.clock.Now()
	result := &Result{}

	for {
		transitions, err := c.executePass(ctx, p, opts)
		result.Transitions += transitions
		if err != nil {
			c.releaseAll(p)
			return nil, err
		}
		result.Repeats++

		elapsed := c.clock.Since(start)
		if result.Repeats < opts.RouteRepeats || elapsed < opts.RepeatDuration {
			c.log.Debug("repeating routes", "repeat", result.Repeats, "elapsed", elapsed)
			continue
		}

		result.Elapsed = elapsed
		c.log.Info("completed routes", "repeats", result.Repeats, "elapsed", elapsed)
		return result, nil
	}
}

// newPass derives the per-pass execution state from the table.
func newPass(table *routes.Table) *pass {
	p := &pass{
		table:   table,
		lengths: table.Lengths(),
		cycles:  table.Cycles(),
		order:   table.RouteIndexes(),
	}
	for _, n := range p.lengths {
		if n > p.stop {
			p.stop = n
		}
	}
	return p
}

// executePass walks the table once: one transition window per tick until the
// longest route is exhausted, then releases every route electrode.
func (c *Controller) executePass(ctx context.Context, p *pass, opts routes.StepOptions) (int, error) {
	transitions := 0
	for counter := 0; counter < p.stop; counter++ {
		states, err := c.transitionStates(p, counter, opts.TrailLength)
		if err != nil {
			return transitions, err
		}
		if err := c.writer.SetElectrodeStates(ctx, states); err != nil {
			return transitions, fmt.Errorf("set electrode states: %w", err)
		}
		transitions++

		select {
		case <-ctx.Done():
			return transitions, ctx.Err()
		case <-c.clock.After(opts.TransitionDuration):
		}
	}

	return transitions, c.releaseAll(p)
}

// transitionStates computes the electrode state vector for one tick. The
// trail window [counter-trail+1, counter] follows the droplet head: the
// electrode behind the window is released, the window itself actuated, and
// cycle routes wrap the window past the route's end back to its start.
func (c *Controller) transitionStates(p *pass, counter, trail int) (map[string]bool, error) {
	states := make(map[string]bool)

	for _, route := range p.order {
		length := p.lengths[route]
		if counter >= length+trail-1 {
			// Route (and its trail) fully executed.
			continue
		}

		electrodes, err := p.table.Route(route)
		if err != nil {
			return nil, err
		}

		start := counter
		end := counter + trail - 1

		// Release the electrode the trail just moved off of.
		if start > 0 && start < length {
			states[electrodes[start-1]] = false
		}

		// Actuate the trail window.
		for i := start; i <= end && i < length; i++ {
			states[electrodes[i]] = true
		}

		// Wrap the window for cycle routes.
		if p.cycles[route] && end+1 > length {
			for i := 0; i <= end-length+1 && i < length; i++ {
				states[electrodes[i]] = true
			}
		}
	}

	return states, nil
}

// releaseAll releases every electrode referenced by the table. Called after
// each pass and on abort; uses a background context so cancellation cannot
// leave electrodes actuated.
func (c *Controller) releaseAll(p *pass) error {
	states := make(map[string]bool)
	for _, e := range p.table.Electrodes() {
		states[e] = false
	}
	if len(states) == 0 {
		return nil
	}
	if err := c.writer.SetElectrodeStates(context.Background(), states); err != nil {
		return fmt.Errorf("release electrodes: %w", err)
	}
	return nil
}
