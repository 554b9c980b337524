// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTrailLength is the default number of electrodes kept actuated
	// behind the head of a moving droplet.
	DefaultTrailLength = 1
	// DefaultRouteRepeats is the default number of times routes are executed
	// per protocol step.
	DefaultRouteRepeats = 1
	// DefaultTransitionDuration is the default duration of one transition.
	DefaultTransitionDuration = 750 * time.Millisecond
)

// ErrInvalidStepOptions is the sentinel error wrapped by InvalidStepOptionsError.
var ErrInvalidStepOptions = errors.New("invalid step options")

type (
	// StepOptions are the per-step execution knobs for droplet routes.
	// The zero value is not usable directly; call Normalize first.
	StepOptions struct {
		// TrailLength is how many consecutive electrodes stay actuated as the
		// droplet moves. Minimum 1.
		TrailLength int `json:"trail_length"`
		// RouteRepeats is how many times all routes are executed. Minimum 1.
		RouteRepeats int `json:"route_repeats"`
		// RepeatDuration keeps repeating routes until this much time has
		// elapsed, even past RouteRepeats. Zero disables duration-based
		// repetition.
		RepeatDuration time.Duration `json:"repeat_duration"`
		// TransitionDuration is how long each transition lasts. Minimum 0
		// (execute as fast as the hub round-trips allow).
		TransitionDuration time.Duration `json:"transition_duration"`
	}

	// InvalidStepOptionsError is returned when a StepOptions field is below
	// its minimum.
	InvalidStepOptionsError struct {
		Field  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidStepOptionsError) Error() string {
	return fmt.Sprintf("invalid step options: %s %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidStepOptions for errors.Is() compatibility.
func (e *InvalidStepOptionsError) Unwrap() error { return ErrInvalidStepOptions }

// DefaultStepOptions returns StepOptions with every field at its default.
func DefaultStepOptions() StepOptions {
	return StepOptions{
		TrailLength:        DefaultTrailLength,
		RouteRepeats:       DefaultRouteRepeats,
		RepeatDuration:     0,
		TransitionDuration: DefaultTransitionDuration,
	}
}

// Normalize fills zero-valued fields with defaults and validates the result.
func (o StepOptions) Normalize() (StepOptions, error) {
	if o.TrailLength == 0 {
		o.TrailLength = DefaultTrailLength
	}
	if o.RouteRepeats == 0 {
		o.RouteRepeats = DefaultRouteRepeats
	}
	if o.TransitionDuration == 0 {
		o.TransitionDuration = DefaultTransitionDuration
	}

	if err := o.Validate(); err != nil {
		return StepOptions{}, err
	}
	return o, nil
}

// Validate checks every field against its minimum.
func (o StepOptions) Validate() error {
	if o.TrailLength < 1 {
		return &InvalidStepOptionsError{Field: "trail_length", Reason: "must be at least 1"}
	}
	if o.RouteRepeats < 1 {
		return &InvalidStepOptionsError{Field: "route_repeats", Reason: "must be at least 1"}
	}
	if o.RepeatDuration < 0 {
		return &InvalidStepOptionsError{Field: "repeat_duration", Reason: "must not be negative"}
	}
	if o.TransitionDuration < 0 {
		return &InvalidStepOptionsError{Field: "transition_duration", Reason: "must not be negative"}
	}
	return nil
}
