// SPDX-License-Identifier: MPL-2.0

package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sci-bots/droplet-planning-plugin/internal/routes"
)

// Command constants for the droplet routing protocol.
const (
	// CommandAddRoute appends a route to the step's route table.
	CommandAddRoute Command = "add_route"
	// CommandGetRoutes returns the step's route table.
	CommandGetRoutes Command = "get_routes"
	// CommandClearRoutes removes routes, optionally only those through one
	// electrode.
	CommandClearRoutes Command = "clear_routes"
	// CommandExecuteRoutes runs the route table in lock-step.
	CommandExecuteRoutes Command = "execute_routes"

	// NotifyElectrodeStates is the server-initiated notification carrying an
	// electrode state vector during execute_routes.
	NotifyElectrodeStates Command = "set_electrode_states"
)

// ErrInvalidCommand is returned when a Command value is not one of the
// defined commands.
var ErrInvalidCommand = errors.New("invalid command")

type (
	// Command identifies a protocol operation.
	Command string

	// InvalidCommandError is returned when a Command value is not recognized.
	// It wraps ErrInvalidCommand for errors.Is() compatibility.
	InvalidCommandError struct {
		Value Command
	}

	// Request is the common wrapper for all client requests.
	Request struct {
		// Command is the operation to perform.
		Command Command `json:"command"`
		// Data contains command-specific options as raw JSON.
		Data json.RawMessage `json:"data,omitempty"`
	}

	// Response is the common wrapper for all server messages: replies to
	// requests and, for NotifyElectrodeStates, unsolicited notifications.
	Response struct {
		// Command echoes the request command, or names the notification.
		Command Command `json:"command"`
		// Result contains the command-specific result as raw JSON.
		Result json.RawMessage `json:"result,omitempty"`
		// Error contains an error message if the request failed.
		Error string `json:"error,omitempty"`
	}

	// AddRouteRequest contains options for add_route.
	AddRouteRequest struct {
		// Electrodes is the route's electrode sequence, in drop order.
		Electrodes []string `json:"drop_route"`
	}

	// AddRouteResult contains the result of add_route.
	AddRouteResult struct {
		Route int `json:"route_i"`
	}

	// GetRoutesResult contains the result of get_routes.
	GetRoutesResult struct {
		Transitions []routes.Transition `json:"transitions"`
	}

	// ClearRoutesRequest contains options for clear_routes. An empty
	// electrode identifier clears the whole table.
	ClearRoutesRequest struct {
		Electrode string `json:"electrode_id,omitempty"`
	}

	// ClearRoutesResult contains the result of clear_routes.
	ClearRoutesResult struct {
		// Remaining is the number of transitions left in the table.
		Remaining int `json:"remaining"`
	}

	// ExecuteRoutesRequest contains options for execute_routes. Zero-valued
	// fields take the step defaults. Route and Electrode narrow execution to
	// a subset of the table; both unset means all routes.
	ExecuteRoutesRequest struct {
		TrailLength        int     `json:"trail_length,omitempty"`
		RouteRepeats       int     `json:"route_repeats,omitempty"`
		RepeatDurationS    float64 `json:"repeat_duration_s,omitempty"`
		TransitionDuration int     `json:"transition_duration_ms,omitempty"`

		// Route executes only the route with this index.
		Route *int `json:"route_i,omitempty"`
		// Electrode executes only the routes passing through this electrode.
		Electrode string `json:"electrode_id,omitempty"`
	}

	// ExecuteRoutesResult contains the result of execute_routes.
	ExecuteRoutesResult struct {
		Repeats     int   `json:"repeats"`
		Transitions int   `json:"transitions"`
		ElapsedMs   int64 `json:"elapsed_ms"`
	}

	// ElectrodeStates is the payload of a NotifyElectrodeStates notification.
	ElectrodeStates struct {
		// States maps electrode identifiers to actuated (true) or
		// released (false).
		States map[string]bool `json:"electrode_states"`
	}
)

// Error implements the error interface.
func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %q", e.Value)
}

// Unwrap returns ErrInvalidCommand for errors.Is() compatibility.
func (e *InvalidCommandError) Unwrap() error { return ErrInvalidCommand }

// IsValid returns whether the Command is one of the request commands, and a
// list of validation errors if it is not.
func (c Command) IsValid() (bool, []error) {
	switch c {
	case CommandAddRoute, CommandGetRoutes, CommandClearRoutes, CommandExecuteRoutes:
		return true, nil
	default:
		return false, []error{&InvalidCommandError{Value: c}}
	}
}

// Options converts the wire-level execute options to step options.
func (r ExecuteRoutesRequest) Options() routes.StepOptions {
	return routes.StepOptions{
		TrailLength:        r.TrailLength,
		RouteRepeats:       r.RouteRepeats,
		RepeatDuration:     time.Duration(r.RepeatDurationS * float64(time.Second)),
		TransitionDuration: time.Duration(r.TransitionDuration) * time.Millisecond,
	}
}

// ParseRequest decodes and validates one request frame.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if valid, errs := req.Command.IsValid(); !valid {
		return nil, errs[0]
	}
	return &req, nil
}

// ParseResponse decodes one response frame.
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Command == "" {
		return nil, fmt.Errorf("parse response: missing command field")
	}
	return &resp, nil
}
