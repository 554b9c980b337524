// SPDX-License-Identifier: MPL-2.0

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"github.com/sci-bots/droplet-planning-plugin/internal/routes"
)

type (
	// Client is a connection to a hub server. It is not safe for concurrent
	// use; the protocol is strictly request/response per connection.
	Client struct {
		ws *websocket.Conn
	}

	// StateFunc receives electrode state notifications streamed while
	// execute_routes runs. May be nil to discard them.
	StateFunc func(states map[string]bool)
)

// Dial connects to the hub endpoint at url (e.g. "ws://127.0.0.1:9175/hub").
func Dial(ctx context.Context, url string) (*Client, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub at %s: %w", url, err)
	}
	return &Client{ws: ws}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// AddRoute appends a route and returns its route index.
func (c *Client) AddRoute(ctx context.Context, electrodes []string) (int, error) {
	var result AddRouteResult
	err := c.call(ctx, CommandAddRoute, AddRouteRequest{Electrodes: electrodes}, &result, nil)
	if err != nil {
		return 0, err
	}
	return result.Route, nil
}

// Routes returns the server's route table as a flat transition list.
func (c *Client) Routes(ctx context.Context) ([]routes.Transition, error) {
	var result GetRoutesResult
	if err := c.call(ctx, CommandGetRoutes, nil, &result, nil); err != nil {
		return nil, err
	}
	return result.Transitions, nil
}

// ClearRoutes removes every route through the given electrode; an empty
// identifier clears the whole table. Returns the number of transitions left.
func (c *Client) ClearRoutes(ctx context.Context, electrode string) (int, error) {
	var result ClearRoutesResult
	err := c.call(ctx, CommandClearRoutes, ClearRoutesRequest{Electrode: electrode}, &result, nil)
	if err != nil {
		return 0, err
	}
	return result.Remaining, nil
}

// ExecuteRoutes runs the server's route table, invoking onStates for every
// electrode state notification, and returns the execution summary.
func (c *Client) ExecuteRoutes(ctx context.Context, opts ExecuteRoutesRequest, onStates StateFunc) (*ExecuteRoutesResult, error) {
	var result ExecuteRoutesResult
	if err := c.call(ctx, CommandExecuteRoutes, opts, &result, onStates); err != nil {
		return nil, err
	}
	return &result, nil
}

// responseError reconstructs typed errors the server can only send as text,
// so callers can classify them with errors.Is.
func responseError(msg string) error {
	var route int
	if _, err := fmt.Sscanf(msg, "route %d not found", &route); err == nil {
		return &routes.RouteNotFoundError{Route: route}
	}
	return errors.New(msg)
}

// call sends one request and waits for the matching response, routing any
// interleaved notifications to onStates.
func (c *Client) call(ctx context.Context, command Command, data any, result any, onStates StateFunc) error {
	req := Request{Command: command}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", command, err)
		}
		req.Data = payload
	}

	out, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", command, err)
	}
	if err := c.ws.Write(ctx, websocket.MessageText, out); err != nil {
		return fmt.Errorf("send %s request: %w", command, err)
	}

	for {
		_, frame, err := c.ws.Read(ctx)
		if err != nil {
			return fmt.Errorf("read %s response: %w", command, err)
		}

		resp, err := ParseResponse(frame)
		if err != nil {
			return err
		}

		if resp.Command == NotifyElectrodeStates {
			if onStates != nil {
				var states ElectrodeStates
				if err := json.Unmarshal(resp.Result, &states); err != nil {
					return fmt.Errorf("parse electrode states: %w", err)
				}
				onStates(states.States)
			}
			continue
		}

		if resp.Error != "" {
			return fmt.Errorf("%s: %w", resp.Command, responseError(resp.Error))
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("parse %s result: %w", command, err)
			}
		}
		return nil
	}
}
