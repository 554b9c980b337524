// SPDX-License-Identifier: MPL-2.0

package hub

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sci-bots/droplet-planning-plugin/internal/routes"
)

// startServer brings up a hub server on an ephemeral port and tears it down
// with the test.
func startServer(t *testing.T) *Server {
	t.Helper()

	srv, err := NewServer(0, WithServerLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	srv.Start()
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return srv
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, srv.URL())
	if err != nil {
		t.Fatalf("Dial(%q) error = %v", srv.URL(), err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestServerAddAndGetRoutes(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)
	ctx := context.Background()

	r0, err := client.AddRoute(ctx, []string{"e1", "e2", "e3"})
	if err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}
	if r0 != 0 {
		t.Errorf("first route index = %d, want 0", r0)
	}

	r1, err := client.AddRoute(ctx, []string{"e4", "e5"})
	if err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}
	if r1 != 1 {
		t.Errorf("second route index = %d, want 1", r1)
	}

	transitions, err := client.Routes(ctx)
	if err != nil {
		t.Fatalf("Routes() error = %v", err)
	}
	if len(transitions) != 5 {
		t.Fatalf("Routes() returned %d transitions, want 5", len(transitions))
	}
	if transitions[0].Route != 0 || transitions[0].Index != 0 || transitions[0].Electrode != "e1" {
		t.Errorf("first transition = %+v", transitions[0])
	}
	if transitions[4].Route != 1 || transitions[4].Index != 1 || transitions[4].Electrode != "e5" {
		t.Errorf("last transition = %+v", transitions[4])
	}
}

func TestServerAddRouteEmpty(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)

	_, err := client.AddRoute(context.Background(), nil)
	if err == nil {
		t.Fatal("AddRoute(nil) succeeded")
	}
	if !strings.Contains(err.Error(), "no electrodes") {
		t.Errorf("AddRoute(nil) error = %v", err)
	}
}

func TestServerClearRoutes(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)
	ctx := context.Background()

	mustAddRoute(t, client, "e1", "e2")
	mustAddRoute(t, client, "e2", "e3")
	mustAddRoute(t, client, "e4", "e5")

	remaining, err := client.ClearRoutes(ctx, "e2")
	if err != nil {
		t.Fatalf("ClearRoutes() error = %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining after clearing e2 = %d, want 2", remaining)
	}

	remaining, err = client.ClearRoutes(ctx, "")
	if err != nil {
		t.Fatalf("ClearRoutes(\"\") error = %v", err)
	}
	if remaining != 0 {
		t.Errorf("remaining after clearing all = %d, want 0", remaining)
	}
}

func TestServerExecuteRoutes(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)
	ctx := context.Background()

	mustAddRoute(t, client, "e1", "e2", "e3")

	var mu sync.Mutex
	var notifications []map[string]bool

	opts := ExecuteRoutesRequest{TransitionDuration: 1}
	result, err := client.ExecuteRoutes(ctx, opts, func(states map[string]bool) {
		mu.Lock()
		defer mu.Unlock()
		notifications = append(notifications, states)
	})
	if err != nil {
		t.Fatalf("ExecuteRoutes() error = %v", err)
	}

	if result.Repeats != 1 || result.Transitions != 3 {
		t.Errorf("result = %+v, want 1 repeat, 3 transitions", result)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(notifications) != 4 {
		t.Fatalf("received %d notifications, want 4 (3 transitions + release)", len(notifications))
	}
	if !notifications[0]["e1"] {
		t.Errorf("first notification = %v, want e1 actuated", notifications[0])
	}
	final := notifications[len(notifications)-1]
	for _, e := range []string{"e1", "e2", "e3"} {
		if state, ok := final[e]; !ok || state {
			t.Errorf("final notification = %v, want all released", final)
			break
		}
	}

	// The table survives execution so a step can run its routes again.
	transitions, err := client.Routes(ctx)
	if err != nil {
		t.Fatalf("Routes() error = %v", err)
	}
	if len(transitions) != 3 {
		t.Errorf("table has %d transitions after execute, want 3", len(transitions))
	}
}

func TestServerExecuteRoutesRouteFilter(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)
	ctx := context.Background()

	mustAddRoute(t, client, "e1", "e2")
	mustAddRoute(t, client, "e3", "e4", "e5")

	route := 0
	opts := ExecuteRoutesRequest{TransitionDuration: 1, Route: &route}
	var mu sync.Mutex
	seen := make(map[string]bool)
	result, err := client.ExecuteRoutes(ctx, opts, func(states map[string]bool) {
		mu.Lock()
		defer mu.Unlock()
		for e := range states {
			seen[e] = true
		}
	})
	if err != nil {
		t.Fatalf("ExecuteRoutes() error = %v", err)
	}

	if result.Transitions != 2 {
		t.Errorf("Transitions = %d, want 2 (route 0 only)", result.Transitions)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, e := range []string{"e3", "e4", "e5"} {
		if seen[e] {
			t.Errorf("electrode %s of route 1 was touched", e)
		}
	}
}

func TestServerExecuteRoutesElectrodeFilter(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)
	ctx := context.Background()

	mustAddRoute(t, client, "e1", "e2")
	mustAddRoute(t, client, "e3", "e4")
	mustAddRoute(t, client, "e2", "e5")

	opts := ExecuteRoutesRequest{TransitionDuration: 1, Electrode: "e2"}
	result, err := client.ExecuteRoutes(ctx, opts, nil)
	if err != nil {
		t.Fatalf("ExecuteRoutes() error = %v", err)
	}

	// Routes 0 and 2 pass through e2; route 1 is skipped. Both selected
	// routes are two hops long, so the lock-step pass is two windows.
	if result.Transitions != 2 {
		t.Errorf("Transitions = %d, want 2", result.Transitions)
	}
}

func TestServerExecuteRoutesUnknownRoute(t *testing.T) {
	t.Parallel()

	srv := startServer(t)
	client := dial(t, srv)

	mustAddRoute(t, client, "e1", "e2")

	route := 7
	opts := ExecuteRoutesRequest{TransitionDuration: 1, Route: &route}
	_, err := client.ExecuteRoutes(context.Background(), opts, nil)
	if err == nil {
		t.Fatal("ExecuteRoutes() with unknown route index succeeded")
	}
	// The miss crosses the wire as text; the client maps it back to the
	// sentinel so the CLI can tell it apart from transport failures.
	if !errors.Is(err, routes.ErrRouteNotFound) {
		t.Errorf("ExecuteRoutes() error = %v, want ErrRouteNotFound", err)
	}
}

func TestServerRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	if _, err := ParseRequest([]byte(`{"command":"self_destruct"}`)); err == nil {
		t.Fatal("ParseRequest() accepted unknown command")
	}
}

func mustAddRoute(t *testing.T, client *Client, electrodes ...string) int {
	t.Helper()

	route, err := client.AddRoute(context.Background(), electrodes)
	if err != nil {
		t.Fatalf("AddRoute(%v) error = %v", electrodes, err)
	}
	return route
}
