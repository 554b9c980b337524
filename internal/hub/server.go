// SPDX-License-Identifier: MPL-2.0

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"

	"github.com/sci-bots/droplet-planning-plugin/internal/routectl"
	"github.com/sci-bots/droplet-planning-plugin/internal/routes"
	"github.com/sci-bots/droplet-planning-plugin/internal/testutil"
	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

type (
	// Server is the plugin's messaging endpoint. It listens on localhost and
	// serves the droplet routing commands over WebSocket at /hub.
	//
	// The route table is shared across connections; access is serialized so
	// concurrent clients see a consistent step state.
	Server struct {
		httpServer *http.Server
		listener   net.Listener
		addr       string

		clock testutil.Clock
		log   *log.Logger

		// mu protects the route table.
		mu    sync.Mutex
		table *routes.Table
	}

	// ServerOption configures a Server.
	ServerOption func(*Server)

	// connWriter streams electrode state notifications to one connection
	// while execute_routes runs on it.
	connWriter struct {
		ws *websocket.Conn
	}
)

// WithServerClock overrides the server's time source for route execution.
func WithServerClock(clock testutil.Clock) ServerOption {
	return func(s *Server) { s.clock = clock }
}

// WithServerLogger overrides the server's logger.
func WithServerLogger(logger *log.Logger) ServerOption {
	return func(s *Server) { s.log = logger }
}

// NewServer creates a server listening on the given localhost port. Port 0
// picks a free ephemeral port. The server does not accept connections until
// Start() is called.
func NewServer(port types.ListenPort, opts ...ServerOption) (*Server, error) {
	if err := port.Validate(); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		listener: listener,
		addr:     listener.Addr().String(),
		clock:    testutil.RealClock{},
		log:      log.Default(),
		table:    &routes.Table{},
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/hub", s.handleHub)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

// Start begins accepting connections. This is non-blocking.
func (s *Server) Start() {
	s.log.Info("hub listening", "addr", s.addr)
	go func() {
		if err := s.httpServer.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("hub server stopped", "err", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server's address (e.g. "127.0.0.1:54321").
func (s *Server) Address() string {
	return s.addr
}

// URL returns the WebSocket endpoint URL.
func (s *Server) URL() string {
	return "ws://" + s.addr + "/hub"
}

// handleHealth responds with 200 OK for health checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleHub upgrades the connection and serves requests until the peer
// disconnects. Requests on one connection are processed in order.
func (s *Server) handleHub(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "err", err)
		return
	}
	defer ws.Close(websocket.StatusInternalError, "connection closed")

	ctx := r.Context()
	s.log.Debug("client connected", "remote", r.RemoteAddr)

	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			s.log.Debug("client disconnected", "remote", r.RemoteAddr, "err", err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		resp := s.serve(ctx, ws, data)
		out, err := json.Marshal(resp)
		if err != nil {
			s.log.Error("marshal response", "err", err)
			return
		}
		if err := ws.Write(ctx, websocket.MessageText, out); err != nil {
			return
		}
	}
}

// serve handles one request frame and returns the response to send.
func (s *Server) serve(ctx context.Context, ws *websocket.Conn, data []byte) *Response {
	req, err := ParseRequest(data)
	if err != nil {
		return &Response{Command: "error", Error: err.Error()}
	}

	s.log.Debug("request", "command", req.Command)

	result, err := s.dispatch(ctx, ws, req)
	if err != nil {
		return &Response{Command: req.Command, Error: err.Error()}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return &Response{Command: req.Command, Error: err.Error()}
	}
	return &Response{Command: req.Command, Result: payload}
}

func (s *Server) dispatch(ctx context.Context, ws *websocket.Conn, req *Request) (any, error) {
	switch req.Command {
	case CommandAddRoute:
		return s.addRoute(req.Data)
	case CommandGetRoutes:
		return s.getRoutes()
	case CommandClearRoutes:
		return s.clearRoutes(req.Data)
	case CommandExecuteRoutes:
		return s.executeRoutes(ctx, ws, req.Data)
	default:
		return nil, &InvalidCommandError{Value: req.Command}
	}
}

func (s *Server) addRoute(data json.RawMessage) (*AddRouteResult, error) {
	var opts AddRouteRequest
	if err := unmarshalData(data, &opts); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	route, err := s.table.Add(opts.Electrodes)
	if err != nil {
		return nil, err
	}
	return &AddRouteResult{Route: route}, nil
}

func (s *Server) getRoutes() (*GetRoutesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &GetRoutesResult{Transitions: s.table.Transitions()}, nil
}

func (s *Server) clearRoutes(data json.RawMessage) (*ClearRoutesResult, error) {
	var opts ClearRoutesRequest
	if err := unmarshalData(data, &opts); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.table.Clear(opts.Electrode)
	return &ClearRoutesResult{Remaining: s.table.Len()}, nil
}

// executeRoutes runs a snapshot of the route table, streaming electrode
// state notifications to the requesting connection. The table stays intact
// so a protocol step can execute its routes repeatedly.
func (s *Server) executeRoutes(ctx context.Context, ws *websocket.Conn, data json.RawMessage) (*ExecuteRoutesResult, error) {
	var opts ExecuteRoutesRequest
	if err := unmarshalData(data, &opts); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snapshot := routes.NewTable(s.table.Transitions())
	s.mu.Unlock()

	snapshot, err := selectRoutes(snapshot, opts)
	if err != nil {
		return nil, err
	}

	ctrl := routectl.New(&connWriter{ws: ws},
		routectl.WithClock(s.clock),
		routectl.WithLogger(s.log))

	result, err := ctrl.Execute(ctx, snapshot, opts.Options())
	if err != nil {
		return nil, err
	}

	return &ExecuteRoutesResult{
		Repeats:     result.Repeats,
		Transitions: result.Transitions,
		ElapsedMs:   result.Elapsed.Milliseconds(),
	}, nil
}

// selectRoutes narrows an execution snapshot to the requested route index or
// to the routes passing through the requested electrode.
func selectRoutes(table *routes.Table, opts ExecuteRoutesRequest) (*routes.Table, error) {
	if opts.Route != nil {
		return table.Select(*opts.Route)
	}
	if opts.Electrode == "" {
		return table, nil
	}

	var kept []routes.Transition
	wanted := make(map[int]bool)
	for _, tr := range table.Transitions() {
		if tr.Electrode == opts.Electrode {
			wanted[tr.Route] = true
		}
	}
	for _, tr := range table.Transitions() {
		if wanted[tr.Route] {
			kept = append(kept, tr)
		}
	}
	return routes.NewTable(kept), nil
}

// unmarshalData decodes a request's data field; absent data means defaults.
func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse request data: %w", err)
	}
	return nil
}

// SetElectrodeStates implements routectl.ElectrodeWriter by sending a
// notification frame to the connection.
func (w *connWriter) SetElectrodeStates(ctx context.Context, states map[string]bool) error {
	payload, err := json.Marshal(ElectrodeStates{States: states})
	if err != nil {
		return err
	}
	out, err := json.Marshal(Response{Command: NotifyElectrodeStates, Result: payload})
	if err != nil {
		return err
	}
	return w.ws.Write(ctx, websocket.MessageText, out)
}
