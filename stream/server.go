// Package stream broadcasts simulation frames to websocket clients and
// feeds their control messages back to the game loop. The server owns the
// network side; the game polls DrainCommands on its own goroutine so no
// client input ever touches the solver concurrently.
package stream

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Scene describes the static topology of all bodies. It is sent to every
// client on connect and again after each respawn.
type Scene struct {
	Type   string         `json:"type"` // "scene"
	Solver string         `json:"solver"`
	Bodies []BodyTopology `json:"bodies"`
}

// BodyTopology carries one body's constant index data.
type BodyTopology struct {
	Name      string  `json:"name"`
	Particles int     `json:"particles"`
	Edges     []int32 `json:"edges"`
	Surface   []int32 `json:"surface"`
}

// Frame carries one tick's particle positions for all bodies.
type Frame struct {
	Type   string      `json:"type"` // "frame"
	Tick   int32       `json:"tick"`
	Solver string      `json:"solver"`
	Bodies []BodyFrame `json:"bodies"`
}

// BodyFrame is one body's positions within a Frame.
type BodyFrame struct {
	Name      string       `json:"name"`
	Positions [][3]float64 `json:"positions"`
}

// Command is a control message from a client. Action selects an operation
// ("pause", "step", "reset", "squash", "solver"); Params carries live
// parameter updates by name and may accompany an empty action.
type Command struct {
	Action string             `json:"action"`
	Params map[string]float64 `json:"params"`
}

// Server accepts websocket clients and fans frames out to them.
type Server struct {
	addr       string
	listenAddr string
	http       *http.Server

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	sceneMu sync.RWMutex
	scene   *Scene

	pendingMu sync.Mutex
	pending   []Command

	upgrader websocket.Upgrader
}

// NewServer creates a server that will listen on addr once started.
func NewServer(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start binds the listen address and serves websocket upgrades on /ws.
// The bind happens synchronously so address errors surface here.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listenAddr = ln.Addr().String()
	s.http = &http.Server{Handler: mux}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("stream server stopped", "error", err)
		}
	}()
	slog.Info("stream server listening", "addr", s.listenAddr)
	return nil
}

// Addr returns the bound listen address, valid after Start.
func (s *Server) Addr() string {
	return s.listenAddr
}

// Close shuts the listener down and disconnects all clients.
func (s *Server) Close() {
	if s.http == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.Error("stream server shutdown", "error", err)
	}

	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]*sync.Mutex)
	s.clientsMu.Unlock()
}

// SetScene stores the topology snapshot and pushes it to connected clients.
func (s *Server) SetScene(scene Scene) {
	scene.Type = "scene"
	s.sceneMu.Lock()
	s.scene = &scene
	s.sceneMu.Unlock()
	s.broadcast(&scene)
}

// Broadcast sends a frame to every client, dropping clients whose
// connection fails.
func (s *Server) Broadcast(frame Frame) {
	frame.Type = "frame"
	s.broadcast(&frame)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// DrainCommands returns and clears the queued client commands.
func (s *Server) DrainCommands() []Command {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := s.pending
	s.pending = nil
	return out
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Per-connection write lock: broadcasts and the initial scene send
	// must not interleave on the same connection.
	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	slog.Info("stream client connected", "remote", conn.RemoteAddr().String())

	s.sceneMu.RLock()
	scene := s.scene
	s.sceneMu.RUnlock()
	if scene != nil {
		connMu.Lock()
		err := conn.WriteJSON(scene)
		connMu.Unlock()
		if err != nil {
			return
		}
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("stream client read failed", "error", err)
			}
			return
		}
		s.pendingMu.Lock()
		s.pending = append(s.pending, cmd)
		s.pendingMu.Unlock()
	}
}

func (s *Server) broadcast(msg any) {
	s.clientsMu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range s.clients {
		mu.Lock()
		err := conn.WriteJSON(msg)
		mu.Unlock()
		if err != nil {
			slog.Warn("stream client write failed", "error", err)
			conn.Close()
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
		}
		s.clientsMu.Unlock()
	}
}
