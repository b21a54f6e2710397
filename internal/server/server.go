package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/threethirteen/internal/randutil"
	"golang.org/x/sync/errgroup"
)

const numRooms = 10

const shutdownTimeout = 5 * time.Second

// Server hosts the fixed set of game rooms and the main lobby over WebSockets
type Server struct {
	cfg      *Config
	logger   *log.Logger
	upgrader websocket.Upgrader

	rooms   map[string]*Room
	roomIDs []string // stable display order
	hub     *LobbyHub
}

// NewServer creates a server with its rooms pre-created. Rooms exist for the
// lifetime of the process; there is no dynamic room creation.
func NewServer(cfg *Config, logger *log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rooms: make(map[string]*Room),
	}

	s.hub = NewLobbyHub(logger, s.Summaries)
	for i := 1; i <= numRooms; i++ {
		id := fmt.Sprintf("room-%d", i)
		name := fmt.Sprintf("Room %d", i)
		s.rooms[id] = newRoom(id, name, logger, randutil.NewSecure(), s.hub.Publish)
		s.roomIDs = append(s.roomIDs, id)
	}
	return s
}

// Summaries returns one row per room in display order
func (s *Server) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(s.roomIDs))
	for _, id := range s.roomIDs {
		out = append(out, s.rooms[id].Summary())
	}
	return out
}

// Handler returns the HTTP routing for the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/lobby", s.handleLobby)
	mux.HandleFunc("GET /ws/room/{room_id}", s.handleRoom)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.cfg.Server.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.Server.StaticDir)))
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		s.logger.Info("listening", "addr", httpServer.Addr, "rooms", len(s.rooms))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// handleLobby upgrades a connection and hands it to the lobby hub
func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	s.hub.Subscribe(newConnection(ws, s.logger, nil, nil))
}

// handleRoom upgrades a connection into a specific room. Unknown rooms and
// missing player ids are rejected before the upgrade.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := s.rooms[r.PathValue("room_id")]
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id query parameter required", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	conn := newConnection(ws, s.logger,
		func(raw []byte) { room.HandleCommand(playerID, raw) },
		nil)
	conn.onClose = func() { room.Unregister(playerID, conn) }

	room.Register(playerID, conn)
	conn.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
