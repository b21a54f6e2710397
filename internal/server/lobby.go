package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// LobbyHub fans room summaries out to every client watching the main lobby.
// It runs as a single goroutine owning all subscriber state, so rooms can
// publish from any goroutine without sharing locks with the hub.
type LobbyHub struct {
	logger    *log.Logger
	summaries func() []RoomSummary

	register   chan *Connection
	unregister chan string
	publish    chan struct{}
	done       chan struct{}
}

// NewLobbyHub creates a hub. summaries must return the current room list in
// display order; it is called on the hub goroutine for each broadcast.
func NewLobbyHub(logger *log.Logger, summaries func() []RoomSummary) *LobbyHub {
	return &LobbyHub{
		logger:     logger.WithPrefix("lobby"),
		summaries:  summaries,
		register:   make(chan *Connection),
		unregister: make(chan string),
		// Buffered so a burst of room changes collapses into one broadcast
		publish: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled
func (h *LobbyHub) Run(ctx context.Context) error {
	defer close(h.done)

	subs := make(map[string]*Connection)
	for {
		select {
		case <-ctx.Done():
			for _, c := range subs {
				_ = c.Close()
			}
			return ctx.Err()

		case c := <-h.register:
			id := uuid.NewString()
			subs[id] = c
			c.onClose = func() {
				h.drop(id)
			}
			c.Start()
			// New subscribers get the room list immediately rather than
			// waiting for the next change
			_ = c.Send(RoomsUpdate{Type: MessageTypeRoomsUpdate, Rooms: h.summaries()})
			h.logger.Debug("lobby subscriber joined", "subscribers", len(subs))

		case id := <-h.unregister:
			delete(subs, id)
			h.logger.Debug("lobby subscriber left", "subscribers", len(subs))

		case <-h.publish:
			update := RoomsUpdate{Type: MessageTypeRoomsUpdate, Rooms: h.summaries()}
			for _, c := range subs {
				_ = c.Send(update)
			}
		}
	}
}

// Subscribe hands a lobby connection to the hub, which starts its pumps and
// owns it from then on.
func (h *LobbyHub) Subscribe(c *Connection) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Close()
	}
}

// Publish requests a rooms_update broadcast. Safe from any goroutine;
// concurrent requests coalesce into a single broadcast.
func (h *LobbyHub) Publish() {
	select {
	case h.publish <- struct{}{}:
	default:
	}
}

func (h *LobbyHub) drop(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}
