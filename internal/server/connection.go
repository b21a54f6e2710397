package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound queue depth per connection
	sendQueueSize = 64
)

var ErrSendQueueFull = errors.New("connection send queue full")

// Connection wraps one WebSocket with a reader/writer goroutine pair and a
// bounded outbound queue. A full queue closes the connection so a single
// slow client cannot stall the rest of a room.
type Connection struct {
	ws        *websocket.Conn
	send      chan []byte
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	onMessage func(raw []byte)
	onClose   func()
}

// newConnection creates a connection wrapper. onMessage receives each inbound
// text frame; onClose fires exactly once when the connection shuts down.
func newConnection(ws *websocket.Conn, logger *log.Logger, onMessage func([]byte), onClose func()) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ws:        ws,
		send:      make(chan []byte, sendQueueSize),
		logger:    logger.WithPrefix("conn"),
		ctx:       ctx,
		cancel:    cancel,
		onMessage: onMessage,
		onClose:   onClose,
	}
}

// Start begins the read and write pumps
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the connection down. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.ws.Close()
		if c.onClose != nil {
			// Teardown runs on its own goroutine: a close can fire inside
			// Send while the caller holds the room or hub state that
			// onClose needs, and re-entering it here would deadlock
			go c.onClose()
		}
	})
	return err
}

// Send marshals v and enqueues it without blocking. The payload is fully
// serialised here so the caller's state can keep mutating after enqueue.
func (c *Connection) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			// Send raced with Close; the frame is dropped, which is fine
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send queue full, closing connection")
		_ = c.Close()
		return ErrSendQueueFull
	}
}

// readPump delivers inbound frames to the message handler
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		if c.onMessage != nil {
			c.onMessage(raw)
		}
	}
}

// writePump drains the outbound queue and keeps the peer alive with pings
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
