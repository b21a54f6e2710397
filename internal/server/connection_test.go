package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/threethirteen/internal/randutil"
)

// newTestWSConn upgrades a loopback request and returns the server side of
// the socket. The client side stays open until test cleanup.
func newTestWSConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	serverSide := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverSide <- ws
	}))
	t.Cleanup(ts.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case ws := <-serverSide:
		t.Cleanup(func() { _ = ws.Close() })
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("no server-side connection")
		return nil
	}
}

// TestCloseRunsTeardownOffCallerGoroutine locks a mutex before closing and
// has the teardown take the same mutex: if Close invoked it synchronously
// the goroutine would deadlock against itself.
func TestCloseRunsTeardownOffCallerGoroutine(t *testing.T) {
	ws := newTestWSConn(t)

	var mu sync.Mutex
	done := make(chan struct{})
	c := newConnection(ws, testLogger(), nil, nil)
	c.onClose = func() {
		mu.Lock()
		defer mu.Unlock()
		close(done)
	}

	mu.Lock()
	require.NoError(t, c.Close())
	mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("teardown never ran")
	}
}

// TestSlowClientClosedWithoutBlockingRoom floods a connection whose write
// pump never drains: the full queue must close that connection only, and the
// broadcasting room must keep serving everyone else.
func TestSlowClientClosedWithoutBlockingRoom(t *testing.T) {
	room := newRoom("room-1", "Room 1", testLogger(), randutil.New(1), func() {})

	driver := &fakeClient{}
	room.Register("p1", driver)

	ws := newTestWSConn(t)
	conn := newConnection(ws, testLogger(), nil, nil)
	conn.onClose = func() { room.Unregister("p2", conn) }
	room.Register("p2", conn)

	// The pumps are deliberately not started, so every broadcast lands in
	// the bounded queue until it overflows mid-broadcast
	join, err := json.Marshal(Command{Type: MessageTypeJoinLobby, PlayerName: "Alice"})
	require.NoError(t, err)
	leave, err := json.Marshal(Command{Type: MessageTypeLeaveLobby})
	require.NoError(t, err)
	for i := 0; i < 2*sendQueueSize; i++ {
		room.HandleCommand("p1", join)
		room.HandleCommand("p1", leave)
	}

	require.Eventually(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		_, ok := room.clients["p2"]
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "slow client was never unregistered")

	// The room is still live for the remaining player
	room.HandleCommand("p1", join)
	update, ok := lastOfType[LobbyUpdate](driver)
	require.True(t, ok)
	require.Len(t, update.Players, 1)
	assert.Equal(t, "Alice", update.Players[0].Name)
}
