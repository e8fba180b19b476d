package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/coordinator"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/matchmaker"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-relay/internal/relay"
)

type nopObserver struct{}

func (nopObserver) RoomOpened(entity.Room) {}
func (nopObserver) RoomClosed(string)      {}

func newTestServer(t *testing.T) string {
	t.Helper()

	url, _ := newStoppableServer(t)

	return url
}

func newStoppableServer(t *testing.T) (string, context.CancelFunc) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	rl := relay.New(logger)
	hub := coordinator.New(logger, matchmaker.New(logger, rl), rl, nopObserver{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = hub.Run(ctx)
	}()

	srv := httptest.NewServer(New(logger, hub).Handler(ctx))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func dial(t *testing.T, url string) *gorillaws.Conn {
	t.Helper()

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func send(t *testing.T, conn *gorillaws.Conn, msg protocol.Message) {
	t.Helper()

	data, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, data))
}

func receive(t *testing.T, conn *gorillaws.Conn) protocol.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.Decode(data)
	require.NoError(t, err)

	return msg
}

func pair(t *testing.T, url string) (*gorillaws.Conn, *gorillaws.Conn, string) {
	t.Helper()

	a := dial(t, url)
	send(t, a, protocol.Ready{})

	b := dial(t, url)
	send(t, b, protocol.Ready{})

	assert.Equal(t, protocol.GameStart{Symbol: entity.SymbolX}, receive(t, a))
	roomMsg := receive(t, a)
	assert.Equal(t, protocol.GameStart{Symbol: entity.SymbolO}, receive(t, b))
	assert.Equal(t, roomMsg, receive(t, b))

	room, ok := roomMsg.(protocol.Room)
	require.True(t, ok)

	return a, b, room.ID
}

func TestServer(t *testing.T) {
	t.Run("Two ready clients are paired and share a room", func(t *testing.T) {
		// Given: a running coordinator
		url := newTestServer(t)

		// When: two clients announce readiness in order
		_, _, roomID := pair(t, url)

		// Then: the room is named after the first client
		assert.True(t, strings.HasPrefix(roomID, entity.RoomPrefix))
	})

	t.Run("Move reaches the opponent", func(t *testing.T) {
		// Given: a paired couple
		url := newTestServer(t)
		a, b, roomID := pair(t, url)

		// When: A plays cell 4
		send(t, a, protocol.Move{Index: 4, Room: roomID})

		// Then: B sees it
		assert.Equal(t, protocol.OpponentMove{Index: 4}, receive(t, b))
	})

	t.Run("Malformed event is answered with an error", func(t *testing.T) {
		// Given: a connected client
		url := newTestServer(t)
		a := dial(t, url)

		// When: it sends a move without a room
		require.NoError(t, a.WriteMessage(gorillaws.TextMessage, []byte(`{"event":"move","payload":{"index":3}}`)))

		// Then: an error event comes back
		msg := receive(t, a)
		assert.Equal(t, protocol.EventError, msg.Event())
	})

	t.Run("Server bound events only", func(t *testing.T) {
		// Given: a connected client
		url := newTestServer(t)
		a := dial(t, url)

		// When: it sends an event only the coordinator may emit
		send(t, a, protocol.OpponentDisconnected{})

		// Then: it is rejected
		assert.Equal(t, protocol.EventError, receive(t, a).Event())
	})

	t.Run("Closing a socket notifies the opponent", func(t *testing.T) {
		// Given: a paired couple
		url := newTestServer(t)
		a, b, _ := pair(t, url)

		// When: A goes away
		require.NoError(t, a.Close())

		// Then: B is told
		assert.Equal(t, protocol.OpponentDisconnected{}, receive(t, b))
	})

	t.Run("Shutdown closes open sockets", func(t *testing.T) {
		// Given: a connected client
		url, stop := newStoppableServer(t)
		a := dial(t, url)

		// When: the server shuts down
		stop()

		// Then: the client gets a going away close frame right away
		require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := a.ReadMessage()
		assert.True(t, gorillaws.IsCloseError(err, gorillaws.CloseGoingAway), "unexpected error: %v", err)
	})
}
