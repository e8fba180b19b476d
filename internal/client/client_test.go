package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/ai"
	"github.com/rocketscienceinc/tictactoe-relay/internal/coordinator"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/matchmaker"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-relay/internal/relay"
	"github.com/rocketscienceinc/tictactoe-relay/internal/session"
	"github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
)

type nopObserver struct{}

func (nopObserver) RoomOpened(entity.Room) {}
func (nopObserver) RoomClosed(string)      {}

type quietRenderer struct{}

func (quietRenderer) Render(entity.Board)         {}
func (quietRenderer) HighlightWinningLine([3]int) {}
func (quietRenderer) ShowStatus(session.Status)   {}

type recordingHandler struct {
	mu       sync.Mutex
	received []protocol.Message
}

func (that *recordingHandler) Handle(msg protocol.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.received = append(that.received, msg)
}

func (that *recordingHandler) snapshot() []protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]protocol.Message(nil), that.received...)
}

func startCoordinator(t *testing.T) (context.Context, *slog.Logger, string) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	rl := relay.New(logger)
	hub := coordinator.New(logger, matchmaker.New(logger, rl), rl, nopObserver{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	go func() {
		_ = hub.Run(ctx)
	}()

	srv := httptest.NewServer(websocket.New(logger, hub).Handler(ctx))
	t.Cleanup(srv.Close)

	return ctx, logger, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, ctx context.Context, logger *slog.Logger, url string, h handler) *Client {
	t.Helper()

	c, err := Dial(ctx, logger, url)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
	})

	go func() {
		_ = c.Listen(ctx, h)
	}()

	return c
}

func TestClient(t *testing.T) {
	t.Run("Ready from two clients pairs them", func(t *testing.T) {
		// Given: two connected clients
		ctx, logger, url := startCoordinator(t)
		first, second := &recordingHandler{}, &recordingHandler{}
		a := connect(t, ctx, logger, url, first)

		// When: both announce readiness
		require.NoError(t, a.Send(ctx, protocol.Ready{}))
		b := connect(t, ctx, logger, url, second)
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, b.Send(ctx, protocol.Ready{}))

		// Then: both get their symbol and the shared room
		require.Eventually(t, func() bool {
			return len(first.snapshot()) == 2 && len(second.snapshot()) == 2
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, protocol.GameStart{Symbol: entity.SymbolX}, first.snapshot()[0])
		assert.Equal(t, protocol.GameStart{Symbol: entity.SymbolO}, second.snapshot()[0])
		assert.Equal(t, first.snapshot()[1], second.snapshot()[1])
	})

	t.Run("Two controllers play through the coordinator", func(t *testing.T) {
		// Given: two multiplayer controllers on their own connections
		ctx, logger, url := startCoordinator(t)
		opts := session.Options{Mode: session.ModeMulti, PairingTimeout: 5 * time.Second}

		var first, second *session.Controller
		firstConn := &lateHandler{}
		secondConn := &lateHandler{}

		a := connect(t, ctx, logger, url, firstConn)
		first = session.NewController(logger, quietRenderer{}, ai.NewRandomPlayer(), a, opts)
		firstConn.set(first)

		b := connect(t, ctx, logger, url, secondConn)
		second = session.NewController(logger, quietRenderer{}, ai.NewRandomPlayer(), b, opts)
		secondConn.set(second)

		// When: the first asks, then the second asks
		require.True(t, first.RequestPairing(ctx))
		require.Eventually(t, func() bool {
			return first.Snapshot().State == session.StateWaitingForOpponent
		}, time.Second, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		require.True(t, second.RequestPairing(ctx))

		// Then: the first is X and its move reaches the second
		require.Eventually(t, func() bool {
			return first.Snapshot().Room != "" && second.Snapshot().Room != ""
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, entity.SymbolX, first.Snapshot().Symbol)
		assert.Equal(t, entity.SymbolO, second.Snapshot().Symbol)

		require.True(t, first.LocalMove(ctx, 4))
		require.Eventually(t, func() bool {
			return second.Snapshot().Board[4] == entity.SymbolX && second.Snapshot().MyTurn
		}, 2*time.Second, 10*time.Millisecond)

		// And: closing the first ends the game for the second
		require.NoError(t, a.Close())
		require.Eventually(t, func() bool {
			return second.Snapshot().State == session.StateGameOver
		}, 2*time.Second, 10*time.Millisecond)

		first.Reset()
		second.Reset()
	})
}

// lateHandler lets a connection start listening before its controller exists.
type lateHandler struct {
	mu     sync.Mutex
	target handler
}

func (that *lateHandler) set(h handler) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.target = h
}

func (that *lateHandler) Handle(msg protocol.Message) {
	that.mu.Lock()
	target := that.target
	that.mu.Unlock()

	if target != nil {
		target.Handle(msg)
	}
}
