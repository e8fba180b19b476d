package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

// connection is the coordinator's view of one client socket. Send never
// blocks; the write pump owns every write to ws.
type connection struct {
	id     string
	ws     *gorillaws.Conn
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(id string, ws *gorillaws.Conn, logger *slog.Logger) *connection {
	return &connection{
		id:     id,
		ws:     ws,
		logger: logger.With("client", id),

		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (that *connection) ID() string {
	return that.id
}

func (that *connection) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	select {
	case <-that.done:
		return apperror.ErrPeerUnavailable
	default:
	}

	select {
	case that.send <- data:
		return nil
	case <-that.done:
		return apperror.ErrPeerUnavailable
	default:
		return fmt.Errorf("send queue full: %w", apperror.ErrPeerUnavailable)
	}
}

func (that *connection) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump also ends the connection when ctx is done, which unblocks the reader.
func (that *connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.ws.Close()
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.write(gorillaws.TextMessage, data); err != nil {
				that.logger.Warn("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := that.write(gorillaws.PingMessage, nil); err != nil {
				that.logger.Warn("failed to write ping", "error", err)
				return
			}
		case <-that.done:
			_ = that.write(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, ""))
			return
		case <-ctx.Done():
			_ = that.write(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func (that *connection) write(messageType int, data []byte) error {
	if err := that.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}
