package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const dialTimeout = 10 * time.Second

type handler interface {
	Handle(msg protocol.Message)
}

// Client is the player's connection to the coordinator.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn
}

func Dial(ctx context.Context, logger *slog.Logger, url string) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	return &Client{
		logger: logger.With("component", "client"),
		conn:   conn,
	}, nil
}

func (that *Client) Send(ctx context.Context, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err = wsjson.Write(ctx, that.conn, json.RawMessage(data)); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Event(), err)
	}

	return nil
}

// Listen hands every decoded event to h until the connection or ctx ends.
// Events that fail validation are logged and skipped.
func (that *Client) Listen(ctx context.Context, h handler) error {
	log := that.logger.With("method", "Listen")

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, that.conn, &raw); err != nil {
			if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("failed to read event: %w", err)
		}

		msg, err := protocol.Decode(raw)
		if err != nil {
			log.Warn("dropping malformed event", "error", err)
			continue
		}

		h.Handle(msg)
	}
}

func (that *Client) Close() error {
	if err := that.conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}
