package websocket

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

func (that *Server) handleReady(ctx context.Context, conn *connection, _ protocol.Message) error {
	if err := that.hub.Ready(ctx, conn); err != nil {
		return fmt.Errorf("failed to queue ready: %w", err)
	}

	return nil
}

func (that *Server) handleMove(ctx context.Context, conn *connection, msg protocol.Message) error {
	move, ok := msg.(protocol.Move)
	if !ok {
		return fmt.Errorf("unexpected %T for move: %w", msg, apperror.ErrMalformedEvent)
	}

	if err := that.hub.Move(ctx, conn, move); err != nil {
		return fmt.Errorf("failed to queue move: %w", err)
	}

	return nil
}
