package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const commandBuffer = 256

type pairer interface {
	Ready(client protocol.Peer) (*entity.Room, error)
	ClientDisconnected(client protocol.Peer) bool
}

type mover interface {
	RelayMove(sender protocol.Peer, roomID string, index int) (int, error)
	Disconnecting(client protocol.Peer) []string
	Len() int
}

// observer learns about room lifecycle. Implementations must not block.
type observer interface {
	RoomOpened(room entity.Room)
	RoomClosed(roomID string)
}

type readyCommand struct {
	client protocol.Peer
}

type moveCommand struct {
	client protocol.Peer
	move   protocol.Move
}

type disconnectCommand struct {
	client protocol.Peer
	done   chan struct{}
}

// Hub serializes every readiness, move and disconnect event on one goroutine.
// The matchmaker and relay it owns are only touched from Run.
type Hub struct {
	logger     *slog.Logger
	matchmaker pairer
	relay      mover
	observer   observer

	commands chan any
}

func New(logger *slog.Logger, matchmaker pairer, relay mover, observer observer) *Hub {
	return &Hub{
		logger:     logger.With("component", "hub"),
		matchmaker: matchmaker,
		relay:      relay,
		observer:   observer,

		commands: make(chan any, commandBuffer),
	}
}

// Run processes commands until ctx is done.
func (that *Hub) Run(ctx context.Context) error {
	that.logger.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("hub stopped")
			return nil
		case cmd := <-that.commands:
			that.handle(cmd)
		}
	}
}

func (that *Hub) Ready(ctx context.Context, client protocol.Peer) error {
	return that.enqueue(ctx, readyCommand{client: client})
}

func (that *Hub) Move(ctx context.Context, client protocol.Peer, move protocol.Move) error {
	return that.enqueue(ctx, moveCommand{client: client, move: move})
}

// Disconnect blocks until the hub has notified the client's peers and
// forgotten the client, so the caller may release the connection afterwards.
func (that *Hub) Disconnect(ctx context.Context, client protocol.Peer) error {
	done := make(chan struct{})
	if err := that.enqueue(ctx, disconnectCommand{client: client, done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("disconnect of %s not processed: %w", client.ID(), ctx.Err())
	}
}

func (that *Hub) enqueue(ctx context.Context, cmd any) error {
	select {
	case that.commands <- cmd:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub is not accepting commands: %w", ctx.Err())
	}
}

func (that *Hub) handle(cmd any) {
	switch c := cmd.(type) {
	case readyCommand:
		that.handleReady(c)
	case moveCommand:
		that.handleMove(c)
	case disconnectCommand:
		that.handleDisconnect(c)
	default:
		that.logger.Error("unknown command", "command", fmt.Sprintf("%T", cmd))
	}
}

func (that *Hub) handleReady(cmd readyCommand) {
	log := that.logger.With("method", "handleReady", "client", cmd.client.ID())

	room, err := that.matchmaker.Ready(cmd.client)
	if errors.Is(err, apperror.ErrSelfPairing) {
		log.Warn("ignoring repeated ready from waiting client")
		return
	}

	if err != nil {
		log.Error("failed to pair client", "error", err)
		return
	}

	if room != nil {
		log.Info("room opened", "room", room.ID, "live_rooms", that.relay.Len())
		that.observer.RoomOpened(*room)
	}
}

func (that *Hub) handleMove(cmd moveCommand) {
	log := that.logger.With("method", "handleMove", "client", cmd.client.ID(), "room", cmd.move.Room)

	if _, err := that.relay.RelayMove(cmd.client, cmd.move.Room, cmd.move.Index); err != nil {
		log.Warn("move dropped", "index", cmd.move.Index, "error", err)

		if errors.Is(err, apperror.ErrNotRoomMember) {
			if sendErr := cmd.client.Send(protocol.Error{Message: err.Error()}); sendErr != nil {
				log.Warn("failed to report dropped move", "error", sendErr)
			}
		}
	}
}

func (that *Hub) handleDisconnect(cmd disconnectCommand) {
	defer close(cmd.done)

	closed := that.relay.Disconnecting(cmd.client)
	for _, roomID := range closed {
		that.observer.RoomClosed(roomID)
	}

	that.matchmaker.ClientDisconnected(cmd.client)

	that.logger.Info("client disconnected", "client", cmd.client.ID(), "rooms_closed", len(closed), "live_rooms", that.relay.Len())
}
