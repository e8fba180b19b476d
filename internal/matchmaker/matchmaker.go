package matchmaker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

type roomJoiner interface {
	Join(roomID string, members ...protocol.Peer)
}

// Matchmaker holds at most one waiting client and pairs it with the next
// ready one. Not safe for concurrent use.
type Matchmaker struct {
	logger *slog.Logger
	rooms  roomJoiner
	now    func() time.Time

	waiting protocol.Peer
	issued  map[string]int
}

func New(logger *slog.Logger, rooms roomJoiner) *Matchmaker {
	return &Matchmaker{
		logger: logger.With("component", "matchmaker"),
		rooms:  rooms,
		now:    time.Now,

		issued: make(map[string]int),
	}
}

// Ready places the client in the waiting slot, or pairs it with the client
// already there. A nil room means the client is now waiting.
func (that *Matchmaker) Ready(client protocol.Peer) (*entity.Room, error) {
	log := that.logger.With("method", "Ready", "client", client.ID())

	if that.waiting == nil {
		that.waiting = client
		log.Info("waiting for second player")

		return nil, nil
	}

	if that.waiting.ID() == client.ID() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSelfPairing, client.ID())
	}

	waiting := that.waiting
	room := &entity.Room{
		ID:        that.nextRoomID(waiting.ID()),
		PlayerX:   waiting.ID(),
		PlayerO:   client.ID(),
		CreatedAt: that.now(),
	}

	that.rooms.Join(room.ID, waiting, client)

	that.notify(client, protocol.GameStart{Symbol: entity.SymbolO})
	that.notify(waiting, protocol.GameStart{Symbol: entity.SymbolX})
	that.notify(waiting, protocol.Room{ID: room.ID})
	that.notify(client, protocol.Room{ID: room.ID})

	that.waiting = nil

	log.Info("room created", "room", room.ID, "x", room.PlayerX, "o", room.PlayerO)

	return room, nil
}

// ClientDisconnected frees the waiting slot if the client occupies it.
func (that *Matchmaker) ClientDisconnected(client protocol.Peer) bool {
	delete(that.issued, client.ID())

	if that.waiting == nil || that.waiting.ID() != client.ID() {
		return false
	}

	that.waiting = nil
	that.logger.Info("waiting client left", "client", client.ID())

	return true
}

// Waiting returns the id of the client in the waiting slot.
func (that *Matchmaker) Waiting() (string, bool) {
	if that.waiting == nil {
		return "", false
	}

	return that.waiting.ID(), true
}

// nextRoomID keeps room ids unique when a still connected client waits again.
func (that *Matchmaker) nextRoomID(waitingID string) string {
	that.issued[waitingID]++

	if n := that.issued[waitingID]; n > 1 {
		return fmt.Sprintf("%s-%d", entity.RoomID(waitingID), n)
	}

	return entity.RoomID(waitingID)
}

func (that *Matchmaker) notify(client protocol.Peer, msg protocol.Message) {
	if err := client.Send(msg); err != nil {
		that.logger.Warn("failed to notify client", "client", client.ID(), "event", msg.Event(), "error", err)
	}
}
