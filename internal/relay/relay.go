package relay

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

// Relay forwards events between the members of a room. It never interprets a
// move: legality is owned by the clients. Relay is not safe for concurrent use;
// the coordinator hub is its only caller.
type Relay struct {
	logger *slog.Logger

	rooms       map[string][]protocol.Peer
	memberships map[string]map[string]struct{}
}

func New(logger *slog.Logger) *Relay {
	return &Relay{
		logger: logger.With("component", "relay"),

		rooms:       make(map[string][]protocol.Peer),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Join records the membership of a freshly paired room.
func (that *Relay) Join(roomID string, members ...protocol.Peer) {
	that.rooms[roomID] = append(that.rooms[roomID], members...)

	for _, member := range members {
		rooms, ok := that.memberships[member.ID()]
		if !ok {
			rooms = make(map[string]struct{})
			that.memberships[member.ID()] = rooms
		}
		rooms[roomID] = struct{}{}
	}
}

// RelayMove delivers opponentMove to every member of the room except the sender
// and returns how many members it was handed to.
func (that *Relay) RelayMove(sender protocol.Peer, roomID string, index int) (int, error) {
	log := that.logger.With("method", "RelayMove", "room", roomID, "sender", sender.ID())

	members, ok := that.rooms[roomID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if !that.isMember(sender.ID(), roomID) {
		return 0, fmt.Errorf("%w: %s", apperror.ErrNotRoomMember, roomID)
	}

	delivered := 0
	for _, member := range members {
		if member.ID() == sender.ID() {
			continue
		}

		if err := member.Send(protocol.OpponentMove{Index: index}); err != nil {
			log.Warn("failed to deliver move", "member", member.ID(), "error", err)
			continue
		}
		delivered++
	}

	log.Debug("move relayed", "index", index, "delivered", delivered)

	return delivered, nil
}

// Disconnecting notifies the peers of every room the client belongs to and then
// tears those rooms down. It returns the identifiers of the closed rooms.
func (that *Relay) Disconnecting(client protocol.Peer) []string {
	log := that.logger.With("method", "Disconnecting", "client", client.ID())

	roomIDs := that.RoomsOf(client.ID())

	// notices go out while membership is still queryable
	for _, roomID := range roomIDs {
		for _, member := range that.rooms[roomID] {
			if member.ID() == client.ID() {
				continue
			}

			if err := member.Send(protocol.OpponentDisconnected{}); err != nil {
				log.Warn("failed to notify peer", "room", roomID, "member", member.ID(), "error", err)
			}
		}
	}

	for _, roomID := range roomIDs {
		that.closeRoom(roomID)
		log.Info("room closed", "room", roomID)
	}

	return roomIDs
}

// RoomsOf returns the rooms the client belongs to, sorted.
func (that *Relay) RoomsOf(clientID string) []string {
	rooms := make([]string, 0, len(that.memberships[clientID]))
	for roomID := range that.memberships[clientID] {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)

	return rooms
}

// Len returns the number of live rooms.
func (that *Relay) Len() int {
	return len(that.rooms)
}

func (that *Relay) isMember(clientID, roomID string) bool {
	_, ok := that.memberships[clientID][roomID]
	return ok
}

func (that *Relay) closeRoom(roomID string) {
	for _, member := range that.rooms[roomID] {
		rooms := that.memberships[member.ID()]
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(that.memberships, member.ID())
		}
	}

	delete(that.rooms, roomID)
}
