package protocol

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

type Event string

const (
	EventReady                Event = "ready"
	EventGameStart            Event = "gameStart"
	EventRoom                 Event = "room"
	EventMove                 Event = "move"
	EventOpponentMove         Event = "opponentMove"
	EventOpponentDisconnected Event = "opponentDisconnected"
	EventError                Event = "error"
)

// Envelope is the wire form of every event.
type Envelope struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is one variant of the event union.
type Message interface {
	Event() Event
	payload() any
}

// Peer is an endpoint of the event channel as seen by the coordinator.
type Peer interface {
	ID() string
	Send(msg Message) error
}

// Ready announces a client wants to be paired.
type Ready struct{}

// GameStart tells a client its symbol once pairing completed.
type GameStart struct {
	Symbol entity.Symbol `json:"symbol"`
}

// Room carries the shared room identifier. On the wire the payload is a bare string.
type Room struct {
	ID string
}

// Move is a local move the client wants relayed.
type Move struct {
	Index int    `json:"index"`
	Room  string `json:"room"`
}

// OpponentMove is the peer's move. On the wire the payload is a bare index.
type OpponentMove struct {
	Index int
}

type OpponentDisconnected struct{}

// Error reports a rejected event back to its sender.
type Error struct {
	Message string `json:"message"`
}

func (Ready) Event() Event                { return EventReady }
func (GameStart) Event() Event            { return EventGameStart }
func (Room) Event() Event                 { return EventRoom }
func (Move) Event() Event                 { return EventMove }
func (OpponentMove) Event() Event         { return EventOpponentMove }
func (OpponentDisconnected) Event() Event { return EventOpponentDisconnected }
func (Error) Event() Event                { return EventError }

func (Ready) payload() any                { return nil }
func (that GameStart) payload() any       { return that }
func (that Room) payload() any            { return that.ID }
func (that Move) payload() any            { return that }
func (that OpponentMove) payload() any    { return that.Index }
func (OpponentDisconnected) payload() any { return nil }
func (that Error) payload() any           { return that }
