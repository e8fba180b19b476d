package fakepeer

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

// Peer records every message sent to it.
type Peer struct {
	id string

	mu       sync.Mutex
	received []protocol.Message
	sendErr  error
}

func New(id string) *Peer {
	return &Peer{id: id}
}

func (that *Peer) ID() string {
	return that.id
}

func (that *Peer) Send(msg protocol.Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.sendErr != nil {
		return that.sendErr
	}

	that.received = append(that.received, msg)

	return nil
}

// FailWith makes every following Send return err.
func (that *Peer) FailWith(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sendErr = err
}

func (that *Peer) Received() []protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	out := make([]protocol.Message, len(that.received))
	copy(out, that.received)

	return out
}

// Count returns how many received messages carry the given event.
func (that *Peer) Count(event protocol.Event) int {
	n := 0
	for _, msg := range that.Received() {
		if msg.Event() == event {
			n++
		}
	}

	return n
}
