package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// Encode wraps a message into its envelope and marshals it.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", apperror.ErrMalformedEvent)
	}

	envelope := Envelope{Event: msg.Event()}

	if body := msg.payload(); body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", msg.Event(), err)
		}
		envelope.Payload = raw
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return data, nil
}

// Decode parses an envelope and validates its payload against the event it names.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", apperror.ErrMalformedEvent)
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrMalformedEvent, err)
	}

	switch envelope.Event {
	case EventReady:
		return Ready{}, nil
	case EventOpponentDisconnected:
		return OpponentDisconnected{}, nil
	case EventGameStart:
		return decodeGameStart(envelope)
	case EventRoom:
		return decodeRoom(envelope)
	case EventMove:
		return decodeMove(envelope)
	case EventOpponentMove:
		return decodeOpponentMove(envelope)
	case EventError:
		return decodeError(envelope)
	case "":
		return nil, fmt.Errorf("%w: missing event name", apperror.ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownEvent, envelope.Event)
	}
}

func decodePayload[T any](envelope Envelope) (T, error) {
	var out T
	if len(envelope.Payload) == 0 || string(envelope.Payload) == "null" {
		return out, fmt.Errorf("%w: empty payload for %s", apperror.ErrMalformedEvent, envelope.Event)
	}

	if err := json.Unmarshal(envelope.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %s payload: %v", apperror.ErrMalformedEvent, envelope.Event, err)
	}

	return out, nil
}

func decodeGameStart(envelope Envelope) (Message, error) {
	body, err := decodePayload[GameStart](envelope)
	if err != nil {
		return nil, err
	}

	if !body.Symbol.Valid() {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidSymbol, body.Symbol)
	}

	return body, nil
}

func decodeRoom(envelope Envelope) (Message, error) {
	id, err := decodePayload[string](envelope)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty room id", apperror.ErrMalformedEvent)
	}

	return Room{ID: id}, nil
}

// moveBody keeps pointers so absent fields can be told apart from zero values.
type moveBody struct {
	Index *int    `json:"index"`
	Room  *string `json:"room"`
}

func decodeMove(envelope Envelope) (Message, error) {
	body, err := decodePayload[moveBody](envelope)
	if err != nil {
		return nil, err
	}

	if body.Index == nil {
		return nil, fmt.Errorf("%w: move without index", apperror.ErrMalformedEvent)
	}

	if !entity.ValidCell(*body.Index) {
		return nil, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, *body.Index)
	}

	if body.Room == nil || strings.TrimSpace(*body.Room) == "" {
		return nil, fmt.Errorf("%w: move without room", apperror.ErrMalformedEvent)
	}

	return Move{Index: *body.Index, Room: *body.Room}, nil
}

func decodeOpponentMove(envelope Envelope) (Message, error) {
	index, err := decodePayload[int](envelope)
	if err != nil {
		return nil, err
	}

	if !entity.ValidCell(index) {
		return nil, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	return OpponentMove{Index: index}, nil
}

func decodeError(envelope Envelope) (Message, error) {
	body, err := decodePayload[Error](envelope)
	if err != nil {
		return nil, err
	}

	return body, nil
}
