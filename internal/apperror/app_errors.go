package apperror

import "errors"

var (
	ErrSelfPairing     = errors.New("client is already waiting for an opponent")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotRoomMember   = errors.New("client is not a member of the room")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrPeerUnavailable = errors.New("peer is unavailable")

	ErrNoAvailableMoves = errors.New("no available moves")
	ErrUnknownMode      = errors.New("unknown game mode")
)
