package entity

import "time"

const RoomPrefix = "room-"

// Room is a live pairing of exactly two clients.
type Room struct {
	ID        string    `json:"id"`
	PlayerX   string    `json:"player_x"`
	PlayerO   string    `json:"player_o"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomID derives the room identifier from the client that waited for the pairing.
func RoomID(waitingClientID string) string {
	return RoomPrefix + waitingClientID
}
