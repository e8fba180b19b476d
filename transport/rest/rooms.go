package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

type RoomHandlers struct {
	logger   *slog.Logger
	registry roomRegistry
}

type roomsResponse struct {
	Rooms []string `json:"rooms"`
}

func NewRoomHandlers(logger *slog.Logger, registry roomRegistry) *RoomHandlers {
	return &RoomHandlers{
		logger:   logger.With("component", "rest"),
		registry: registry,
	}
}

func (that *RoomHandlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ListRooms")

	ids, err := that.registry.ActiveRooms(r.Context())
	if err != nil {
		log.Error("failed to list rooms", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if ids == nil {
		ids = []string{}
	}

	that.writeJSON(w, roomsResponse{Rooms: ids})
}

func (that *RoomHandlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetRoom")

	id := mux.Vars(r)["id"]

	room, err := that.registry.GetRoom(r.Context(), id)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get room", "room", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, room)
}

func (that *RoomHandlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
