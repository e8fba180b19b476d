package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const registryBuffer = 128

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	ListActiveIDs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type roomEvent struct {
	room   entity.Room
	closed bool
}

// RoomRegistry mirrors live rooms into storage. RoomOpened and RoomClosed
// never block; a full queue drops the update.
type RoomRegistry struct {
	logger   *slog.Logger
	roomRepo roomRepo

	events chan roomEvent
}

func NewRoomRegistry(logger *slog.Logger, roomRepo roomRepo) *RoomRegistry {
	return &RoomRegistry{
		logger:   logger.With("component", "room-registry"),
		roomRepo: roomRepo,

		events: make(chan roomEvent, registryBuffer),
	}
}

func (that *RoomRegistry) RoomOpened(room entity.Room) {
	that.offer(roomEvent{room: room})
}

func (that *RoomRegistry) RoomClosed(roomID string) {
	that.offer(roomEvent{room: entity.Room{ID: roomID}, closed: true})
}

func (that *RoomRegistry) offer(event roomEvent) {
	select {
	case that.events <- event:
	default:
		that.logger.Warn("registry queue full, update dropped", "room", event.room.ID, "closed", event.closed)
	}
}

// Run writes queued updates until ctx is done.
func (that *RoomRegistry) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-that.events:
			that.apply(ctx, event)
		}
	}
}

func (that *RoomRegistry) apply(ctx context.Context, event roomEvent) {
	log := that.logger.With("method", "apply", "room", event.room.ID)

	if event.closed {
		if err := that.roomRepo.DeleteByID(ctx, event.room.ID); err != nil {
			log.Warn("failed to remove room", "error", err)
		}
		return
	}

	room := event.room
	if err := that.roomRepo.CreateOrUpdate(ctx, &room); err != nil {
		log.Error("failed to store room", "error", err)
	}
}

func (that *RoomRegistry) ActiveRooms(ctx context.Context) ([]string, error) {
	ids, err := that.roomRepo.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rooms: %w", err)
	}
	return ids, nil
}

func (that *RoomRegistry) GetRoom(ctx context.Context, id string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve room from storage: %w", err)
	}
	return room, nil
}

// Ping reports whether room storage is reachable.
func (that *RoomRegistry) Ping(ctx context.Context) error {
	return that.roomRepo.Ping(ctx)
}
