package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const activeRoomsKey = "rooms:active"

type RoomRepository interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	ListActiveIDs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository stores live rooms only; every record expires after ttl.
// A ttl of zero or less keeps records until they are deleted.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func roomKey(id string) string {
	return "room:" + id
}

func (that *dbRoom) CreateOrUpdate(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(room.ID), roomJSON, that.ttl)
		pipe.SAdd(ctx, activeRoomsKey, room.ID)
		if that.ttl > 0 {
			pipe.Expire(ctx, activeRoomsKey, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	var existingRoom entity.Room
	if err = json.Unmarshal([]byte(response), &existingRoom); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &existingRoom, nil
}

func (that *dbRoom) DeleteByID(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, roomKey(id))
		pipe.SRem(ctx, activeRoomsKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete room by id: %w", err)
	}

	if deleted.Val() == 0 {
		return apperror.ErrRoomNotFound
	}

	return nil
}

// ListActiveIDs returns live room ids, dropping index entries whose record expired.
func (that *dbRoom) ListActiveIDs(ctx context.Context) ([]string, error) {
	ids, err := that.client.SMembers(ctx, activeRoomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	active := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := that.client.Exists(ctx, roomKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check room %s: %w", id, err)
		}

		if exists == 0 {
			_ = that.client.SRem(ctx, activeRoomsKey, id).Err()
			continue
		}

		active = append(active, id)
	}

	sort.Strings(active)

	return active, nil
}

func (that *dbRoom) Ping(ctx context.Context) error {
	if err := that.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping storage: %w", err)
	}

	return nil
}
