package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/watchroom/server/internal/repository/roommeta"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getRoomMetaKey(roomCode string) string {
	return "roommeta:" + roomCode
}

func (r repo) getRoomCodeKey(roomId string) string {
	return "roommeta:id:" + roomId
}

func (r repo) SetRoomMeta(ctx context.Context, params *roommeta.SetRoomMetaParams) error {
	meta := roommeta.RoomMeta{
		RoomId:     params.RoomId,
		Name:       params.Name,
		OwnerId:    params.OwnerId,
		Visibility: string(params.Visibility),
		CreatedAt:  params.CreatedAt.Unix(),
		LastActive: params.CreatedAt.Unix(),
		Closed:     false,
	}

	pipe := r.rc.TxPipeline()

	metaKey := r.getRoomMetaKey(params.RoomCode)
	pipe.HSet(ctx, metaKey, meta)
	pipe.Expire(ctx, metaKey, r.expireDuration)

	codeKey := r.getRoomCodeKey(params.RoomId)
	pipe.Set(ctx, codeKey, params.RoomCode, r.expireDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set room metadata: %w", err)
	}

	return nil
}

func (r repo) GetRoomMeta(ctx context.Context, roomCode string) (roommeta.RoomMeta, error) {
	metaKey := r.getRoomMetaKey(roomCode)

	res, err := r.rc.Exists(ctx, metaKey).Result()
	if err != nil {
		return roommeta.RoomMeta{}, fmt.Errorf("failed to get room metadata: %w", err)
	}
	if res == 0 {
		return roommeta.RoomMeta{}, roommeta.ErrRoomMetaNotFound
	}

	var meta roommeta.RoomMeta
	if err := r.rc.HGetAll(ctx, metaKey).Scan(&meta); err != nil {
		return roommeta.RoomMeta{}, fmt.Errorf("failed to get room metadata: %w", err)
	}

	return meta, nil
}

func (r repo) TouchRoom(ctx context.Context, params *roommeta.TouchRoomParams) error {
	metaKey := r.getRoomMetaKey(params.RoomCode)
	if err := r.rc.HSet(ctx, metaKey, "last_active", params.LastActive.Unix()).Err(); err != nil {
		return fmt.Errorf("failed to touch room: %w", err)
	}

	r.rc.Expire(ctx, metaKey, r.expireDuration)

	return nil
}

// TouchRoomByRoomId refreshes the activity timestamp for a live room,
// resolving the room code through the id index.
func (r repo) TouchRoomByRoomId(ctx context.Context, roomId string) error {
	roomCode, err := r.rc.Get(ctx, r.getRoomCodeKey(roomId)).Result()
	if err != nil {
		if err == redis.Nil {
			return roommeta.ErrRoomMetaNotFound
		}
		return fmt.Errorf("failed to resolve room code: %w", err)
	}

	return r.TouchRoom(ctx, &roommeta.TouchRoomParams{
		RoomCode:   roomCode,
		LastActive: time.Now().UTC(),
	})
}

// SetRoomClosedByRoomId marks the metadata of an evicted live room as
// closed, resolving the room code through the id index.
func (r repo) SetRoomClosedByRoomId(ctx context.Context, roomId string) error {
	roomCode, err := r.rc.Get(ctx, r.getRoomCodeKey(roomId)).Result()
	if err != nil {
		if err == redis.Nil {
			return roommeta.ErrRoomMetaNotFound
		}
		return fmt.Errorf("failed to resolve room code: %w", err)
	}

	metaKey := r.getRoomMetaKey(roomCode)
	if err := r.rc.HSet(ctx, metaKey, "closed", true).Err(); err != nil {
		return fmt.Errorf("failed to close room: %w", err)
	}

	return nil
}
