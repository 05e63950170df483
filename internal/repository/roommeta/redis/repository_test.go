package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/repository/roommeta"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rc.Close()
	})

	return NewRepo(rc, time.Hour), mr
}

func setTestRoomMeta(t *testing.T, r *repo, roomCode, roomId string) time.Time {
	t.Helper()

	createdAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, r.SetRoomMeta(context.Background(), &roommeta.SetRoomMetaParams{
		RoomCode:   roomCode,
		RoomId:     roomId,
		Name:       "movie night",
		OwnerId:    "owner-1",
		Visibility: roommeta.VisibilityPublic,
		CreatedAt:  createdAt,
	}))

	return createdAt
}

func TestSetAndGetRoomMeta(t *testing.T) {
	r, mr := newTestRepo(t)

	createdAt := setTestRoomMeta(t, r, "abc12345", "room-1")

	meta, err := r.GetRoomMeta(context.Background(), "abc12345")
	require.NoError(t, err)
	assert.Equal(t, "room-1", meta.RoomId)
	assert.Equal(t, "movie night", meta.Name)
	assert.Equal(t, "owner-1", meta.OwnerId)
	assert.Equal(t, string(roommeta.VisibilityPublic), meta.Visibility)
	assert.Equal(t, createdAt.Unix(), meta.CreatedAt)
	assert.Equal(t, createdAt.Unix(), meta.LastActive)
	assert.False(t, meta.Closed)

	// both the meta hash and the id index must expire
	assert.Greater(t, mr.TTL("roommeta:abc12345"), time.Duration(0))
	assert.Greater(t, mr.TTL("roommeta:id:room-1"), time.Duration(0))
}

func TestGetRoomMetaNotFound(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.GetRoomMeta(context.Background(), "missing")
	assert.ErrorIs(t, err, roommeta.ErrRoomMetaNotFound)
}

func TestTouchRoomByRoomId(t *testing.T) {
	r, mr := newTestRepo(t)

	createdAt := setTestRoomMeta(t, r, "abc12345", "room-1")

	mr.FastForward(10 * time.Minute)
	require.NoError(t, r.TouchRoomByRoomId(context.Background(), "room-1"))

	meta, err := r.GetRoomMeta(context.Background(), "abc12345")
	require.NoError(t, err)
	assert.Greater(t, meta.LastActive, createdAt.Unix()-1)
	assert.Equal(t, createdAt.Unix(), meta.CreatedAt, "created at must not move")
}

func TestTouchRoomByRoomIdUnknownRoom(t *testing.T) {
	r, _ := newTestRepo(t)

	err := r.TouchRoomByRoomId(context.Background(), "ghost")
	assert.ErrorIs(t, err, roommeta.ErrRoomMetaNotFound)
}

func TestSetRoomClosedByRoomId(t *testing.T) {
	r, _ := newTestRepo(t)

	setTestRoomMeta(t, r, "abc12345", "room-1")

	require.NoError(t, r.SetRoomClosedByRoomId(context.Background(), "room-1"))

	meta, err := r.GetRoomMeta(context.Background(), "abc12345")
	require.NoError(t, err)
	assert.True(t, meta.Closed)
}

func TestSetRoomClosedByRoomIdUnknownRoom(t *testing.T) {
	r, _ := newTestRepo(t)

	err := r.SetRoomClosedByRoomId(context.Background(), "ghost")
	assert.ErrorIs(t, err, roommeta.ErrRoomMetaNotFound)
}
