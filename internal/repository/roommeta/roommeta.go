// Package roommeta defines the durable room metadata the registry's live
// state is not: ownership, visibility, name and activity, keyed by a stable
// room code distinct from the live room id.
package roommeta

import (
	"errors"
	"time"
)

var ErrRoomMetaNotFound = errors.New("room metadata not found")

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type RoomMeta struct {
	RoomId     string `redis:"room_id"`
	Name       string `redis:"name"`
	OwnerId    string `redis:"owner_id"`
	Visibility string `redis:"visibility"`
	CreatedAt  int64  `redis:"created_at"`
	LastActive int64  `redis:"last_active"`
	Closed     bool   `redis:"closed"`
}

type SetRoomMetaParams struct {
	RoomCode   string
	RoomId     string
	Name       string
	OwnerId    string
	Visibility Visibility
	CreatedAt  time.Time
}

type TouchRoomParams struct {
	RoomCode   string
	LastActive time.Time
}
