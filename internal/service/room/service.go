package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/roommeta"
	"github.com/watchroom/server/internal/room"
	"github.com/watchroom/server/pkg/randstr"
)

var (
	ErrPermissionDenied       = errors.New("permission denied")
	ErrRoomNotFound           = errors.New("room not found")
	ErrMemberNotFound         = errors.New("member not found")
	ErrVideoNotFound          = errors.New("video not found")
	ErrScheduledVideoNotFound = errors.New("scheduled video not found")
	ErrInvalidPlaylistOrder   = errors.New("invalid playlist order")
	ErrInvalidSchedule        = errors.New("invalid schedule")
	ErrPlaylistLimitReached   = errors.New("playlist limit reached")
)

type iRegistry interface {
	Admit(ctx context.Context, params *room.AdmitParams) (room.AdmitResponse, error)
	Retire(ctx context.Context, roomId, memberId string, expected room.Conn) room.RetireResponse
	SessionMatches(roomId, memberId, sessionToken string) bool
	ReassignHostIfNeeded(roomId string) (string, bool)
	Broadcast(ctx context.Context, roomId string, msg *domain.Output, excludeMemberId string) error
	Unicast(ctx context.Context, roomId, memberId string, msg *domain.Output) error
	GetRoom(roomId string) (*room.Room, bool)
}

type iRoomMetaRepo interface {
	SetRoomMeta(ctx context.Context, params *roommeta.SetRoomMetaParams) error
	GetRoomMeta(ctx context.Context, roomCode string) (roommeta.RoomMeta, error)
	TouchRoomByRoomId(ctx context.Context, roomId string) error
	SetRoomClosedByRoomId(ctx context.Context, roomId string) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret        string
	PlaylistLimit int
}

type service struct {
	registry      iRegistry
	metaRepo      iRoomMetaRepo
	generator     iGenerator
	logger        *slog.Logger
	secret        string
	playlistLimit int
}

func NewService(registry iRegistry, metaRepo iRoomMetaRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		registry:      registry,
		metaRepo:      metaRepo,
		generator:     randstr.NewDefault(),
		logger:        logger,
		secret:        cfg.Secret,
		playlistLimit: cfg.PlaylistLimit,
	}
}

func (s service) getRoom(roomId string) (*room.Room, error) {
	rm, ok := s.registry.GetRoom(roomId)
	if !ok {
		return nil, ErrRoomNotFound
	}

	return rm, nil
}

func (s service) checkIfHost(rm *room.Room, senderId string) error {
	if !rm.IsHost(senderId) {
		return ErrPermissionDenied
	}

	return nil
}
