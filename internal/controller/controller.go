package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/roommeta"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/validator"
	"github.com/watchroom/server/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	SessionMatches(roomId, memberId, sessionToken string) bool
	RestoreSession(tokenString string) (string, string, error)

	AddVideo(context.Context, *room.AddVideoParams) (room.AddVideoResponse, error)
	RemoveVideo(context.Context, *room.RemoveVideoParams) (room.RemoveVideoResponse, error)
	ReorderPlaylist(context.Context, *room.ReorderPlaylistParams) (room.ReorderPlaylistResponse, error)
	UpdateAutoAdvance(context.Context, *room.UpdateAutoAdvanceParams) error

	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.UpdatePlayerStateResponse, error)
	PlayVideo(context.Context, *room.PlayVideoParams) (room.PlayVideoResponse, error)
	NextVideo(context.Context, *room.NextVideoParams) (room.NextVideoResponse, error)

	ScheduleVideo(context.Context, *room.ScheduleVideoParams) (room.ScheduleVideoResponse, error)
	CancelScheduledVideo(context.Context, *room.CancelScheduledVideoParams) error
	NextScheduledVideo(ctx context.Context, roomId string) (room.NextScheduledVideoResponse, error)

	CreateRoomMeta(context.Context, *room.CreateRoomMetaParams) (room.CreateRoomMetaResponse, error)
	GetRoomMeta(ctx context.Context, roomCode string) (roommeta.RoomMeta, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

// Output mirrors domain.Output for messages written directly to the
// requesting connection (broadcasts go through the registry).
type Output = domain.Output
