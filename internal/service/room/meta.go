package room

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/watchroom/server/internal/repository/roommeta"
)

const roomCodeLength = 8

type CreateRoomMetaParams struct {
	Name       string
	OwnerId    string
	Visibility roommeta.Visibility
}

type CreateRoomMetaResponse struct {
	RoomCode string
	RoomId   string
}

// CreateRoomMeta persists the durable metadata record for a new room and
// returns the stable room code alongside the live room id. The live room
// itself only comes into being on the first websocket admission.
func (s service) CreateRoomMeta(ctx context.Context, params *CreateRoomMetaParams) (CreateRoomMetaResponse, error) {
	roomId := uuid.NewString()
	roomCode := s.generator.GenerateRandomString(roomCodeLength)

	if err := s.metaRepo.SetRoomMeta(ctx, &roommeta.SetRoomMetaParams{
		RoomCode:   roomCode,
		RoomId:     roomId,
		Name:       params.Name,
		OwnerId:    params.OwnerId,
		Visibility: params.Visibility,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set room metadata", "error", err)
		return CreateRoomMetaResponse{}, err
	}

	return CreateRoomMetaResponse{
		RoomCode: roomCode,
		RoomId:   roomId,
	}, nil
}

func (s service) GetRoomMeta(ctx context.Context, roomCode string) (roommeta.RoomMeta, error) {
	meta, err := s.metaRepo.GetRoomMeta(ctx, roomCode)
	if err != nil {
		if err == roommeta.ErrRoomMetaNotFound {
			return roommeta.RoomMeta{}, ErrRoomNotFound
		}
		s.logger.InfoContext(ctx, "failed to get room metadata", "error", err)
		return roommeta.RoomMeta{}, err
	}

	return meta, nil
}
