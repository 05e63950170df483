package room

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/watchroom/server/internal/domain"
)

type ScheduleVideoParams struct {
	SenderId string
	RoomId   string
	Provider domain.Provider
	Locator  string
	Title    string
	DueAt    time.Time
}

type ScheduleVideoResponse struct {
	ScheduledVideo domain.ScheduledVideo
}

// ScheduleVideo registers a room-level one-shot: play this source at this
// clock time, independent of the queue.
func (s service) ScheduleVideo(ctx context.Context, params *ScheduleVideoParams) (ScheduleVideoResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return ScheduleVideoResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return ScheduleVideoResponse{}, err
	}

	sv := domain.ScheduledVideo{
		Id:        uuid.NewString(),
		Provider:  params.Provider,
		Locator:   params.Locator,
		Title:     params.Title,
		DueAt:     params.DueAt.UTC(),
		AddedById: params.SenderId,
	}
	rm.AddScheduledVideo(sv)

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgScheduledVideoAdded,
		Payload: domain.ScheduledVideoAddedPayload{
			ScheduledVideo: sv,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast scheduled video added", "error", err)
	}

	return ScheduleVideoResponse{ScheduledVideo: sv}, nil
}

type CancelScheduledVideoParams struct {
	SenderId         string
	RoomId           string
	ScheduledVideoId string
}

func (s service) CancelScheduledVideo(ctx context.Context, params *CancelScheduledVideoParams) error {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return err
	}

	if !rm.CancelScheduledVideo(params.ScheduledVideoId) {
		return ErrScheduledVideoNotFound
	}

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgScheduledVideoCancelled,
		Payload: domain.ScheduledVideoCancelledPayload{
			ScheduledVideoId: params.ScheduledVideoId,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast scheduled video cancelled", "error", err)
	}

	return nil
}

type NextScheduledVideoResponse struct {
	ScheduledVideo domain.ScheduledVideo
	Found          bool
}

func (s service) NextScheduledVideo(ctx context.Context, roomId string) (NextScheduledVideoResponse, error) {
	rm, err := s.getRoom(roomId)
	if err != nil {
		return NextScheduledVideoResponse{}, err
	}

	sv, found := rm.NextScheduledVideo()

	return NextScheduledVideoResponse{
		ScheduledVideo: sv,
		Found:          found,
	}, nil
}
