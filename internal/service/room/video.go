package room

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/watchroom/server/internal/domain"
)

type AddVideoParams struct {
	SenderId        string
	RoomId          string
	Provider        domain.Provider
	Locator         string
	Title           string
	ScheduleKind    domain.ScheduleKind
	DueAt           *time.Time
	RelativeMinutes int
	RelativeCount   int
}

type AddVideoResponse struct {
	AddedVideo   domain.QueueItem
	Videos       []domain.QueueItem
	CurrentIndex int
}

// AddVideo appends a queue item and broadcasts the updated playlist. A
// relative-time schedule is resolved to an absolute due time at add time so
// the scheduler only ever compares clock cutoffs.
func (s service) AddVideo(ctx context.Context, params *AddVideoParams) (AddVideoResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return AddVideoResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return AddVideoResponse{}, err
	}

	if rm.Queue().Length() >= s.playlistLimit {
		return AddVideoResponse{}, ErrPlaylistLimitReached
	}

	// an absolute schedule without a due time would sit in the queue and
	// never fire
	if params.ScheduleKind == domain.ScheduleAbsolute && params.DueAt == nil {
		return AddVideoResponse{}, ErrInvalidSchedule
	}

	dueAt := params.DueAt
	if params.ScheduleKind == domain.ScheduleRelativeTime {
		t := time.Now().UTC().Add(time.Duration(params.RelativeMinutes) * time.Minute)
		dueAt = &t
	}

	item := domain.QueueItem{
		Id:              uuid.NewString(),
		Provider:        params.Provider,
		Locator:         params.Locator,
		Title:           params.Title,
		DueAt:           dueAt,
		ScheduleKind:    params.ScheduleKind,
		RelativeMinutes: params.RelativeMinutes,
		RelativeCount:   params.RelativeCount,
		CreatedAt:       time.Now().UTC(),
		AddedById:       params.SenderId,
	}
	added := rm.Queue().Append(item)

	videos, currentIndex, autoAdvance := rm.Queue().Snapshot()

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgQueueUpdated,
		Payload: domain.QueueUpdatedPayload{
			Videos:       videos,
			CurrentIndex: currentIndex,
			AutoAdvance:  autoAdvance,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast queue updated", "error", err)
	}

	return AddVideoResponse{
		AddedVideo:   added,
		Videos:       videos,
		CurrentIndex: currentIndex,
	}, nil
}

type RemoveVideoParams struct {
	SenderId string
	RoomId   string
	VideoId  string
}

type RemoveVideoResponse struct {
	Videos       []domain.QueueItem
	CurrentIndex int
}

func (s service) RemoveVideo(ctx context.Context, params *RemoveVideoParams) (RemoveVideoResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return RemoveVideoResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return RemoveVideoResponse{}, err
	}

	if !rm.Queue().RemoveById(params.VideoId) {
		return RemoveVideoResponse{}, ErrVideoNotFound
	}

	videos, currentIndex, autoAdvance := rm.Queue().Snapshot()

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgQueueUpdated,
		Payload: domain.QueueUpdatedPayload{
			Videos:       videos,
			CurrentIndex: currentIndex,
			AutoAdvance:  autoAdvance,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast queue updated", "error", err)
	}

	return RemoveVideoResponse{
		Videos:       videos,
		CurrentIndex: currentIndex,
	}, nil
}

type ReorderPlaylistParams struct {
	SenderId string
	RoomId   string
	VideoIds []string
}

type ReorderPlaylistResponse struct {
	Videos       []domain.QueueItem
	CurrentIndex int
}

func (s service) ReorderPlaylist(ctx context.Context, params *ReorderPlaylistParams) (ReorderPlaylistResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return ReorderPlaylistResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return ReorderPlaylistResponse{}, err
	}

	if !rm.Queue().Reorder(params.VideoIds) {
		return ReorderPlaylistResponse{}, ErrInvalidPlaylistOrder
	}

	videos, currentIndex, autoAdvance := rm.Queue().Snapshot()

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgQueueUpdated,
		Payload: domain.QueueUpdatedPayload{
			Videos:       videos,
			CurrentIndex: currentIndex,
			AutoAdvance:  autoAdvance,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast queue updated", "error", err)
	}

	return ReorderPlaylistResponse{
		Videos:       videos,
		CurrentIndex: currentIndex,
	}, nil
}

type UpdateAutoAdvanceParams struct {
	SenderId    string
	RoomId      string
	AutoAdvance bool
}

func (s service) UpdateAutoAdvance(ctx context.Context, params *UpdateAutoAdvanceParams) error {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return err
	}

	rm.Queue().SetAutoAdvance(params.AutoAdvance)

	videos, currentIndex, autoAdvance := rm.Queue().Snapshot()

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgQueueUpdated,
		Payload: domain.QueueUpdatedPayload{
			Videos:       videos,
			CurrentIndex: currentIndex,
			AutoAdvance:  autoAdvance,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast queue updated", "error", err)
	}

	return nil
}
