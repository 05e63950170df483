package room

import (
	"context"
	"time"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/room"
)

type UpdatePlayerStateParams struct {
	SenderId    string
	RoomId      string
	IsPlaying   bool
	CurrentTime float64
}

type UpdatePlayerStateResponse struct {
	Player domain.Player
}

// UpdatePlayerState applies a play/pause/seek command and broadcasts the
// new state to everyone but the sender.
func (s service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) (UpdatePlayerStateResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	player := rm.UpdatePlayerState(&room.UpdatePlayerStateParams{
		IsPlaying:   params.IsPlaying,
		CurrentTime: params.CurrentTime,
	})

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgVideoChanged,
		Payload: domain.VideoChangedPayload{
			Player: player,
		},
	}, params.SenderId); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast video changed", "error", err)
	}

	return UpdatePlayerStateResponse{Player: player}, nil
}

type PlayVideoParams struct {
	SenderId string
	RoomId   string
	VideoId  string
}

type PlayVideoResponse struct {
	CurrentVideo domain.QueueItem
	Videos       []domain.QueueItem
	CurrentIndex int
	Player       domain.Player
}

// PlayVideo is the host-initiated skip: the cursor jumps straight onto the
// given item and playback restarts from zero, paused.
func (s service) PlayVideo(ctx context.Context, params *PlayVideoParams) (PlayVideoResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return PlayVideoResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return PlayVideoResponse{}, err
	}

	current, ok := rm.Queue().AdvanceToItem(params.VideoId)
	if !ok {
		return PlayVideoResponse{}, ErrVideoNotFound
	}

	player := domain.Player{
		Provider:    current.Provider,
		Locator:     current.Locator,
		IsPlaying:   false,
		CurrentTime: 0,
		UpdatedAt:   time.Now().UTC(),
	}
	rm.SetPlayer(player)

	videos, currentIndex, _ := rm.Queue().Snapshot()

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgQueueAdvance,
		Payload: domain.QueueAdvancePayload{
			CurrentVideo: current,
			Videos:       videos,
			CurrentIndex: currentIndex,
			Player:       player,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast queue advance", "error", err)
	}

	return PlayVideoResponse{
		CurrentVideo: current,
		Videos:       videos,
		CurrentIndex: currentIndex,
		Player:       player,
	}, nil
}

type NextVideoParams struct {
	SenderId string
	RoomId   string
}

type NextVideoResponse struct {
	CurrentVideo domain.QueueItem
	Videos       []domain.QueueItem
	CurrentIndex int
	Player       domain.Player
	Exhausted    bool
}

// NextVideo advances the cursor by one. When nothing further is queued the
// room is told the queue is exhausted instead.
func (s service) NextVideo(ctx context.Context, params *NextVideoParams) (NextVideoResponse, error) {
	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return NextVideoResponse{}, err
	}

	if err := s.checkIfHost(rm, params.SenderId); err != nil {
		return NextVideoResponse{}, err
	}

	current, ok := rm.Queue().AdvanceToNext()
	if !ok {
		videos, currentIndex, _ := rm.Queue().Snapshot()
		if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
			Type: domain.MsgQueueExhausted,
			Payload: domain.QueueExhaustedPayload{
				Videos:       videos,
				CurrentIndex: currentIndex,
			},
		}, ""); err != nil {
			s.logger.InfoContext(ctx, "failed to broadcast queue exhausted", "error", err)
		}

		return NextVideoResponse{
			Videos:       videos,
			CurrentIndex: currentIndex,
			Exhausted:    true,
		}, nil
	}

	player := domain.Player{
		Provider:    current.Provider,
		Locator:     current.Locator,
		IsPlaying:   false,
		CurrentTime: 0,
		UpdatedAt:   time.Now().UTC(),
	}
	rm.SetPlayer(player)

	videos, currentIndex, _ := rm.Queue().Snapshot()

	if err := s.registry.Broadcast(ctx, params.RoomId, &domain.Output{
		Type: domain.MsgQueueAdvance,
		Payload: domain.QueueAdvancePayload{
			CurrentVideo: current,
			Videos:       videos,
			CurrentIndex: currentIndex,
			Player:       player,
		},
	}, ""); err != nil {
		s.logger.InfoContext(ctx, "failed to broadcast queue advance", "error", err)
	}

	return NextVideoResponse{
		CurrentVideo: current,
		Videos:       videos,
		CurrentIndex: currentIndex,
		Player:       player,
	}, nil
}
