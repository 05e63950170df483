package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/room"
)

type iRegistry interface {
	Rooms() []*room.Room
	Broadcast(ctx context.Context, roomId string, msg *domain.Output, excludeMemberId string) error
}

// Scheduler is the background loop that advances queues when wall-clock
// scheduled items become due and fires room-level one-shots. One room's
// fault never aborts the tick or delays other rooms; a missed tick only
// pushes scheduled playback later by up to one interval, since due times
// are static cutoffs.
type Scheduler struct {
	registry iRegistry
	interval time.Duration
	logger   *slog.Logger
}

func New(registry iRegistry, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. In-flight per-room broadcasts are
// allowed to complete; cancellation is observed between ticks.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx, time.Now().UTC())
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	for _, rm := range s.registry.Rooms() {
		s.processRoom(ctx, rm, now)
	}
}

func (s *Scheduler) processRoom(ctx context.Context, rm *room.Room, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "panic while processing room",
				"room_id", rm.Id,
				"panic", rec,
			)
		}
	}()

	s.advanceDueQueueItems(ctx, rm, now)
	s.fireDueScheduledVideos(ctx, rm, now)
}

func (s *Scheduler) advanceDueQueueItems(ctx context.Context, rm *room.Room, now time.Time) {
	for _, item := range rm.Queue().DueItems(now) {
		current, ok := rm.Queue().AdvanceToItem(item.Id)
		if !ok {
			// Removed between the due query and the advance.
			continue
		}

		player := domain.Player{
			Provider:    current.Provider,
			Locator:     current.Locator,
			IsPlaying:   false,
			CurrentTime: 0,
			UpdatedAt:   now,
		}
		rm.SetPlayer(player)

		videos, currentIndex, _ := rm.Queue().Snapshot()
		if err := s.registry.Broadcast(ctx, rm.Id, &domain.Output{
			Type: domain.MsgQueueAdvance,
			Payload: domain.QueueAdvancePayload{
				CurrentVideo: current,
				Videos:       videos,
				CurrentIndex: currentIndex,
				Player:       player,
			},
		}, ""); err != nil {
			s.logger.InfoContext(ctx, "failed to broadcast queue advance",
				"room_id", rm.Id,
				"error", err,
			)
		}
	}
}

func (s *Scheduler) fireDueScheduledVideos(ctx context.Context, rm *room.Room, now time.Time) {
	for _, sv := range rm.DueScheduledVideos(now) {
		if !rm.MarkScheduledVideoPlayed(sv.Id) {
			// Cancelled between the due query and the fire.
			continue
		}

		player := domain.Player{
			Provider:    sv.Provider,
			Locator:     sv.Locator,
			IsPlaying:   false,
			CurrentTime: 0,
			UpdatedAt:   now,
		}
		rm.SetPlayer(player)

		if err := s.registry.Broadcast(ctx, rm.Id, &domain.Output{
			Type: domain.MsgVideoChanged,
			Payload: domain.VideoChangedPayload{
				Player: player,
			},
		}, ""); err != nil {
			s.logger.InfoContext(ctx, "failed to broadcast video changed",
				"room_id", rm.Id,
				"error", err,
			)
		}
	}
}
