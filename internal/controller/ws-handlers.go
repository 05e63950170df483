package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/service/room"
)

func (c controller) unmarshalInput(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if validationErrors, ok := c.validate.Validate(dst); !ok {
		return fmt.Errorf("invalid payload: %v", validationErrors)
	}

	return nil
}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	return nil
}

type addVideoInput struct {
	Provider        string     `json:"provider" validate:"required,oneof=upload url youtube"`
	Locator         string     `json:"locator" validate:"required"`
	Title           string     `json:"title"`
	ScheduleKind    string     `json:"schedule_kind" validate:"omitempty,oneof=none absolute relative_time relative_count"`
	DueAt           *time.Time `json:"due_at" validate:"required_if=ScheduleKind absolute"`
	RelativeMinutes int        `json:"relative_minutes"`
	RelativeCount   int        `json:"relative_count"`
}

func (c controller) handleAddVideo(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input addVideoInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	scheduleKind := domain.ScheduleKind(input.ScheduleKind)
	if scheduleKind == "" {
		scheduleKind = domain.ScheduleNone
	}

	if _, err := c.roomService.AddVideo(ctx, &room.AddVideoParams{
		SenderId:        c.getMemberIdFromCtx(ctx),
		RoomId:          c.getRoomIdFromCtx(ctx),
		Provider:        domain.Provider(input.Provider),
		Locator:         input.Locator,
		Title:           input.Title,
		ScheduleKind:    scheduleKind,
		DueAt:           input.DueAt,
		RelativeMinutes: input.RelativeMinutes,
		RelativeCount:   input.RelativeCount,
	}); err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}

	return nil
}

type removeVideoInput struct {
	VideoId string `json:"video_id" validate:"required"`
}

func (c controller) handleRemoveVideo(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input removeVideoInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if _, err := c.roomService.RemoveVideo(ctx, &room.RemoveVideoParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
		VideoId:  input.VideoId,
	}); err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	return nil
}

type reorderPlaylistInput struct {
	VideoIds []string `json:"video_ids" validate:"required"`
}

func (c controller) handleReorderPlaylist(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input reorderPlaylistInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if _, err := c.roomService.ReorderPlaylist(ctx, &room.ReorderPlaylistParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
		VideoIds: input.VideoIds,
	}); err != nil {
		return fmt.Errorf("failed to reorder playlist: %w", err)
	}

	return nil
}

type updateAutoAdvanceInput struct {
	AutoAdvance bool `json:"auto_advance"`
}

func (c controller) handleUpdateAutoAdvance(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input updateAutoAdvanceInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if err := c.roomService.UpdateAutoAdvance(ctx, &room.UpdateAutoAdvanceParams{
		SenderId:    c.getMemberIdFromCtx(ctx),
		RoomId:      c.getRoomIdFromCtx(ctx),
		AutoAdvance: input.AutoAdvance,
	}); err != nil {
		return fmt.Errorf("failed to update auto advance: %w", err)
	}

	return nil
}

type updatePlayerStateInput struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
}

func (c controller) handleUpdatePlayerState(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input updatePlayerStateInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if _, err := c.roomService.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		SenderId:    c.getMemberIdFromCtx(ctx),
		RoomId:      c.getRoomIdFromCtx(ctx),
		IsPlaying:   input.IsPlaying,
		CurrentTime: input.CurrentTime,
	}); err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	return nil
}

type playVideoInput struct {
	VideoId string `json:"video_id" validate:"required"`
}

func (c controller) handlePlayVideo(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input playVideoInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if _, err := c.roomService.PlayVideo(ctx, &room.PlayVideoParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
		VideoId:  input.VideoId,
	}); err != nil {
		return fmt.Errorf("failed to play video: %w", err)
	}

	return nil
}

func (c controller) handleNextVideo(ctx context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	if _, err := c.roomService.NextVideo(ctx, &room.NextVideoParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to advance to next video: %w", err)
	}

	return nil
}

type scheduleVideoInput struct {
	Provider string    `json:"provider" validate:"required,oneof=upload url youtube"`
	Locator  string    `json:"locator" validate:"required"`
	Title    string    `json:"title"`
	DueAt    time.Time `json:"due_at" validate:"required"`
}

func (c controller) handleScheduleVideo(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input scheduleVideoInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if _, err := c.roomService.ScheduleVideo(ctx, &room.ScheduleVideoParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
		Provider: domain.Provider(input.Provider),
		Locator:  input.Locator,
		Title:    input.Title,
		DueAt:    input.DueAt,
	}); err != nil {
		return fmt.Errorf("failed to schedule video: %w", err)
	}

	return nil
}

type cancelScheduledVideoInput struct {
	ScheduledVideoId string `json:"scheduled_video_id" validate:"required"`
}

func (c controller) handleCancelScheduledVideo(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input cancelScheduledVideoInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	if err := c.roomService.CancelScheduledVideo(ctx, &room.CancelScheduledVideoParams{
		SenderId:         c.getMemberIdFromCtx(ctx),
		RoomId:           c.getRoomIdFromCtx(ctx),
		ScheduledVideoId: input.ScheduledVideoId,
	}); err != nil {
		return fmt.Errorf("failed to cancel scheduled video: %w", err)
	}

	return nil
}

func (c controller) handleGetNextScheduledVideo(ctx context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	nextResp, err := c.roomService.NextScheduledVideo(ctx, c.getRoomIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to get next scheduled video: %w", err)
	}

	conn := c.getConnFromCtx(ctx)
	if conn == nil {
		return nil
	}

	payloadOut := map[string]any{"found": nextResp.Found}
	if nextResp.Found {
		payloadOut["scheduled_video"] = nextResp.ScheduledVideo
	}

	if err := conn.WriteJSON(&Output{
		Type:    "NEXT_SCHEDULED_VIDEO",
		Payload: payloadOut,
	}); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}

	return nil
}
