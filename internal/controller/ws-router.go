package controller

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/pkg/wsrouter"
)

func (c controller) getConnFromCtx(ctx context.Context) *wsConn {
	conn, ok := ctx.Value(connCtxKey).(*wsConn)
	if !ok {
		return nil
	}

	return conn
}

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("ALIVE", c.handleAlive)

	// queue
	mux.Handle("ADD_VIDEO", c.handleAddVideo)
	mux.Handle("REMOVE_VIDEO", c.handleRemoveVideo)
	mux.Handle("REORDER_PLAYLIST", c.handleReorderPlaylist)
	mux.Handle("UPDATE_AUTO_ADVANCE", c.handleUpdateAutoAdvance)

	// player
	mux.Handle("UPDATE_PLAYER_STATE", c.handleUpdatePlayerState)
	mux.Handle("PLAY_VIDEO", c.handlePlayVideo)
	mux.Handle("NEXT_VIDEO", c.handleNextVideo)

	// scheduling
	mux.Handle("SCHEDULE_VIDEO", c.handleScheduleVideo)
	mux.Handle("CANCEL_SCHEDULED_VIDEO", c.handleCancelScheduledVideo)
	mux.Handle("GET_NEXT_SCHEDULED_VIDEO", c.handleGetNextScheduledVideo)

	mux.HandleError(c.handleWSError)

	return mux
}

func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, messageType string, err error) {
	c.logger.InfoContext(ctx, "failed to handle message",
		"message_type", messageType,
		"error", err,
	)

	if conn := c.getConnFromCtx(ctx); conn != nil {
		if werr := conn.WriteJSON(&Output{
			Type: "ERROR",
			Payload: map[string]any{
				"message_type": messageType,
				"error":        err.Error(),
			},
		}); werr != nil {
			c.logger.DebugContext(ctx, "failed to write error", "error", werr)
		}
	}
}
