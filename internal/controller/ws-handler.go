package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchroom/server/internal/service/room"
)

// joinRoom upgrades the request, admits the member into the live room and
// serves its inbound messages until the connection drops. The member id and
// session token travel as query params; reconnecting clients may supply
// only the session token and have the id restored from it.
func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		c.logger.DebugContext(r.Context(), "empty room id")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		c.logger.DebugContext(r.Context(), "empty username")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	memberId := r.URL.Query().Get("member-id")
	sessionToken := r.URL.Query().Get("session-token")
	if memberId == "" && sessionToken != "" {
		restoredMemberId, restoredRoomId, err := c.roomService.RestoreSession(sessionToken)
		if err == nil && restoredRoomId == roomId {
			memberId = restoredMemberId
		}
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	wrapped := newWSConn(conn)

	joinResp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomId:       roomId,
		MemberId:     memberId,
		SessionToken: sessionToken,
		Username:     username,
		Conn:         wrapped,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to join room", "error", err)
		wrapped.Close()
		return
	}
	defer func() {
		if _, err := c.roomService.LeaveRoom(context.Background(), &room.LeaveRoomParams{
			RoomId:   roomId,
			MemberId: joinResp.MemberId,
			Conn:     wrapped,
		}); err != nil {
			c.logger.InfoContext(r.Context(), "failed to leave room", "error", err)
		}
	}()

	if err := wrapped.WriteJSON(&Output{
		Type: "JOINED_ROOM",
		Payload: map[string]any{
			"member_id":     joinResp.MemberId,
			"session_token": joinResp.SessionToken,
			"is_host":       joinResp.IsHost,
			"members":       joinResp.Members,
			"player":        joinResp.Player,
			"videos":        joinResp.Videos,
			"current_index": joinResp.CurrentIndex,
			"auto_advance":  joinResp.AutoAdvance,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
		return
	}

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, memberIdCtxKey, joinResp.MemberId)
	ctx = context.WithValue(ctx, connCtxKey, wrapped)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(r.Context(), "connection closed", "error", err)
	}
}
