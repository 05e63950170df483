package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchroom/server/internal/repository/roommeta"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/rest"
)

type createRoomInput struct {
	Name       string `json:"name" validate:"required,max=64"`
	OwnerId    string `json:"owner_id" validate:"required"`
	Visibility string `json:"visibility" validate:"required,oneof=public private"`
}

type createRoomResponse struct {
	RoomCode string `json:"room_code"`
	RoomId   string `json:"room_id"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomInput

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	createResp, err := c.roomService.CreateRoomMeta(r.Context(), &room.CreateRoomMetaParams{
		Name:       req.Name,
		OwnerId:    req.OwnerId,
		Visibility: roommeta.Visibility(req.Visibility),
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to create room metadata", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createRoomResponse{
		RoomCode: createResp.RoomCode,
		RoomId:   createResp.RoomId,
	}})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "room-code")
	if roomCode == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	meta, err := c.roomService.GetRoomMeta(r.Context(), roomCode)
	if err != nil {
		if err == room.ErrRoomNotFound {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.InfoContext(r.Context(), "failed to get room metadata", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": meta})
}
