package wsrouter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
)

var ErrUnknownMessageType = errors.New("unknown message type")

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type ErrorFunc func(ctx context.Context, conn *websocket.Conn, messageType string, err error)

// WSRouter dispatches inbound `{type, payload}` messages to registered
// handlers. Handler errors go to the error callback; the read loop keeps
// serving until the connection errors out.
type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

func (r *WSRouter) HandleError(onError ErrorFunc) {
	r.onError = onError
}

// ServeConn reads messages until the connection errors out. The router never
// writes to the connection itself; gorilla allows a single concurrent writer
// and serialization is the error callback's concern.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			if r.onError != nil {
				r.onError(ctx, conn, msg.Type, ErrUnknownMessageType)
			}
			continue
		}

		if err := handler(ctx, conn, msg.Payload); err != nil && r.onError != nil {
			r.onError(ctx, conn, msg.Type, err)
		}
	}
}
