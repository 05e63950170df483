package controller

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla connection to the room.Conn interface. Gorilla
// allows only one concurrent writer, and the registry fans out and the read
// loop reply on the same connection, so writes are serialized here.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (w *wsConn) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}
