package wsrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routedError struct {
	messageType string
	err         error
}

func dialTestRouter(t *testing.T, mux *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		mux.ServeConn(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestServeConnDispatchesByType(t *testing.T) {
	payloads := make(chan json.RawMessage, 1)

	mux := New()
	mux.Handle("PING", func(_ context.Context, _ *websocket.Conn, payload json.RawMessage) error {
		payloads <- payload
		return nil
	})

	client := dialTestRouter(t, mux)
	require.NoError(t, client.WriteJSON(map[string]any{
		"type":    "PING",
		"payload": map[string]any{"n": 1},
	}))

	select {
	case payload := <-payloads:
		assert.JSONEq(t, `{"n":1}`, string(payload))
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestServeConnRoutesUnknownTypeToErrorCallback(t *testing.T) {
	errs := make(chan routedError, 1)

	mux := New()
	mux.HandleError(func(_ context.Context, _ *websocket.Conn, messageType string, err error) {
		errs <- routedError{messageType: messageType, err: err}
	})

	client := dialTestRouter(t, mux)
	require.NoError(t, client.WriteJSON(map[string]any{
		"type":    "BOGUS",
		"payload": map[string]any{},
	}))

	select {
	case routed := <-errs:
		assert.Equal(t, "BOGUS", routed.messageType)
		assert.ErrorIs(t, routed.err, ErrUnknownMessageType)
	case <-time.After(time.Second):
		t.Fatal("error callback was not invoked")
	}

	// the router must not have replied on its own; write serialization
	// belongs to the callback's connection wrapper
	require.NoError(t, client.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err, "no frame must come back from the router itself")
}

func TestServeConnRoutesHandlerErrors(t *testing.T) {
	errs := make(chan routedError, 1)

	mux := New()
	mux.Handle("FAIL", func(_ context.Context, _ *websocket.Conn, _ json.RawMessage) error {
		return assert.AnError
	})
	mux.HandleError(func(_ context.Context, _ *websocket.Conn, messageType string, err error) {
		errs <- routedError{messageType: messageType, err: err}
	})

	client := dialTestRouter(t, mux)
	require.NoError(t, client.WriteJSON(map[string]any{
		"type":    "FAIL",
		"payload": map[string]any{},
	}))

	select {
	case routed := <-errs:
		assert.Equal(t, "FAIL", routed.messageType)
		assert.ErrorIs(t, routed.err, assert.AnError)
	case <-time.After(time.Second):
		t.Fatal("error callback was not invoked")
	}
}
