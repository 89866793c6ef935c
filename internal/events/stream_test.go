package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/api"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type subscription struct {
	Type string `json:"type"`
	Data struct {
		Action string `json:"action"`
		Types  []string
		IDs    []int `json:"installation_ids"`
	} `json:"data"`
}

// eventServer accepts websocket connections and hands each one to handle.
func eventServer(t *testing.T, handle func(n int, conn *websocket.Conn, auth string)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer good" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := int(count.Add(1))
		handle(n, conn, auth)
	}))
	t.Cleanup(srv.Close)
	return srv, &count
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(srv *httptest.Server) Config {
	return Config{
		URL:               wsURL(srv),
		Token:             "good",
		InstallationIDs:   []int{21},
		ReconnectDelay:    5 * time.Millisecond,
		MaxReconnectDelay: 20 * time.Millisecond,
		Logger:            zap.NewNop(),
	}
}

func readSubscription(t *testing.T, conn *websocket.Conn) subscription {
	var sub subscription
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return sub
	}
	_ = json.Unmarshal(msg, &sub)
	return sub
}

func next(t *testing.T, s *Stream) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "stream ended early: %v", s.Err())
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"OUTPUT_CHANGE","data":{"id":18,"installation_id":21,"status":{"on":true,"value":50}}}`))
	require.NoError(t, err)
	assert.Equal(t, "OUTPUT_CHANGE", ev.Type)
	assert.Equal(t, 18, ev.ID)
	assert.Equal(t, 21, ev.InstallationID)
	assert.JSONEq(t, `{"on":true,"value":50}`, string(ev.Status()))
	assert.False(t, ev.ReceivedAt.IsZero())

	_, err = ParseEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)

	ev, err = ParseEvent([]byte(`{"type":"PING"}`))
	require.NoError(t, err)
	assert.Zero(t, ev.ID)
	assert.Nil(t, ev.Status())
}

func TestDial_SubscribesAndDelivers(t *testing.T) {
	subs := make(chan subscription, 1)
	srv, _ := eventServer(t, func(_ int, conn *websocket.Conn, _ string) {
		subs <- readSubscription(t, conn)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"OUTPUT_CHANGE","data":{"id":3,"installation_id":21}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SENSOR_CHANGE","data":{"id":4,"installation_id":21}}`))
		_, _, _ = conn.ReadMessage()
	})

	s, err := Dial(context.Background(), testConfig(srv))
	require.NoError(t, err)
	defer s.Close()

	sub := <-subs
	assert.Equal(t, "ACTION", sub.Type)
	assert.Equal(t, "set_subscription", sub.Data.Action)
	assert.Equal(t, []int{21}, sub.Data.IDs)

	first := next(t, s)
	assert.Equal(t, "OUTPUT_CHANGE", first.Type)
	assert.Equal(t, 3, first.ID)
	second := next(t, s)
	assert.Equal(t, "SENSOR_CHANGE", second.Type)
	assert.Equal(t, 1, s.Connections())
}

func TestDial_Reconnects(t *testing.T) {
	srv, count := eventServer(t, func(n int, conn *websocket.Conn, _ string) {
		readSubscription(t, conn)
		msg := fmt.Sprintf(`{"type":"OUTPUT_CHANGE","data":{"id":%d}}`, n)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
		if n == 1 {
			return
		}
		_, _, _ = conn.ReadMessage()
	})

	s, err := Dial(context.Background(), testConfig(srv))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, next(t, s).ID)
	assert.Equal(t, 2, next(t, s).ID)
	assert.Equal(t, int32(2), count.Load())
	assert.NoError(t, s.Err())
}

func TestDial_RejectedCredentials(t *testing.T) {
	srv, count := eventServer(t, func(int, *websocket.Conn, string) {})
	cfg := testConfig(srv)
	cfg.Token = "bad"

	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	assert.Zero(t, count.Load())
}

type rotatingToken struct {
	tokens      []string
	invalidated atomic.Int32
}

func (r *rotatingToken) Token(context.Context) (string, error) {
	return r.tokens[int(r.invalidated.Load())%len(r.tokens)], nil
}

func (r *rotatingToken) Invalidate() { r.invalidated.Add(1) }

func TestDial_RejectedTokenIsInvalidated(t *testing.T) {
	srv, count := eventServer(t, func(_ int, conn *websocket.Conn, _ string) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	cfg := testConfig(srv)
	src := &rotatingToken{tokens: []string{"revoked", "good"}}
	cfg.TokenSource = src

	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, int32(1), src.invalidated.Load())

	s, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, int32(1), count.Load())
}

func TestDial_MissingToken(t *testing.T) {
	srv, _ := eventServer(t, func(int, *websocket.Conn, string) {})
	cfg := testConfig(srv)
	cfg.Token = ""

	_, err := Dial(context.Background(), cfg)
	assert.True(t, api.IsAuthError(err))
}

func TestDial_RequiresInstallation(t *testing.T) {
	_, err := Dial(context.Background(), Config{Token: "good"})
	assert.True(t, api.IsConfigurationError(err))
}

func TestDial_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	_, err := Dial(context.Background(), Config{URL: url, Token: "good", InstallationIDs: []int{1}, Logger: zap.NewNop()})
	require.Error(t, err)
	assert.True(t, api.IsTransportError(err))
}

func TestStream_CloseEndsStream(t *testing.T) {
	srv, _ := eventServer(t, func(_ int, conn *websocket.Conn, _ string) {
		readSubscription(t, conn)
		_, _, _ = conn.ReadMessage()
	})

	s, err := Dial(context.Background(), testConfig(srv))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := <-s.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Err(), ErrStreamClosed)
}

func TestStream_ContextCancelEndsStream(t *testing.T) {
	srv, _ := eventServer(t, func(_ int, conn *websocket.Conn, _ string) {
		readSubscription(t, conn)
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	s, err := Dial(ctx, testConfig(srv))
	require.NoError(t, err)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
	assert.ErrorIs(t, s.Err(), ErrStreamClosed)
}

func TestStream_ReconnectStopsOnRejectedCredentials(t *testing.T) {
	var allow atomic.Bool
	allow.Store(true)
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow.Load() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		count.Add(1)
		readSubscription(t, conn)
		allow.Store(false)
		_ = conn.Close()
	}))
	defer srv.Close()

	s, err := Dial(context.Background(), testConfig(srv))
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
	assert.True(t, api.IsAuthError(s.Err()))
	assert.Equal(t, http.StatusForbidden, api.StatusCode(s.Err()))
	assert.Equal(t, int32(1), count.Load())
}
