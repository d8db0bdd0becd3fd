package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/store"
)

func dialWatch(t *testing.T, base, p string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(base, "http") + "/watch?path=" + p
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd any) {
	t.Helper()
	b, err := json.Marshal(cmd)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func TestWatchStreamsChanges(t *testing.T) {
	s, ts := newTestServer(t, DefaultConfig())
	conn := dialWatch(t, ts.URL, "users")

	ev := readEvent(t, conn)
	assert.Equal(t, "set", ev.Op)
	assert.Equal(t, "/users", ev.Path)
	assert.Nil(t, ev.Value)

	code, _ := call(t, http.MethodPut, ts.URL+"/store/users/ada", `{"age":36}`)
	require.Equal(t, http.StatusOK, code)
	ev = readEvent(t, conn)
	assert.Equal(t, "/users/ada", ev.Path)
	assert.Equal(t, map[string]any{"ada": map[string]any{"age": float64(36)}}, ev.Value)

	sendCommand(t, conn, Command{Op: "set", Path: "bob", Value: 1})
	ev = readEvent(t, conn)
	assert.Equal(t, "set", ev.Op)
	assert.Equal(t, "/users/bob", ev.Path)

	sendCommand(t, conn, Command{Op: "delete", Path: "/users/ada"})
	ev = readEvent(t, conn)
	assert.Equal(t, "del", ev.Op)
	assert.Equal(t, map[string]any{"bob": float64(1)}, ev.Value)

	sendCommand(t, conn, Command{Op: "rename", Path: "bob"})
	ev = readEvent(t, conn)
	assert.Equal(t, "error", ev.Op)
	assert.Contains(t, ev.Error, ErrUnknownAction.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	ev = readEvent(t, conn)
	assert.Equal(t, "error", ev.Op)
	assert.Contains(t, ev.Error, ErrInvalidBody.Error())

	s.watchMu.Lock()
	assert.Len(t, s.watchers, 1)
	s.watchMu.Unlock()
}

func TestWatchUnregistersOnClose(t *testing.T) {
	s, ts := newTestServer(t, DefaultConfig())
	conn := dialWatch(t, ts.URL, "/counter")
	readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		return len(s.watchers) == 0
	}, 2*time.Second, 10*time.Millisecond)

	code, _ := call(t, http.MethodPut, ts.URL+"/store/counter", `1`)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, s.Store().Views().Root().Child("counter").Observers())
}

func TestWatchRejectsReservedPath(t *testing.T) {
	s, ts := newTestServer(t, DefaultConfig())

	code, out := call(t, http.MethodGet, ts.URL+"/watch?path="+store.ViewRoot+"/users", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, out["error"], ErrReservedPath.Error())

	s.watchMu.Lock()
	assert.Empty(t, s.watchers)
	s.watchMu.Unlock()
}

func TestStopRefusesNewWatchers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	s := NewServer(cfg, nil, log.Nop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	conn := dialWatch(t, "http://"+s.Addr().String(), "feed")
	readEvent(t, conn)

	require.NoError(t, s.Stop(context.Background()))
	s.watchMu.Lock()
	assert.Empty(t, s.watchers)
	s.watchMu.Unlock()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	code, out := call(t, http.MethodGet, ts.URL+"/watch?path=feed", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, out["error"], ErrServerNotRunning.Error())
}
