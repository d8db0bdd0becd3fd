package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/nub/internal/core/filter"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/remote"
	"github.com/zeusync/nub/internal/core/store"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(cfg, nil, log.Nop())
	require.NoError(t, s.Bootstrap(context.Background()))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func call(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func upstream(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStoreRoutes(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	code, out := call(t, http.MethodPut, ts.URL+"/store/users/ada", `{"age":36}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/users/ada", out["path"])
	assert.Equal(t, map[string]any{"age": float64(36)}, out["value"])

	code, out = call(t, http.MethodGet, ts.URL+"/store/users/ada/age", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(36), out["value"])

	code, out = call(t, http.MethodGet, ts.URL+"/store/", "")
	require.Equal(t, http.StatusOK, code)
	root, ok := out["value"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, root, "users")
	assert.NotContains(t, root, store.ViewRoot)

	code, out = call(t, http.MethodDelete, ts.URL+"/store/users/ada", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"age": float64(36)}, out["value"])

	code, out = call(t, http.MethodGet, ts.URL+"/store/users/ada", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, out["error"], "nothing at /users/ada")

	code, _ = call(t, http.MethodDelete, ts.URL+"/store/users/ada", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, http.MethodPut, ts.URL+"/store/", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = call(t, http.MethodPut, ts.URL+"/store/broken", `{`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], ErrInvalidBody.Error())
}

func TestSeedAndPager(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = map[string]any{"items": []any{1, 2, 3, 4, 5}}
	cfg.Pagers = []PagerSpec{{Source: "items", PagerConfig: filter.PagerConfig{PageSize: 2}}}
	s, ts := newTestServer(t, cfg)

	_, ok := s.Pager("/items")
	require.True(t, ok)

	code, out := call(t, http.MethodGet, ts.URL+"/pager/items", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["page"])
	assert.Equal(t, float64(3), out["lastPage"])
	assert.Equal(t, []any{float64(1), float64(2)}, out["rows"])

	_, out = call(t, http.MethodPost, ts.URL+"/pager/items?action=next", "")
	assert.Equal(t, float64(2), out["page"])
	assert.Equal(t, []any{float64(3), float64(4)}, out["rows"])

	_, out = call(t, http.MethodPost, ts.URL+"/pager/items?action=page&page=9", "")
	assert.Equal(t, float64(3), out["page"])
	assert.Equal(t, []any{float64(5)}, out["rows"])

	_, out = call(t, http.MethodPost, ts.URL+"/pager/items?action=size&size=5", "")
	assert.Equal(t, float64(1), out["lastPage"])

	code, _ = call(t, http.MethodPost, ts.URL+"/pager/items?action=sideways", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = call(t, http.MethodPost, ts.URL+"/pager/items?action=page&page=x", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = call(t, http.MethodGet, ts.URL+"/pager/nothing", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRemoteRoute(t *testing.T) {
	up := upstream(t, `{"name":"ada"}`)
	s, ts := newTestServer(t, DefaultConfig())

	target := ts.URL + "/remote/profile?" + url.Values{"url": {up.URL}}.Encode()
	code, out := call(t, http.MethodPost, target, "")
	require.Equal(t, http.StatusOK, code)
	value, ok := out["value"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "loaded", value["meta"].(map[string]any)["status"])
	assert.Equal(t, map[string]any{"name": "ada"}, value["data"])

	_, out = call(t, http.MethodGet, ts.URL+"/store/profile/data/name", "")
	assert.Equal(t, "ada", out["value"])

	call(t, http.MethodPut, ts.URL+"/store/profile/data/name", `"bob"`)
	code, _ = call(t, http.MethodPost, ts.URL+"/remote/profile?action=reset", "")
	require.Equal(t, http.StatusOK, code)
	s.Do(func(st *store.Store) {
		assert.Equal(t, "ada", st.Get("profile/data/name"))
	})

	code, _ = call(t, http.MethodPost, ts.URL+"/remote/profile?action=explode", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = call(t, http.MethodPost, ts.URL+"/remote/other", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "url")
}

func TestReservedRootsAreGuarded(t *testing.T) {
	s, ts := newTestServer(t, DefaultConfig())
	s.Do(func(st *store.Store) { st.Set(store.FormsRoot+"/signup", map[string]any{"valid": true}) })

	for _, tc := range []struct {
		method, target, body string
	}{
		{http.MethodGet, "/store/" + store.ViewRoot, ""},
		{http.MethodGet, "/store/" + store.ViewRoot + "/users/ada", ""},
		{http.MethodPut, "/store/" + store.ViewRoot, `{}`},
		{http.MethodDelete, "/store/" + store.ViewRoot, ""},
		{http.MethodPut, "/store/" + store.FormsRoot + "/signup", `{}`},
		{http.MethodDelete, "/store/" + store.FormsRoot + "/signup", ""},
		{http.MethodPost, "/remote/" + store.ViewRoot + "/feed", ""},
		{http.MethodPost, "/remote/" + store.FormsRoot + "/feed", ""},
	} {
		code, out := call(t, tc.method, ts.URL+tc.target, tc.body)
		assert.Equal(t, http.StatusForbidden, code, "%s %s", tc.method, tc.target)
		assert.Contains(t, out["error"], ErrReservedPath.Error())
	}

	code, out := call(t, http.MethodGet, ts.URL+"/store/"+store.FormsRoot+"/signup/valid", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["value"])

	s.Do(func(st *store.Store) {
		assert.False(t, st.Views().Root().Has("users"))
		assert.Equal(t, map[string]any{"valid": true}, st.Get(store.FormsRoot+"/signup"))
	})
}

func TestRemoteRouteKeepsExistingData(t *testing.T) {
	s, ts := newTestServer(t, DefaultConfig())

	code, _ := call(t, http.MethodPut, ts.URL+"/store/orders", `{"a":1}`)
	require.Equal(t, http.StatusOK, code)

	code, out := call(t, http.MethodPost, ts.URL+"/remote/orders?action=bogus", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], ErrUnknownAction.Error())

	for _, action := range []string{"reset", "reload", "put"} {
		code, out = call(t, http.MethodPost, ts.URL+"/remote/orders?action="+action, "")
		assert.Equal(t, http.StatusNotFound, code, action)
		assert.Contains(t, out["error"], ErrRemoteNotFound.Error())
	}

	code, out = call(t, http.MethodPost, ts.URL+"/remote/orders", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, out["error"], ErrPathOccupied.Error())

	code, out = call(t, http.MethodGet, ts.URL+"/store/orders", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"a": float64(1)}, out["value"])
	s.Do(func(st *store.Store) {
		_, mounted := remote.Find(st, "orders")
		assert.False(t, mounted)
	})

	code, _ = call(t, http.MethodPost, ts.URL+"/remote/fresh?action=reset", "")
	assert.Equal(t, http.StatusNotFound, code)
	s.Do(func(st *store.Store) {
		_, ok := st.Lookup("fresh")
		assert.False(t, ok)
	})
}

func TestBootstrapLoadsRemotes(t *testing.T) {
	up := upstream(t, `[1,2,3]`)
	cfg := DefaultConfig()
	cfg.Remotes = []RemoteConfig{
		{Path: "feed", URL: up.URL, Load: true},
		{Path: "later"},
	}
	s, _ := newTestServer(t, cfg)

	s.Do(func(st *store.Store) {
		assert.Equal(t, "loaded", st.Get("feed/meta/status"))
		assert.Equal(t, []any{float64(1), float64(2), float64(3)}, st.Get("feed/data"))
		assert.Equal(t, "preload", st.Get("later/meta/status"))
	})
}

func TestStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.Seed = map[string]any{"greeting": "hello"}
	s := NewServer(cfg, nil, log.Nop())

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)
	require.NotNil(t, s.Addr())

	code, out := call(t, http.MethodGet, "http://"+s.Addr().String()+"/store/greeting", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", out["value"])

	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
}
