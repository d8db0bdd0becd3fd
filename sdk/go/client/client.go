// Package client is a Go client for nubd.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/zeusync/nub/internal/core/filter"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/server"
)

// Event and Command are the watch wire messages.
type (
	Event   = server.Event
	Command = server.Command
)

// Client talks to one nubd server.
type Client struct {
	http   *http.Client
	dialer *websocket.Dialer
	base   *url.URL

	closed  int32    // atomic bool
	watches sync.Map // map[*Watch]struct{}

	config Config
	logger log.Log
}

// Config holds configuration for the client
type Config struct {
	// ServerURL is the base URL, e.g. http://localhost:8080.
	ServerURL      string
	RequestTimeout time.Duration
	// EventBuffer is the per-watch event queue length.
	EventBuffer int

	// Logging
	LogLevel log.Level
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:      "http://127.0.0.1:8080",
		RequestTimeout: 10 * time.Second,
		EventBuffer:    64,
		LogLevel:       log.LevelInfo,
	}
}

// NewClient creates a client for config.ServerURL.
func NewClient(config Config) (*Client, error) {
	base, err := url.Parse(config.ServerURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: server url %q", ErrInvalidConfig, config.ServerURL)
	}
	if config.EventBuffer < 1 {
		config.EventBuffer = DefaultClientConfig().EventBuffer
	}

	c := &Client{
		http:   &http.Client{Timeout: config.RequestTimeout},
		dialer: &websocket.Dialer{HandshakeTimeout: config.RequestTimeout},
		base:   base,
		config: config,
		logger: log.New(config.LogLevel).With(log.String("component", "client")),
	}

	c.logger.Debug("Client created", log.String("server", base.String()))

	return c, nil
}

// Get reads the value at p.
func (c *Client) Get(ctx context.Context, p string) (any, error) {
	return c.value(ctx, http.MethodGet, c.endpoint("store", p, nil), nil)
}

// Set writes value at p and returns what the server stored.
func (c *Client) Set(ctx context.Context, p string, value any) (any, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return c.value(ctx, http.MethodPut, c.endpoint("store", p, nil), body)
}

// Delete removes the value at p and returns it.
func (c *Client) Delete(ctx context.Context, p string) (any, error) {
	return c.value(ctx, http.MethodDelete, c.endpoint("store", p, nil), nil)
}

// Remote runs action (get, put, post, reload or reset) against the remote
// resource at p, mounting it first if needed. It returns the resource's
// {meta, data} value.
func (c *Client) Remote(ctx context.Context, p, action, resourceURL string) (map[string]any, error) {
	q := url.Values{}
	if action != "" {
		q.Set("action", action)
	}
	if resourceURL != "" {
		q.Set("url", resourceURL)
	}
	v, err := c.value(ctx, http.MethodPost, c.endpoint("remote", p, q), nil)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}

// Pager reads the pager over source. A non-empty action moves it first; n is
// the page or page size for the "page" and "size" actions.
func (c *Client) Pager(ctx context.Context, source, action string, n int) (filter.PageState, error) {
	var state filter.PageState
	method := http.MethodGet
	q := url.Values{}
	if action != "" {
		method = http.MethodPost
		q.Set("action", action)
		if action == "page" || action == "size" {
			q.Set(action, strconv.Itoa(n))
		}
	}
	raw, err := c.do(ctx, method, c.endpoint("pager", source, q), nil)
	if err != nil {
		return state, err
	}
	err = json.Unmarshal(raw, &state)
	return state, err
}

// Watch opens a websocket on p. The first event carries the current value.
func (c *Client) Watch(ctx context.Context, p string) (*Watch, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, ErrClientClosed
	}

	u := *c.base
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = strings.TrimSuffix(u.Path, "/") + "/watch"
	u.RawQuery = url.Values{"path": {p}}.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	w := &Watch{
		conn:   conn,
		events: make(chan Event, c.config.EventBuffer),
		done:   make(chan struct{}),
		logger: c.logger.With(log.String("watch_path", p)),
		client: c,
	}
	c.watches.Store(w, struct{}{})
	go w.readLoop()

	c.logger.Debug("Watch opened", log.String("path", p))

	return w, nil
}

// Close closes every open watch. The client cannot be used afterwards.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil // Already closed
	}
	c.watches.Range(func(key, _ any) bool {
		_ = key.(*Watch).Close()
		return true
	})
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) endpoint(route, p string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + route + "/" + strings.TrimPrefix(p, "/")
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) value(ctx context.Context, method, target string, body []byte) (any, error) {
	raw, err := c.do(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, ErrClientClosed
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return raw, nil
	}

	var failure struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(raw, &failure)
	sentinel := ErrRequest
	if resp.StatusCode == http.StatusNotFound {
		sentinel = ErrNotFound
	}
	return nil, fmt.Errorf("%w: %s %s: %s", sentinel, method, resp.Status, failure.Error)
}
