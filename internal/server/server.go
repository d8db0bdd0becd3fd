// Package server exposes a store over HTTP and websockets.
//
// All store access goes through one mutex, so the store keeps its single
// owner even with many connections. The lock is released while a remote
// resource is being fetched.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/nub/internal/core/filter"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/remote"
	"github.com/zeusync/nub/internal/core/store"
)

// Server serves one store.
type Server struct {
	mu     sync.Mutex
	store  *store.Store
	pagers map[string]*filter.Pager
	client *http.Client

	http     *http.Server
	listener net.Listener
	group    errgroup.Group

	watchMu       sync.Mutex
	watchers      map[string]*watcher
	watchWG       sync.WaitGroup
	watchStopping bool // guarded by watchMu; refuses new watchers during Stop

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log
}

// NewServer creates a server for st. A nil st gets a fresh store logging to logger.
func NewServer(config Config, st *store.Store, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	if st == nil {
		st = store.New(store.WithLogger(logger))
	}
	s := &Server{
		store:    st,
		pagers:   make(map[string]*filter.Pager),
		client:   &http.Client{},
		watchers: make(map[string]*watcher),
		config:   config,
		logger:   logger.With(log.String("component", "server")),
	}

	s.logger.Info("Server created",
		log.String("listen_addr", config.Listen),
		log.Int("remotes", len(config.Remotes)),
		log.Int("pagers", len(config.Pagers)))

	return s
}

// Store returns the served store. Callers must go through Do to touch it
// while the server is running.
func (s *Server) Store() *store.Store { return s.store }

// Do runs fn with exclusive access to the store.
func (s *Server) Do(fn func(st *store.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

// Addr is the bound listen address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Bootstrap seeds the store, mounts configured remotes and pagers, and loads
// the remotes marked for loading. Loads run concurrently.
func (s *Server) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.config.Seed))
	for k := range s.config.Seed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.store.Set(k, s.config.Seed[k])
	}

	var pending []*remote.Remote
	var urls []string
	for _, rc := range s.config.Remotes {
		r := remote.New(s.store, rc.Path, s.remoteOptions())
		if rc.Load {
			pending = append(pending, r)
			urls = append(urls, rc.URL)
		}
	}
	for _, ps := range s.config.Pagers {
		s.pagers[store.Resolve(ps.Source).String()] = filter.NewPager(s.store, ps.Source, ps.PagerConfig)
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range pending {
		g.Go(func() error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.logger.Info("Loading remote", log.Stringer("path", r.Ref()), log.String("url", urls[i]))
			return r.Get(gctx, urls[i])
		})
	}
	return g.Wait()
}

// Start bootstraps the store and starts serving
func (s *Server) Start(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	if err := s.Bootstrap(ctx); err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to bootstrap store", log.Error(err))
		return err
	}

	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.listener = listener
	s.http = &http.Server{Handler: s.Handler()}

	s.watchMu.Lock()
	s.watchStopping = false
	s.watchMu.Unlock()

	s.group.Go(func() error {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Serve failed", log.Error(err))
			return err
		}
		return nil
	})

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))

	return nil
}

// Stop shuts the HTTP server down and disconnects every watcher
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	err := s.http.Shutdown(ctx)

	s.watchMu.Lock()
	s.watchStopping = true
	for _, w := range s.watchers {
		_ = w.conn.Close()
	}
	s.watchMu.Unlock()
	s.watchWG.Wait()

	if serveErr := s.group.Wait(); err == nil {
		err = serveErr
	}

	s.logger.Info("Server stopped")

	return err
}

// Close stops the server if needed. A closed server cannot be restarted.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}

	s.logger.Info("Closing server")

	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		_ = s.Stop(ctx)
	}

	_ = s.logger.Sync()

	return nil
}

// Run starts the server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

func (s *Server) remoteOptions() remote.RequestOptions {
	return remote.RequestOptions{
		Transport: unlockedTransport{mu: &s.mu, next: remote.NewHTTPTransport(s.client)},
	}
}

// unlockedTransport releases the store lock for the duration of a fetch.
// Callers of Do must hold mu.
type unlockedTransport struct {
	mu   *sync.Mutex
	next remote.Transport
}

func (t unlockedTransport) Do(ctx context.Context, req *remote.Request) (*remote.Response, error) {
	t.mu.Unlock()
	defer t.mu.Lock()
	return t.next.Do(ctx, req)
}
