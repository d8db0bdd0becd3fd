package server

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/path"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is pushed to a watcher whenever its path is notified.
type Event struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Command is a write sent by a watcher. Op is "set" or "delete"; a relative
// Path is taken relative to the watched path.
type Command struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// watcher is one websocket connection observing one path.
type watcher struct {
	id     string
	conn   *websocket.Conn
	path   path.Path
	events chan []byte
	obs    *model.Observer
	logger log.Log
}

// push queues an event without blocking the notification pass. Events are
// dropped when the client falls behind.
func (w *watcher) push(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		w.logger.Error("Failed to encode event", log.Error(err))
		return
	}
	select {
	case w.events <- b:
	default:
		w.logger.Warn("Watcher lagging, event dropped", log.String("path", ev.Path))
	}
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	p, err := path.ParseE(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidPath, err))
		return
	}
	p = p.Absolute()
	if err := checkReserved(p, false); err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	// Stop waits on watchWG after setting watchStopping, so Add must happen
	// under watchMu before the connection is taken over.
	s.watchMu.Lock()
	if s.watchStopping {
		s.watchMu.Unlock()
		writeError(w, http.StatusServiceUnavailable, ErrServerNotRunning)
		return
	}
	s.watchWG.Add(1)
	s.watchMu.Unlock()
	defer s.watchWG.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	wt := &watcher{
		id:     uuid.NewString(),
		conn:   conn,
		path:   p,
		events: make(chan []byte, s.config.EventBuffer),
	}
	wt.logger = s.logger.With(log.String("watcher_id", wt.id), log.Stringer("watch_path", p))

	s.watchMu.Lock()
	if s.watchStopping {
		s.watchMu.Unlock()
		_ = conn.Close()
		return
	}
	s.watchers[wt.id] = wt
	s.watchMu.Unlock()

	s.mu.Lock()
	wt.obs = s.store.MustView(p, func(op model.Op, at path.Path) {
		wt.push(Event{Op: op.String(), Path: at.String(), Value: plain(s.store.Get(p))})
	})
	s.mu.Unlock()

	wt.logger.Info("Watcher connected", log.String("remote_addr", conn.RemoteAddr().String()))

	var g errgroup.Group
	g.Go(func() error { return s.writeEvents(wt) })
	s.readCommands(wt)

	s.mu.Lock()
	s.store.RemoveView(p, wt.obs)
	close(wt.events)
	s.mu.Unlock()

	if err := g.Wait(); err != nil {
		wt.logger.Debug("Watcher writer stopped", log.Error(err))
	}
	_ = conn.Close()

	s.watchMu.Lock()
	delete(s.watchers, wt.id)
	s.watchMu.Unlock()

	wt.logger.Info("Watcher disconnected")
}

func (s *Server) writeEvents(wt *watcher) error {
	for b := range wt.events {
		if s.config.WriteTimeout > 0 {
			_ = wt.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		}
		if err := wt.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) readCommands(wt *watcher) {
	wt.conn.SetReadLimit(s.maxMessageSize())
	for {
		_, data, err := wt.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				wt.logger.Warn("Watcher read failed", log.Error(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.reject(wt, cmd, fmt.Errorf("%w: %v", ErrInvalidBody, err))
			continue
		}
		target, err := path.ParseE(cmd.Path, wt.path)
		if err != nil {
			s.reject(wt, cmd, fmt.Errorf("%w: %v", ErrInvalidPath, err))
			continue
		}

		s.mu.Lock()
		switch cmd.Op {
		case "set":
			s.store.Set(target, cmd.Value)
		case "delete":
			s.store.Delete(target)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Op)
		}
		if err != nil {
			s.reject(wt, cmd, err)
		}
		s.mu.Unlock()
	}
}

// reject reports a failed command back to its sender. Called with or without mu.
func (s *Server) reject(wt *watcher, cmd Command, err error) {
	wt.logger.Debug("Command rejected", log.String("op", cmd.Op), log.Error(err))
	wt.push(Event{Op: "error", Path: cmd.Path, Error: err.Error()})
}
