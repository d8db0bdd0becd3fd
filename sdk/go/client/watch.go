package client

import (
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/zeusync/nub/internal/core/observability/log"
)

// Watch is an open websocket on one store path.
type Watch struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
	once   sync.Once
	sendMu sync.Mutex
	logger log.Log
	client *Client
}

// Events delivers change events. It is closed when the watch ends.
func (w *Watch) Events() <-chan Event { return w.events }

// Set writes value at p. A relative p is taken relative to the watched path.
func (w *Watch) Set(p string, value any) error {
	return w.send(Command{Op: "set", Path: p, Value: value})
}

// Delete removes the value at p.
func (w *Watch) Delete(p string) error {
	return w.send(Command{Op: "delete", Path: p})
}

func (w *Watch) send(cmd Command) error {
	select {
	case <-w.done:
		return ErrWatchClosed
	default:
	}
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

// Close ends the watch.
func (w *Watch) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.sendMu.Lock()
		_ = w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		w.sendMu.Unlock()
		err = w.conn.Close()
		w.client.watches.Delete(w)
	})
	return err
}

func (w *Watch) readLoop() {
	defer close(w.events)
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
			default:
				w.logger.Warn("Watch read failed", log.Error(err))
				_ = w.Close()
			}
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			w.logger.Warn("Undecodable event", log.Error(err))
			continue
		}
		select {
		case w.events <- ev:
		case <-w.done:
			return
		}
	}
}
