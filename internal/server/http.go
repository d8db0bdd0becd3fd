package server

import (
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/zeusync/nub/internal/core/filter"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/path"
	"github.com/zeusync/nub/internal/core/remote"
	"github.com/zeusync/nub/internal/core/store"
)

// Handler routes the store API.
//
//	GET    /store/{path}   read a value
//	PUT    /store/{path}   write the JSON body
//	DELETE /store/{path}   delete a value
//	GET    /watch?path=    stream changes over a websocket
//	POST   /remote/{path}  mount or drive a remote resource
//	GET    /pager/{source} read a pager
//	POST   /pager/{source} move a pager
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /store/{path...}", s.handleGet)
	mux.HandleFunc("PUT /store/{path...}", s.handlePut)
	mux.HandleFunc("DELETE /store/{path...}", s.handleDelete)
	mux.HandleFunc("GET /watch", s.handleWatch)
	mux.HandleFunc("POST /remote/{path...}", s.handleRemote)
	mux.HandleFunc("GET /pager/{source...}", s.handlePager)
	mux.HandleFunc("POST /pager/{source...}", s.handlePager)
	return mux
}

func storePath(raw string) path.Path {
	return store.Resolve(path.Separator + raw)
}

// checkReserved rejects paths under the store's internal roots. The view
// registry is never addressable; form state may be read but not written.
func checkReserved(p path.Path, write bool) error {
	if p.IsRoot() {
		return nil
	}
	switch head := p.Segments()[0]; {
	case head == store.ViewRoot:
		return fmt.Errorf("%w: %s", ErrReservedPath, p)
	case head == store.FormsRoot && write:
		return fmt.Errorf("%w: %s is read only", ErrReservedPath, p)
	}
	return nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p := storePath(r.PathValue("path"))
	if err := checkReserved(p, false); err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	s.mu.Lock()
	v, ok := s.store.Lookup(p)
	out := plain(v)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: nothing at %s", ErrInvalidPath, p))
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Path: p.String(), Value: out})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	p := storePath(r.PathValue("path"))
	if p.IsRoot() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: cannot replace the root", ErrInvalidPath))
		return
	}
	if err := checkReserved(p, true); err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	var value any
	body := http.MaxBytesReader(w, r.Body, s.maxMessageSize())
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidBody, err))
		return
	}

	s.mu.Lock()
	s.store.Set(p, value)
	out := plain(s.store.Get(p))
	s.mu.Unlock()

	s.logger.Debug("Value written", log.Stringer("path", p))
	writeJSON(w, http.StatusOK, valueResponse{Path: p.String(), Value: out})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	p := storePath(r.PathValue("path"))
	if p.IsRoot() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: cannot delete the root", ErrInvalidPath))
		return
	}
	if err := checkReserved(p, true); err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	s.mu.Lock()
	prev := plain(s.store.Delete(p))
	s.mu.Unlock()

	if prev == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: nothing at %s", ErrInvalidPath, p))
		return
	}
	s.logger.Debug("Value deleted", log.Stringer("path", p))
	writeJSON(w, http.StatusOK, valueResponse{Path: p.String(), Value: prev})
}

// handleRemote runs the action query parameter against the remote resource
// at the path: get (default), put, post, reload or reset. url is passed to the
// fetch. get and post mount a new resource when nothing is stored at the path;
// the other actions need one to exist already.
func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	p := storePath(r.PathValue("path"))
	if p.IsRoot() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: cannot mount at the root", ErrInvalidPath))
		return
	}
	if err := checkReserved(p, true); err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}
	q := r.URL.Query()
	url := q.Get("url")

	var (
		run       func(res *remote.Remote) error
		mountable bool
	)
	switch action := q.Get("action"); action {
	case "", "get":
		run, mountable = func(res *remote.Remote) error { return res.Get(r.Context(), url) }, true
	case "post":
		run, mountable = func(res *remote.Remote) error { return res.Post(r.Context(), url) }, true
	case "put":
		run = func(res *remote.Remote) error { return res.Put(r.Context(), url) }
	case "reload":
		run = func(res *remote.Remote) error { return res.Reload(r.Context(), url) }
	case "reset":
		run = (*remote.Remote).Reset
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrUnknownAction, action))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := remote.Find(s.store, p)
	if !ok {
		if !mountable {
			writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", ErrRemoteNotFound, p))
			return
		}
		if _, occupied := s.store.Lookup(p); occupied {
			writeError(w, http.StatusConflict, fmt.Errorf("%w: %s", ErrPathOccupied, p))
			return
		}
		res = remote.New(s.store, p, s.remoteOptions())
		s.logger.Info("Remote mounted", log.Stringer("path", p))
	}

	if err := run(res); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Path: p.String(), Value: plain(res)})
}

// handlePager reports a pager's state. POST moves it first according to the
// action query parameter: first, prev, next, last, page (with page=N) or size
// (with size=N).
func (s *Server) handlePager(w http.ResponseWriter, r *http.Request) {
	source := storePath(r.PathValue("source")).String()

	s.mu.Lock()
	defer s.mu.Unlock()

	pg, ok := s.pagers[source]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", ErrPagerNotFound, source))
		return
	}

	if r.Method == http.MethodPost {
		q := r.URL.Query()
		switch action := q.Get("action"); action {
		case "first":
			pg.First()
		case "prev":
			pg.Prev()
		case "next":
			pg.Next()
		case "last":
			pg.Last()
		case "page", "size":
			n, err := strconv.Atoi(q.Get(action))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidBody, err))
				return
			}
			if action == "page" {
				pg.SetPage(n)
			} else {
				pg.SetPageSize(n)
			}
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrUnknownAction, action))
			return
		}
	}

	state := pg.State()
	state.Rows = plain(state.Rows).([]any)
	writeJSON(w, http.StatusOK, state)
}

// Pager returns the pager configured for source.
func (s *Server) Pager(source string) (*filter.Pager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pg, ok := s.pagers[store.Resolve(source).String()]
	return pg, ok
}

func (s *Server) maxMessageSize() int64 {
	if s.config.MaxMessageSize > 0 {
		return s.config.MaxMessageSize
	}
	return DefaultConfig().MaxMessageSize
}
