// Package store ties the node tree, the observer registry and notification
// together behind one handle.
//
// Every Set and Delete resolves against the tree and then notifies the
// observers registered on the written path, on any path above it and on any
// path below it. Observers run synchronously in the caller's goroutine; a
// Store must be driven by one owner at a time.
package store

import (
	"fmt"

	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/path"
	"github.com/zeusync/nub/internal/core/widget"
)

// Reserved root segments.
const (
	ViewRoot  = "nub:viewroot"
	FormsRoot = "nub:forms"
)

type Store struct {
	root  *model.Standard
	views *model.Views

	logger        log.Log
	formatters    map[string]widget.Formatter
	formatOptions widget.Options
	formCounter   int
}

func New(opts ...Option) *Store {
	views := model.NewViews()
	s := &Store{
		root: model.NewStandard(map[string]any{
			ViewRoot:  views,
			FormsRoot: map[string]any{},
		}),
		views:         views,
		logger:        log.Nop(),
		formatters:    make(map[string]widget.Formatter),
		formatOptions: make(widget.Options),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logger returns the store's logger.
func (s *Store) Logger() log.Log { return s.logger }

// Views returns the observer registry.
func (s *Store) Views() *model.Views { return s.views }

// Get returns the value at ref, or nil when any segment is missing.
func (s *Store) Get(ref any, ctx ...any) any {
	return s.root.Resolve(model.OpGet, Resolve(ref, ctx...).Iterator(), nil)
}

// Lookup is Get with a presence flag. A stored nil reads as absent.
func (s *Store) Lookup(ref any, ctx ...any) (any, bool) {
	v := s.Get(ref, ctx...)
	return v, v != nil
}

// Set writes value at ref, creating intermediate containers, then notifies.
// It returns the written value.
func (s *Store) Set(ref any, value any, ctx ...any) any {
	p := Resolve(ref, ctx...)
	result := s.root.Resolve(model.OpSet, p.Iterator(), value)
	s.Notify(model.OpSet, p)
	return result
}

// Delete removes the value at ref, notifies, and returns the removed value.
func (s *Store) Delete(ref any, ctx ...any) any {
	p := Resolve(ref, ctx...)
	prev := s.root.Resolve(model.OpDelete, p.Iterator(), nil)
	s.Notify(model.OpDelete, p)
	return prev
}

// Notify runs every observer interested in a change at p: those registered on
// ancestors of p first, then those at p and below. Observer panics are logged
// and never escape.
func (s *Store) Notify(op model.Op, p path.Path) {
	loc, ok := s.views.Resolve(model.OpGet, p.Iterator(), nil).(model.Located)
	if !ok {
		return
	}
	list := model.Collect(loc)
	if len(list) == 0 {
		return
	}
	model.Dispatch(list, op, p, func(o *model.Observer, recovered any) {
		fields := []log.Field{
			log.Stringer("op", op),
			log.Stringer("path", p),
			log.String("observer", o.ID),
			log.Stringer("observer_path", o.Path),
		}
		if err, isErr := recovered.(error); isErr {
			fields = append(fields, log.Error(err))
		} else {
			fields = append(fields, log.String("panic", fmt.Sprint(recovered)))
		}
		s.logger.Error("notifying view", fields...)
	})
}

// Resolve parses ref against ctx into an absolute path.
func Resolve(ref any, ctx ...any) path.Path {
	return path.Parse(ref, ctx...).Absolute()
}
