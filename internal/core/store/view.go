package store

import (
	"fmt"

	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/path"
	"github.com/zeusync/nub/internal/core/widget"
)

// View registers target as an observer of ref and, unless WithoutInit is
// given, invokes it once before returning.
//
// target is a model.ObserverFunc (or a plain func(model.Op, path.Path) or
// func()), or one of the widget targets, which is re-rendered from the
// current value on every notification. Any other target is rejected with
// ErrInvalidViewTarget.
func (s *Store) View(ref any, target any, opts ...ViewOption) (*model.Observer, error) {
	var cfg viewConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	p, err := path.ParseE(ref, cfg.context)
	if err != nil {
		return nil, err
	}
	p = p.Absolute()
	fn, err := s.observerFunc(p, target, cfg)
	if err != nil {
		return nil, err
	}

	obs := model.NewObserver(p, fn)
	s.views.Resolve(model.OpSet, p.Iterator(), obs)
	if !cfg.noInit {
		fn(model.OpSet, p)
	}
	return obs, nil
}

// MustView is View for registrations known to be valid.
func (s *Store) MustView(ref any, target any, opts ...ViewOption) *model.Observer {
	obs, err := s.View(ref, target, opts...)
	if err != nil {
		panic(err)
	}
	return obs
}

// Watch registers an existing observer at a further path. The registrations
// share one record, so the observer is not re-entered through either path
// while it runs.
func (s *Store) Watch(ref any, obs *model.Observer, opts ...ViewOption) error {
	var cfg viewConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	p, err := path.ParseE(ref, cfg.context)
	if err != nil {
		return err
	}
	p = p.Absolute()
	s.views.Resolve(model.OpSet, p.Iterator(), obs)
	if !cfg.noInit {
		obs.Callback(model.OpSet, p)
	}
	return nil
}

// RemoveView unregisters obs from ref. It reports whether obs was registered there.
func (s *Store) RemoveView(ref any, obs *model.Observer, ctx ...any) bool {
	if obs == nil {
		return false
	}
	p := Resolve(ref, ctx...)
	return s.views.Resolve(model.OpDelete, p.Iterator(), obs) != nil
}

// Input returns a change handler for an input or checkbox target. The host
// calls it when the user edits the field; the parsed value is written to ref.
func (s *Store) Input(ref any, target any, opts ...ViewOption) (func(), error) {
	var cfg viewConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	p, err := path.ParseE(ref, cfg.context)
	if err != nil {
		return nil, err
	}
	p = p.Absolute()
	switch target.(type) {
	case widget.Checkbox, widget.Input:
	default:
		return nil, fmt.Errorf("%w: %T is not an input", ErrInvalidViewTarget, target)
	}
	f, fopts := s.format(cfg)
	return func() {
		if v, ok := widget.Read(target, f, fopts); ok {
			s.Set(p, v)
		}
	}, nil
}

func (s *Store) observerFunc(p path.Path, target any, cfg viewConfig) (model.ObserverFunc, error) {
	switch fn := target.(type) {
	case model.ObserverFunc:
		if fn != nil {
			return fn, nil
		}
	case func(model.Op, path.Path):
		if fn != nil {
			return fn, nil
		}
	case func():
		if fn != nil {
			return func(model.Op, path.Path) { fn() }, nil
		}
	default:
		if widget.Supported(target) {
			return s.formattingView(p, target, cfg), nil
		}
	}
	return nil, fmt.Errorf("%w: got %T, want %s", ErrInvalidViewTarget, target, widget.Categories)
}

func (s *Store) formattingView(p path.Path, target any, cfg viewConfig) model.ObserverFunc {
	f, opts := s.format(cfg)
	return func(model.Op, path.Path) {
		widget.Render(target, s.Get(p), f, opts)
	}
}

func (s *Store) format(cfg viewConfig) (widget.Formatter, widget.Options) {
	opts := make(widget.Options, len(s.formatOptions)+len(cfg.options))
	for k, v := range s.formatOptions {
		opts[k] = v
	}
	for k, v := range cfg.options {
		opts[k] = v
	}
	return s.formatters[cfg.formatter], opts
}
