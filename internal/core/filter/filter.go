// Package filter derives values from other parts of a store.
//
// A filter lives at its own location holding its arguments under ArgsKey and
// the fields returned by its compute function. It is recomputed whenever its
// source or its arguments change, and each recompute is an ordinary Set, so
// views of the filter location update like any other.
package filter

import (
	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/path"
	"github.com/zeusync/nub/internal/core/store"
)

// ArgsKey is the sub-path holding a filter's arguments.
const ArgsKey = "filter:args"

// ComputeFunc derives a result from the source value and the filter arguments.
// The returned fields are merged with the arguments and written to the filter
// location.
type ComputeFunc func(source any, args map[string]any) map[string]any

// Filter is a registered derived computation.
type Filter struct {
	store    *store.Store
	path     path.Path
	source   path.Path
	compute  ComputeFunc
	observer *model.Observer
}

// Define installs a filter at filterRef over sourceRef. The filter location is
// reset to empty arguments and the filter is computed once immediately.
func Define(s *store.Store, filterRef, sourceRef any, compute ComputeFunc) *Filter {
	f := &Filter{
		store:   s,
		path:    store.Resolve(filterRef),
		source:  store.Resolve(sourceRef),
		compute: compute,
	}
	s.Set(f.path, map[string]any{ArgsKey: map[string]any{}})

	f.observer = s.MustView(f.source, model.ObserverFunc(f.recompute))
	if err := s.Watch(ArgsKey, f.observer, store.WithContext(f.path), store.WithoutInit()); err != nil {
		panic(err)
	}
	return f
}

// Path is the filter location.
func (f *Filter) Path() path.Path { return f.path }

// Source is the observed data location.
func (f *Filter) Source() path.Path { return f.source }

// Args returns the live argument map.
func (f *Filter) Args() map[string]any {
	args, _ := f.store.Get(ArgsKey, f.path).(map[string]any)
	return args
}

// SetArg writes one argument, which triggers a recompute.
func (f *Filter) SetArg(name string, value any) {
	f.store.Set(name, value, f.path.Child(ArgsKey))
}

// Result reads a field of the computed result.
func (f *Filter) Result(name string) any {
	return f.store.Get(name, f.path)
}

// Remove unregisters the filter's observers. The last result stays in place.
func (f *Filter) Remove() {
	f.store.RemoveView(f.source, f.observer)
	f.store.RemoveView(f.path.Child(ArgsKey), f.observer)
}

func (f *Filter) recompute(model.Op, path.Path) {
	args := f.Args()
	if args == nil {
		args = make(map[string]any)
	}
	result := f.compute(f.store.Get(f.source), args)

	out := make(map[string]any, len(result)+1)
	for k, v := range result {
		out[k] = v
	}
	out[ArgsKey] = args
	f.store.Set(f.path, out)
}
