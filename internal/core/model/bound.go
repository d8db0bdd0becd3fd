package model

import (
	"fmt"
	"net/url"

	"github.com/zeusync/nub/internal/core/path"
)

var _ Node = (*Bound)(nil)

// Binding is an external resource holding named fields, such as a form.
type Binding interface {
	Get(name string) any
	Set(name string, value any)
	Names() []string
}

// Bound stores nothing itself. Every leaf below its mount point is read from
// and written to its Binding, using the remaining path as the field name.
type Bound struct {
	Name    string
	binding Binding
}

func NewBound(name string, b Binding) *Bound {
	return &Bound{Name: name, binding: b}
}

func (b *Bound) Kind() Kind { return KindBound }

// Binding returns the external resource.
func (b *Bound) Binding() Binding { return b.binding }

func (b *Bound) Resolve(op Op, it *path.Iterator, value any) any {
	it.Next()
	name := it.Rest()
	switch op {
	case OpGet:
		return b.binding.Get(name)
	case OpSet:
		b.binding.Set(name, value)
		return value
	case OpDelete:
		prev := b.binding.Get(name)
		b.binding.Set(name, "")
		return prev
	}
	return nil
}

// Values reads every field.
func (b *Bound) Values() map[string]any {
	names := b.binding.Names()
	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name] = b.binding.Get(name)
	}
	return out
}

// Encode serializes the fields as an application/x-www-form-urlencoded body.
func (b *Bound) Encode() string {
	values := url.Values{}
	for _, name := range b.binding.Names() {
		v := b.binding.Get(name)
		if v == nil {
			values.Add(name, "")
			continue
		}
		values.Add(name, fmt.Sprint(v))
	}
	return values.Encode()
}

// SetData copies matching keys of data into the bound fields.
func (b *Bound) SetData(data map[string]any) {
	for _, name := range b.binding.Names() {
		b.binding.Set(name, data[name])
	}
}

var _ Binding = (*Fields)(nil)

// Fields is an in-memory Binding with a fixed set of field names.
type Fields struct {
	names  []string
	values map[string]any
}

func NewFields(names ...string) *Fields {
	f := &Fields{values: make(map[string]any, len(names))}
	for _, n := range names {
		if _, ok := f.values[n]; ok {
			continue
		}
		f.names = append(f.names, n)
		f.values[n] = ""
	}
	return f
}

func (f *Fields) Get(name string) any {
	return f.values[name]
}

// Set ignores names that are not part of the field set.
func (f *Fields) Set(name string, value any) {
	if _, ok := f.values[name]; ok {
		f.values[name] = value
	}
}

func (f *Fields) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}
