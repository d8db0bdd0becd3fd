package model

import (
	"strconv"

	"github.com/zeusync/nub/internal/core/path"
)

var _ Node = (*Standard)(nil)

// Standard stores values in nested map[string]any containers. Slices of any
// are addressable by decimal index.
type Standard struct {
	data map[string]any
}

// NewStandard wraps data, which may be nil.
func NewStandard(data map[string]any) *Standard {
	if data == nil {
		data = make(map[string]any)
	}
	return &Standard{data: data}
}

func (n *Standard) Kind() Kind { return KindStandard }

// Data exposes the root container.
func (n *Standard) Data() map[string]any { return n.data }

// Resolve walks it through the containers below n. On set, a missing
// intermediate segment is created as an empty container; get and delete stop
// with nil instead.
func (n *Standard) Resolve(op Op, it *path.Iterator, value any) any {
	if it.Len() == 0 {
		return n.resolveRoot(op, value)
	}
	return resolveIn(n.data, op, it, value)
}

func (n *Standard) resolveRoot(op Op, value any) any {
	switch op {
	case OpGet:
		return n.data
	case OpSet:
		if m, ok := value.(map[string]any); ok {
			for k, v := range m {
				n.data[k] = v
			}
		}
		return value
	default:
		return nil
	}
}

func resolveIn(obj any, op Op, it *path.Iterator, value any) any {
	var parent any
	var key string
	for it.Next() {
		seg := it.Head()
		child, ok := lookup(obj, seg)
		if !ok || child == nil {
			if op != OpSet {
				return nil
			}
			child = make(map[string]any)
			grown, ok := assign(obj, seg, child)
			if !ok {
				return nil
			}
			obj = relink(parent, key, obj, grown)
		}
		if node, ok := AsNode(child); ok {
			return node.Resolve(op, it, value)
		}
		parent, key = obj, seg
		obj = child
	}
	return apply(parent, key, obj, op, it.Last(), value)
}

// apply runs op on prop of obj. parent and key locate obj so a slice that
// grows can be stored back.
func apply(parent any, key string, obj any, op Op, prop string, value any) any {
	switch op {
	case OpGet:
		v, _ := lookup(obj, prop)
		return v
	case OpSet:
		grown, ok := assign(obj, prop, value)
		if !ok {
			return nil
		}
		relink(parent, key, obj, grown)
		return value
	case OpDelete:
		prev, _ := lookup(obj, prop)
		remove(obj, prop)
		return prev
	}
	return nil
}

// relink stores a grown slice back under key in parent and returns the
// container now in use.
func relink(parent any, key string, obj any, grown []any) any {
	if grown == nil {
		return obj
	}
	if parent != nil {
		assign(parent, key, grown)
	}
	return grown
}

func lookup(obj any, prop string) (any, bool) {
	switch c := obj.(type) {
	case map[string]any:
		v, ok := c[prop]
		return v, ok
	case []any:
		i, ok := index(c, prop)
		if !ok {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}

// maxSliceGrowth bounds how far past its end a slice may be written.
const maxSliceGrowth = 4096

// assign writes value under prop. Writing a slice at or past its end grows it,
// padding with nil; the grown slice is returned and must replace the old one.
func assign(obj any, prop string, value any) (grown []any, ok bool) {
	switch c := obj.(type) {
	case map[string]any:
		c[prop] = value
		return nil, true
	case []any:
		i, err := strconv.Atoi(prop)
		if err != nil || i < 0 || i >= len(c)+maxSliceGrowth {
			return nil, false
		}
		if i < len(c) {
			c[i] = value
			return nil, true
		}
		c = append(c, make([]any, i+1-len(c))...)
		c[i] = value
		return c, true
	}
	return nil, false
}

// remove deletes a map key. Slice elements are cleared to nil in place since
// the owning reference cannot be resized from here.
func remove(obj any, prop string) {
	switch c := obj.(type) {
	case map[string]any:
		delete(c, prop)
	case []any:
		if i, ok := index(c, prop); ok {
			c[i] = nil
		}
	}
}

func index(s []any, prop string) (int, bool) {
	i, err := strconv.Atoi(prop)
	if err != nil || i < 0 || i >= len(s) {
		return 0, false
	}
	return i, true
}
