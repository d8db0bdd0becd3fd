package model

import (
	"github.com/google/uuid"

	"github.com/zeusync/nub/internal/core/path"
)

var _ Node = (*Views)(nil)

// ObserverFunc is called with the operation and the path that changed.
type ObserverFunc func(op Op, p path.Path)

// Observer is a callback registered at a path. The active flag is owned by
// Dispatch and stops an observer from being re-entered while it runs.
type Observer struct {
	ID       string
	Callback ObserverFunc
	Path     path.Path

	active bool
}

// NewObserver wraps fn with a fresh identifier.
func NewObserver(p path.Path, fn ObserverFunc) *Observer {
	return &Observer{ID: uuid.NewString(), Callback: fn, Path: p}
}

// Active reports whether the observer is currently executing.
func (o *Observer) Active() bool { return o.active }

// ViewNode is one location in the observer registry.
type ViewNode struct {
	observers []*Observer
	children  map[string]*ViewNode
	order     []string
}

func newViewNode() *ViewNode {
	return &ViewNode{children: make(map[string]*ViewNode)}
}

// Observers returns the observers registered exactly at this node.
func (v *ViewNode) Observers() []*Observer {
	out := make([]*Observer, len(v.observers))
	copy(out, v.observers)
	return out
}

// Child returns the named child, creating it when missing.
func (v *ViewNode) Child(name string) *ViewNode {
	if c, ok := v.children[name]; ok {
		return c
	}
	c := newViewNode()
	v.children[name] = c
	v.order = append(v.order, name)
	return c
}

// Has reports whether the named child exists, without creating it.
func (v *ViewNode) Has(name string) bool {
	_, ok := v.children[name]
	return ok
}

func (v *ViewNode) add(o *Observer) {
	v.observers = append(v.observers, o)
}

func (v *ViewNode) remove(o *Observer) bool {
	for i, existing := range v.observers {
		if existing == o {
			v.observers = append(v.observers[:i:i], v.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Located is the result of a registry get: the addressed node and every node
// walked to reach it, outermost first.
type Located struct {
	Node      *ViewNode
	Ancestors []*ViewNode
}

// Views is the observer registry. It mirrors the data tree's shape, and
// creates nodes on every operation since registrations always need a node to
// attach to.
type Views struct {
	root *ViewNode
}

func NewViews() *Views {
	return &Views{root: newViewNode()}
}

func (v *Views) Kind() Kind { return KindViews }

// Root returns the registry's top node.
func (v *Views) Root() *ViewNode { return v.root }

// Resolve applies op at the addressed registry node. Set appends value (an
// *Observer), delete removes the first registration of value and get returns
// a Located.
func (v *Views) Resolve(op Op, it *path.Iterator, value any) any {
	node := v.root
	if it.Len() == 0 {
		return v.apply(op, node, nil, value)
	}
	ancestors := []*ViewNode{node}
	for it.Next() {
		node = node.Child(it.Head())
		ancestors = append(ancestors, node)
	}
	return v.apply(op, node.Child(it.Last()), ancestors, value)
}

func (v *Views) apply(op Op, node *ViewNode, ancestors []*ViewNode, value any) any {
	switch op {
	case OpGet:
		return Located{Node: node, Ancestors: ancestors}
	case OpSet:
		if o, ok := value.(*Observer); ok && o != nil {
			node.add(o)
		}
		return node.Observers()
	case OpDelete:
		if o, ok := value.(*Observer); ok && node.remove(o) {
			return o
		}
	}
	return nil
}

// Gather appends every inactive observer at node to list. With deep set it
// also walks all descendants, in the order their nodes were created.
func Gather(node *ViewNode, list []*Observer, deep bool) []*Observer {
	if node == nil {
		return list
	}
	for _, o := range node.observers {
		if !o.active {
			list = append(list, o)
		}
	}
	if deep {
		for _, name := range node.order {
			list = Gather(node.children[name], list, true)
		}
	}
	return list
}

// Collect builds the candidate list for a change at loc: the observers on
// each ancestor followed by the observers at and below the node.
func Collect(loc Located) []*Observer {
	var list []*Observer
	for _, a := range loc.Ancestors {
		list = Gather(a, list, false)
	}
	return Gather(loc.Node, list, true)
}

// Dispatch invokes each observer with op and p. An observer is marked active
// for the duration of its call, and the flag is cleared even when the callback
// panics. A panic is recovered and passed to fault; delivery continues.
func Dispatch(list []*Observer, op Op, p path.Path, fault func(o *Observer, recovered any)) {
	for _, o := range list {
		invoke(o, op, p, fault)
	}
}

func invoke(o *Observer, op Op, p path.Path, fault func(*Observer, any)) {
	o.active = true
	defer func() {
		o.active = false
		if r := recover(); r != nil && fault != nil {
			fault(o, r)
		}
	}()
	o.Callback(op, p)
}
