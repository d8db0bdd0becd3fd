// Package model holds the storage node variants that make up a store tree.
//
// Every variant resolves get, set and delete operations against a path
// iterator. When a Standard node meets another Node while walking a path it
// hands the remaining iterator over, so differently backed nodes can be
// mounted anywhere in the tree and take over addressing below their mount.
package model

import (
	"reflect"

	"github.com/zeusync/nub/internal/core/path"
)

// Op is a resolution operation.
type Op uint8

const (
	OpGet Op = iota
	OpSet
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpDelete:
		return "del"
	default:
		return "unknown"
	}
}

// Kind tags a node variant.
type Kind uint8

const (
	KindStandard Kind = iota
	KindViews
	KindBound
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindViews:
		return "views"
	case KindBound:
		return "bound"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Node is a unit of storage mounted in the tree.
//
// Resolve applies op to the location addressed by the remaining segments of
// it. A get or delete that misses returns nil.
type Node interface {
	Kind() Kind
	Resolve(op Op, it *path.Iterator, value any) any
}

// AsNode reports whether v is a mounted node. A typed nil pointer is not.
func AsNode(v any) (Node, bool) {
	n, ok := v.(Node)
	if !ok || n == nil {
		return nil, false
	}
	if rv := reflect.ValueOf(n); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false
	}
	return n, true
}
