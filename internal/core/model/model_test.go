package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/nub/internal/core/path"
)

func resolve(n Node, op Op, ref string, v any) any {
	return n.Resolve(op, path.Parse(ref).Iterator(), v)
}

func TestStandardResolve(t *testing.T) {
	n := NewStandard(nil)

	assert.Equal(t, "v", resolve(n, OpSet, "a/b/c", "v"))
	assert.Equal(t, "v", resolve(n, OpGet, "a/b/c", nil))
	assert.Nil(t, resolve(n, OpGet, "a/x/c", nil))
	_, created := n.Data()["a"].(map[string]any)["x"]
	assert.False(t, created)

	assert.Equal(t, "v", resolve(n, OpDelete, "a/b/c", nil))
	assert.Nil(t, resolve(n, OpGet, "a/b/c", nil))

	assert.Equal(t, n.Data(), n.Resolve(OpGet, path.Root.Iterator(), nil))
	n.Resolve(OpSet, path.Root.Iterator(), map[string]any{"z": 1})
	assert.Equal(t, 1, resolve(n, OpGet, "z", nil))
}

func TestStandardDelegates(t *testing.T) {
	inner := NewStandard(nil)
	outer := NewStandard(map[string]any{"mount": inner})

	resolve(outer, OpSet, "mount/x/y", 7)
	assert.Equal(t, 7, resolve(inner, OpGet, "x/y", nil))
	assert.Equal(t, 7, resolve(outer, OpGet, "mount/x/y", nil))
	assert.Same(t, inner, resolve(outer, OpGet, "mount", nil))
}

func TestAsNodeTypedNil(t *testing.T) {
	var nilStandard *Standard
	_, ok := AsNode(nilStandard)
	assert.False(t, ok)
	_, ok = AsNode(nil)
	assert.False(t, ok)
	n, ok := AsNode(NewStandard(nil))
	assert.True(t, ok)
	assert.NotNil(t, n)

	outer := NewStandard(map[string]any{"mount": nilStandard})
	assert.NotPanics(t, func() {
		assert.Nil(t, resolve(outer, OpGet, "mount/x", nil))
		assert.Nil(t, resolve(outer, OpSet, "mount/x", 1))
		assert.Nil(t, resolve(outer, OpDelete, "mount/x", nil))
	})
}

func TestStandardGrowsSlices(t *testing.T) {
	n := NewStandard(map[string]any{"rows": []any{"a", "b"}})

	assert.Equal(t, "c", resolve(n, OpSet, "rows/2", "c"))
	assert.Equal(t, []any{"a", "b", "c"}, n.Data()["rows"])

	assert.Equal(t, "x", resolve(n, OpSet, "rows/5/name", "x"))
	rows := n.Data()["rows"].([]any)
	require.Len(t, rows, 6)
	assert.Nil(t, rows[3])
	assert.Equal(t, map[string]any{"name": "x"}, rows[5])

	assert.Nil(t, resolve(n, OpSet, "rows/-1", "y"))
	assert.Nil(t, resolve(n, OpSet, "rows/100000", "y"))
	assert.Len(t, n.Data()["rows"], 6)
}

func TestViewsRegistry(t *testing.T) {
	v := NewViews()
	o1 := NewObserver(path.Parse("/a/b"), func(Op, path.Path) {})
	o2 := NewObserver(path.Parse("/a/b"), func(Op, path.Path) {})
	assert.NotEqual(t, o1.ID, o2.ID)

	resolve(v, OpSet, "a/b", o1)
	resolve(v, OpSet, "a/b", o2)

	loc, ok := resolve(v, OpGet, "a/b", nil).(Located)
	require.True(t, ok)
	assert.Equal(t, []*Observer{o1, o2}, loc.Node.Observers())
	require.Len(t, loc.Ancestors, 2)
	assert.Same(t, v.Root(), loc.Ancestors[0])
	assert.True(t, v.Root().Has("a"))
	assert.False(t, v.Root().Has("z"))

	assert.Same(t, o1, resolve(v, OpDelete, "a/b", o1))
	assert.Nil(t, resolve(v, OpDelete, "a/b", o1))
	assert.Equal(t, []*Observer{o2}, loc.Node.Observers())

	rootLoc := v.Resolve(OpGet, path.Root.Iterator(), nil).(Located)
	assert.Same(t, v.Root(), rootLoc.Node)
	assert.Empty(t, rootLoc.Ancestors)
}

func TestGatherAndDispatch(t *testing.T) {
	v := NewViews()
	var calls []string
	mk := func(name string) *Observer {
		return NewObserver(path.Root, func(Op, path.Path) { calls = append(calls, name) })
	}
	top, mid, leaf, deeper := mk("top"), mk("mid"), mk("leaf"), mk("deeper")
	resolve(v, OpSet, "a", top)
	resolve(v, OpSet, "a/b", mid)
	resolve(v, OpSet, "a/b/c", leaf)
	resolve(v, OpSet, "a/b/c/d", deeper)

	loc := resolve(v, OpGet, "a/b", nil).(Located)
	list := Collect(loc)
	assert.Equal(t, []*Observer{top, mid, leaf, deeper}, list)

	leaf.active = true
	assert.Equal(t, []*Observer{top, mid, deeper}, Collect(loc))
	leaf.active = false

	var faults []string
	boom := NewObserver(path.Root, func(Op, path.Path) { panic("boom") })
	Dispatch([]*Observer{boom, top}, OpSet, path.Root, func(o *Observer, r any) {
		faults = append(faults, r.(string))
	})
	assert.Equal(t, []string{"boom"}, faults)
	assert.Equal(t, []string{"top"}, calls)
	assert.False(t, boom.Active())
}

func TestDispatchMarksActive(t *testing.T) {
	var o *Observer
	var seen bool
	o = NewObserver(path.Root, func(Op, path.Path) { seen = o.Active() })
	Dispatch([]*Observer{o}, OpSet, path.Root, nil)
	assert.True(t, seen)
	assert.False(t, o.Active())
}

func TestBound(t *testing.T) {
	fields := NewFields("user", "pass", "user")
	assert.Equal(t, []string{"user", "pass"}, fields.Names())

	b := NewBound("login", fields)
	root := NewStandard(map[string]any{"forms": map[string]any{"login": b}})

	resolve(root, OpSet, "forms/login/user", "ada")
	assert.Equal(t, "ada", fields.Get("user"))
	assert.Equal(t, "ada", resolve(root, OpGet, "forms/login/user", nil))
	resolve(root, OpSet, "forms/login/unknown", "x")
	assert.Nil(t, fields.Get("unknown"))

	assert.Equal(t, map[string]any{"user": "ada", "pass": ""}, b.Values())
	assert.Equal(t, "pass=&user=ada", b.Encode())

	assert.Equal(t, "ada", resolve(root, OpDelete, "forms/login/user", nil))
	assert.Equal(t, "", fields.Get("user"))

	b.SetData(map[string]any{"user": "bob", "pass": "pw"})
	assert.Equal(t, "pw", fields.Get("pass"))
}

func TestKindsAndOps(t *testing.T) {
	assert.Equal(t, "del", OpDelete.String())
	assert.Equal(t, KindViews, NewViews().Kind())
	assert.Equal(t, "bound", KindBound.String())
	_, ok := AsNode(map[string]any{})
	assert.False(t, ok)
}
