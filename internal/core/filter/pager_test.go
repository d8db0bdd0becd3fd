package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/nub/internal/core/store"
)

func TestPagerNavigation(t *testing.T) {
	s := store.New()
	s.Set("orders", items(45))

	var pages []int
	p := NewPager(s, "orders", PagerConfig{
		PageSize: 20,
		OnPage:   func(st PageState) { pages = append(pages, st.Page) },
	})

	assert.Equal(t, "/nub:listFilters/orders", p.Filter().Path().String())
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 20, p.PageSize())
	assert.Equal(t, 3, p.LastPage())
	assert.Equal(t, items(45)[0:20], p.Rows())

	p.Next()
	p.Next()
	p.Next()
	assert.Equal(t, 3, p.Page())
	assert.Len(t, p.Rows(), 5)

	p.Prev()
	assert.Equal(t, 2, p.Page())
	p.First()
	assert.Equal(t, 1, p.Page())
	p.Prev()
	assert.Equal(t, 1, p.Page())
	p.Last()
	assert.Equal(t, 3, p.Page())

	p.SetPage(5)
	assert.Equal(t, 3, p.Page())
	assert.Equal(t, items(45)[40:45], p.Rows())

	assert.Equal(t, []int{1, 2, 3, 2, 1, 3, 3}, pages)

	assert.Equal(t, 40, s.Get(p.RowsPath().Child("0")))
}

func TestPagerTracksSourceAndSize(t *testing.T) {
	s := store.New()
	s.Set("list", items(5))

	var visible []int
	p := NewPager(s, "list", PagerConfig{
		PageSize: 2,
		OnRows:   func(n, size int) { visible = append(visible, n) },
	})
	require.NotEmpty(t, visible)
	assert.Equal(t, 2, visible[len(visible)-1])

	p.Last()
	assert.Equal(t, 1, visible[len(visible)-1])

	p.SetPageSize(0)
	assert.Equal(t, 1, p.PageSize())
	assert.Equal(t, 5, p.LastPage())

	s.Set("list", []any{})
	assert.Equal(t, 1, p.LastPage())
	assert.Equal(t, 1, p.Page())
	assert.Empty(t, p.Rows())
	assert.Equal(t, 0, visible[len(visible)-1])
}

func TestPagerCallbacksFireOncePerChange(t *testing.T) {
	s := store.New()
	s.Set("orders", items(45))

	var pages []int
	var visible [][2]int
	p := NewPager(s, "orders", PagerConfig{
		PageSize: 20,
		OnPage:   func(st PageState) { pages = append(pages, st.Page) },
		OnRows:   func(n, size int) { visible = append(visible, [2]int{n, size}) },
	})
	var watched []PageState
	p.Watch(func(st PageState) { watched = append(watched, st) })
	p.Last()

	pages, visible, watched = nil, nil, nil
	p.SetPage(5)
	assert.Equal(t, []int{3}, pages)
	assert.Equal(t, [][2]int{{5, 20}}, visible)
	require.Len(t, watched, 1)
	assert.Equal(t, 3, watched[0].Page)
	assert.Len(t, watched[0].Rows, 5)

	pages, visible = nil, nil
	p.SetPageSize(5)
	assert.Equal(t, []int{3}, pages)
	assert.Equal(t, [][2]int{{5, 5}}, visible)

	pages, visible = nil, nil
	s.Set("orders", items(12))
	assert.Equal(t, []int{3}, pages)
	assert.Equal(t, [][2]int{{2, 5}}, visible)
}

func TestPagerLayoutClickAndWatch(t *testing.T) {
	s := store.New()
	s.Set("list", []any{"a", "b", "c"})

	var clicked []any
	p := NewPager(s, "list", PagerConfig{
		PageSize: 2,
		Click:    func(_ int, row any) { clicked = append(clicked, row) },
		Layout: func(c Controls) any {
			return []func(){c.First, c.Prev, c.Next, c.Last}
		},
	})

	var states []PageState
	p.Watch(func(st PageState) { states = append(states, st) })

	controls := p.Layout.([]func())
	controls[2]()
	assert.Equal(t, 2, p.Page())
	require.NotEmpty(t, states)
	assert.Equal(t, []any{"c"}, states[len(states)-1].Rows)

	p.Click(0)
	p.Click(5)
	assert.Equal(t, []any{"c"}, clicked)
}

func TestLoadPagerConfig(t *testing.T) {
	cfg, err := LoadPagerConfig(strings.NewReader("pageSize: 5\nemptyRows: mark\nhoverStyle: hot\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, 1, cfg.Page)
	assert.Equal(t, EmptyRowsMark, cfg.EmptyRows)
	assert.Equal(t, "hot", cfg.HoverStyle)
	require.NotNil(t, cfg.ShowPager)
	assert.True(t, *cfg.ShowPager)

	cfg, err = LoadPagerConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultPagerConfig().PageSize, cfg.PageSize)
}
