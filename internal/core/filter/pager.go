package filter

import (
	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/path"
	"github.com/zeusync/nub/internal/core/store"
)

// ListFilters is the root under which pagers keep their filters.
const ListFilters = "nub:listFilters"

// PageState is a snapshot of a pager.
type PageState struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	LastPage int   `json:"lastPage"`
	Rows     []any `json:"rows"`
}

// Controls are the navigation actions handed to a layout function.
type Controls struct {
	First   func()
	Prev    func()
	Next    func()
	Last    func()
	SetPage func(page int)
}

// Pager pages a list held in the store.
type Pager struct {
	store  *store.Store
	filter *Filter
	config PagerConfig

	// Layout is whatever the configured layout function built, if any.
	Layout any
}

// NewPager defines a pagination filter for sourceRef under ListFilters and
// sets its initial arguments from cfg.
func NewPager(s *store.Store, sourceRef any, cfg PagerConfig) *Pager {
	cfg = cfg.withDefaults()
	filterPath := store.Resolve(sourceRef).InContext(path.New(true, ListFilters))

	p := &Pager{
		store:  s,
		filter: Define(s, filterPath, sourceRef, Paginate),
		config: cfg,
	}
	s.Set(ArgsKey, map[string]any{"page": cfg.Page, "pageSize": cfg.PageSize}, filterPath)

	// Both callbacks hang off the rows, which are written once per recompute
	// and only after a requested page has been clamped.
	if cfg.OnPage != nil {
		s.MustView(p.RowsPath(), func() { cfg.OnPage(p.State()) })
	}
	if cfg.OnRows != nil {
		s.MustView(p.RowsPath(), func() { cfg.OnRows(len(p.Rows()), p.PageSize()) })
	}
	if cfg.Layout != nil {
		p.Layout = cfg.Layout(p.Controls())
	}
	return p
}

// Filter returns the underlying pagination filter.
func (p *Pager) Filter() *Filter { return p.filter }

// Config returns the effective configuration.
func (p *Pager) Config() PagerConfig { return p.config }

// RowsPath addresses the rows of the current page; append an index for a row.
func (p *Pager) RowsPath() path.Path {
	return p.filter.Path().Child(FieldPageRows)
}

func (p *Pager) Page() int {
	n, _ := toInt(p.store.Get(ArgsKey+"/page", p.filter.Path()))
	return n
}

func (p *Pager) PageSize() int {
	n, _ := toInt(p.store.Get(ArgsKey+"/pageSize", p.filter.Path()))
	return n
}

func (p *Pager) LastPage() int {
	n, _ := toInt(p.filter.Result(FieldLastPage))
	return n
}

func (p *Pager) Rows() []any {
	rows, _ := p.filter.Result(FieldPageRows).([]any)
	return rows
}

func (p *Pager) State() PageState {
	return PageState{Page: p.Page(), PageSize: p.PageSize(), LastPage: p.LastPage(), Rows: p.Rows()}
}

// SetPage requests a page. Out of range pages are corrected by the filter.
func (p *Pager) SetPage(page int) {
	p.filter.SetArg("page", page)
}

// SetPageSize changes the rows per page; sizes below one become one.
func (p *Pager) SetPageSize(size int) {
	if size < 1 {
		size = 1
	}
	p.filter.SetArg("pageSize", size)
}

func (p *Pager) First() { p.SetPage(1) }

func (p *Pager) Prev() {
	if page := p.Page(); page > 1 {
		p.SetPage(page - 1)
	}
}

func (p *Pager) Next() {
	if page := p.Page(); page < p.LastPage() {
		p.SetPage(page + 1)
	}
}

func (p *Pager) Last() { p.SetPage(p.LastPage()) }

// Controls returns the navigation actions, as passed to a layout function.
func (p *Pager) Controls() Controls {
	return Controls{First: p.First, Prev: p.Prev, Next: p.Next, Last: p.Last, SetPage: p.SetPage}
}

// Click reports a click on the row at index i of the current page to the
// configured callback.
func (p *Pager) Click(i int) {
	if p.config.Click == nil {
		return
	}
	rows := p.Rows()
	if i < 0 || i >= len(rows) {
		return
	}
	p.config.Click(i, rows[i])
}

// Watch registers fn for every recompute of the page.
func (p *Pager) Watch(fn func(PageState)) *model.Observer {
	return p.store.MustView(p.RowsPath(), func() { fn(p.State()) }, store.WithoutInit())
}
