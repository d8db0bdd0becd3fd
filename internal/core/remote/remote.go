// Package remote implements store nodes backed by fetched resources.
//
// A Remote holds a {meta, data} pair. meta.status moves from preload to
// loading (reads) or submitting (writes) and then to loaded. Each transition
// installs a freshly built pair and notifies observers of the mount point, so
// a reader never sees a half-updated resource. Transport failures are recorded
// in meta.error; they are never returned to the caller.
package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"

	"github.com/zeusync/nub/internal/core/model"
	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/path"
	"github.com/zeusync/nub/internal/core/store"
)

var _ model.Node = (*Remote)(nil)

type Status string

const (
	StatusPreload    Status = "preload"
	StatusLoading    Status = "loading"
	StatusSubmitting Status = "submitting"
	StatusLoaded     Status = "loaded"
)

// Keys of the stored resource.
const (
	KeyMeta            = "meta"
	KeyData            = "data"
	KeyStatus          = "status"
	KeyURI             = "uri"
	KeyTimestamp       = "timestamp"
	KeyAjaxStatus      = "ajaxStatus"
	KeyDataType        = "dataType"
	KeyError           = "error"
	KeyInitialSnapshot = "initialSnapshot"
	KeyInitialDigest   = "initialDigest"
)

// StatusPath is the meta.status location relative to a mount point.
const StatusPath = KeyMeta + "/" + KeyStatus

// Meta describes the state of a resource.
type Meta struct {
	Status          Status
	URI             string
	Timestamp       time.Time
	AjaxStatus      string
	DataType        string
	Error           error
	InitialSnapshot string
	// InitialDigest is the xxhash of InitialSnapshot, taken once per load.
	InitialDigest uint64
}

// Snapshot is one immutable state of a resource.
type Snapshot struct {
	Meta Meta
	Data any
}

func (s Snapshot) content() map[string]any {
	meta := map[string]any{KeyStatus: string(s.Meta.Status)}
	if s.Meta.URI != "" {
		meta[KeyURI] = s.Meta.URI
	}
	if !s.Meta.Timestamp.IsZero() {
		meta[KeyTimestamp] = s.Meta.Timestamp
	}
	if s.Meta.AjaxStatus != "" {
		meta[KeyAjaxStatus] = s.Meta.AjaxStatus
	}
	if s.Meta.DataType != "" {
		meta[KeyDataType] = s.Meta.DataType
	}
	if s.Meta.Error != nil {
		meta[KeyError] = s.Meta.Error
	}
	if s.Meta.InitialSnapshot != "" {
		meta[KeyInitialSnapshot] = s.Meta.InitialSnapshot
		meta[KeyInitialDigest] = s.Meta.InitialDigest
	}
	return map[string]any{KeyMeta: meta, KeyData: s.Data}
}

// Remote is a store node wrapping a fetchable resource.
type Remote struct {
	store   *store.Store
	ref     path.Path
	opts    RequestOptions
	logger  log.Log
	content *model.Standard
}

// New creates a Remote in preload state and mounts it at ref.
func New(s *store.Store, ref any, opts RequestOptions) *Remote {
	p := store.Resolve(ref)
	r := &Remote{
		store:  s,
		ref:    p,
		opts:   opts.withDefaults(),
		logger: s.Logger().With(log.Stringer("remote", p)),
	}
	r.install(Snapshot{Meta: Meta{Status: StatusPreload}})
	return r
}

// Find returns the Remote mounted at ref.
func Find(s *store.Store, ref any, ctx ...any) (*Remote, bool) {
	n, ok := model.AsNode(s.Get(ref, ctx...))
	if !ok || n.Kind() != model.KindRemote {
		return nil, false
	}
	return n.(*Remote), true
}

func (r *Remote) Kind() model.Kind { return model.KindRemote }

// Resolve addresses the meta and data of the current snapshot.
func (r *Remote) Resolve(op model.Op, it *path.Iterator, value any) any {
	return r.content.Resolve(op, it, value)
}

// Ref is the mount point.
func (r *Remote) Ref() path.Path { return r.ref }

// Status reads meta.status.
func (r *Remote) Status() Status {
	s, _ := r.store.Get(StatusPath, r.ref).(string)
	return Status(s)
}

// Loaded is true unless the resource is waiting for its first or next response.
func (r *Remote) Loaded() bool {
	s := string(r.Status())
	if s == "" {
		return false
	}
	for _, pending := range []Status{StatusPreload, StatusLoading, StatusSubmitting} {
		if strings.HasPrefix(s, string(pending)) {
			return false
		}
	}
	return true
}

// Data reads the current payload.
func (r *Remote) Data() any {
	return r.store.Get(KeyData, r.ref)
}

// Meta reads the current metadata.
func (r *Remote) Meta() Meta {
	m, _ := r.store.Get(KeyMeta, r.ref).(map[string]any)
	var meta Meta
	if s, ok := m[KeyStatus].(string); ok {
		meta.Status = Status(s)
	}
	meta.URI, _ = m[KeyURI].(string)
	meta.Timestamp, _ = m[KeyTimestamp].(time.Time)
	meta.AjaxStatus, _ = m[KeyAjaxStatus].(string)
	meta.DataType, _ = m[KeyDataType].(string)
	meta.Error, _ = m[KeyError].(error)
	meta.InitialSnapshot, _ = m[KeyInitialSnapshot].(string)
	meta.InitialDigest, _ = m[KeyInitialDigest].(uint64)
	return meta
}

// Snapshot returns the current state.
func (r *Remote) Snapshot() Snapshot {
	return Snapshot{Meta: r.Meta(), Data: r.Data()}
}

// install swaps in a new snapshot and notifies the mount point.
func (r *Remote) install(snap Snapshot) {
	r.content = model.NewStandard(snap.content())
	r.store.Set(r.ref, r)
}

// Load dispatches a request and installs the result. GET requests move the
// resource to loading, every other method to submitting. The returned error
// reports a request that could not be issued; transport failures end up in
// meta.error and the error callback instead.
func (r *Remote) Load(ctx context.Context, o LoadOptions) error {
	if o.Method == "" {
		o.Method = http.MethodGet
	}
	req := &Request{Method: o.Method, URL: o.URL, DataType: o.DataType, Body: o.Body}
	if r.opts.OnBeforeRequest != nil {
		req = r.opts.OnBeforeRequest(req)
	}
	if req == nil || req.URL == "" {
		return ErrNoURL
	}

	pending := r.Snapshot()
	pending.Meta.Status = StatusLoading
	if req.Method != http.MethodGet {
		pending.Meta.Status = StatusSubmitting
	}
	pending.Meta.DataType = req.DataType
	r.install(pending)

	r.logger.Debug("remote request", log.String("method", req.Method), log.String("url", req.URL))
	resp, err := r.opts.Transport.Do(ctx, req)
	status := StatusTokenError
	if resp != nil {
		status = resp.Status
	}

	if err != nil {
		r.logger.Warn("remote load failed", log.String("url", req.URL), log.String("status", status), log.Error(err))
		r.update(req, status, nil, err)
		callError(o.Error, r.opts.Error)(err, status)
		return nil
	}
	r.update(req, status, resp.Data, nil)
	callSuccess(o.Success, r.opts.Success)(resp.Data, status)
	return nil
}

func (r *Remote) update(req *Request, status string, data any, err error) {
	snap := Snapshot{
		Meta: Meta{
			Status:     StatusLoaded,
			URI:        req.URL,
			Timestamp:  time.Now(),
			AjaxStatus: status,
			DataType:   req.DataType,
			Error:      err,
		},
		Data: data,
	}
	if data != nil {
		if raw, serr := r.opts.Serialize(data); serr == nil {
			snap.Meta.InitialSnapshot = string(raw)
		}
	}
	if r.opts.OnAfterLoad != nil {
		snap = r.opts.OnAfterLoad(snap, req.Method)
	}
	snap.Meta.InitialDigest = 0
	if snap.Meta.InitialSnapshot != "" {
		snap.Meta.InitialDigest = xxhash.Sum64String(snap.Meta.InitialSnapshot)
	}
	r.install(snap)
}

// Get loads with GET. Arguments are a URL string, a success callback and
// LoadOptions, in any order.
func (r *Remote) Get(ctx context.Context, args ...any) error {
	o := LoadOptions{Method: http.MethodGet, DataType: DataTypeJSON}.merge(parseArgs(args))
	return r.Load(ctx, o)
}

// Put sends the current data to the loaded URI unless another URL is given.
func (r *Remote) Put(ctx context.Context, args ...any) error {
	body, err := r.opts.Serialize(r.Data())
	if err != nil {
		return err
	}
	o := LoadOptions{Method: http.MethodPut, URL: r.Meta().URI, DataType: DataTypeJSON, Body: body}
	return r.Load(ctx, o.merge(parseArgs(args)))
}

// Post sends the current data.
func (r *Remote) Post(ctx context.Context, args ...any) error {
	body, err := r.opts.Serialize(r.Data())
	if err != nil {
		return err
	}
	o := LoadOptions{Method: http.MethodPost, DataType: DataTypeJSON, Body: body}
	return r.Load(ctx, o.merge(parseArgs(args)))
}

// Reload repeats the last load. It requires a loaded resource.
func (r *Remote) Reload(ctx context.Context, args ...any) error {
	meta := r.Meta()
	if meta.Status != StatusLoaded {
		return ErrNotLoaded
	}
	o := LoadOptions{URL: meta.URI, DataType: meta.DataType}.merge(parseArgs(args))
	o.Method = http.MethodGet
	return r.Load(ctx, o)
}

// Reset restores data from the snapshot taken when it was loaded.
func (r *Remote) Reset() error {
	raw := r.Meta().InitialSnapshot
	if raw == "" {
		return ErrNoSnapshot
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return err
	}
	r.store.Set(KeyData, data, r.ref)
	return nil
}

// Modified reports whether data differs from the loaded snapshot. Only the
// current data is hashed; the snapshot's digest was taken when it loaded.
func (r *Remote) Modified() bool {
	snap := r.Snapshot()
	if snap.Meta.InitialSnapshot == "" {
		return snap.Data != nil
	}
	raw, err := r.opts.Serialize(snap.Data)
	if err != nil {
		return true
	}
	return xxhash.Sum64(raw) != snap.Meta.InitialDigest
}

// WhenAvailable calls fn once the resource is loaded, immediately if it
// already is. Without repeat the observer removes itself after the first
// call; with repeat fn runs after every load.
func (r *Remote) WhenAvailable(fn func(*Remote), repeat bool) *model.Observer {
	var obs *model.Observer
	fire := func() {
		if !r.Loaded() {
			return
		}
		defer func() {
			if !repeat {
				r.store.RemoveView(StatusPath, obs, r.ref)
			}
		}()
		fn(r)
	}
	obs = r.store.MustView(StatusPath, fire, store.WithContext(r.ref), store.WithoutInit())
	fire()
	return obs
}

func callSuccess(fns ...SuccessFunc) SuccessFunc {
	for _, fn := range fns {
		if fn != nil {
			return fn
		}
	}
	return func(any, string) {}
}

func callError(fns ...ErrorFunc) ErrorFunc {
	for _, fn := range fns {
		if fn != nil {
			return fn
		}
	}
	return func(error, string) {}
}
