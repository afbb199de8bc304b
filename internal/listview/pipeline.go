package listview

import (
	"context"
	"errors"
)

// Result is one fetched set of rows and the total they belong to.
type Result[T any] struct {
	Items      []T
	TotalCount int
}

// ClientSource returns the full dataset; filtering and paging happen locally.
type ClientSource[T any] interface {
	FetchAll(ctx context.Context) ([]T, error)
}

// ServerSource returns one already filtered and paged slice plus the server total.
type ServerSource[T any] interface {
	FetchPage(ctx context.Context, q Query) (Result[T], error)
}

// ClientFunc adapts a function to ClientSource.
type ClientFunc[T any] func(ctx context.Context) ([]T, error)

// FetchAll calls f.
func (f ClientFunc[T]) FetchAll(ctx context.Context) ([]T, error) { return f(ctx) }

// ServerFunc adapts a function to ServerSource.
type ServerFunc[T any] func(ctx context.Context, q Query) (Result[T], error)

// FetchPage calls f.
func (f ServerFunc[T]) FetchPage(ctx context.Context, q Query) (Result[T], error) { return f(ctx, q) }

// Option configures a Pipeline.
type Option[T any] func(*Pipeline[T])

// WithFallback serves rows from fn, flagged as degraded, when the fetch fails.
func WithFallback[T any](fn func() []T) Option[T] {
	return func(p *Pipeline[T]) { p.fallback = fn }
}

// WithPageSizes sets the selectable page sizes.
func WithPageSizes[T any](sizes []int) Option[T] {
	return func(p *Pipeline[T]) {
		if len(sizes) > 0 {
			p.pageSizes = sizes
		}
	}
}

// Pipeline turns a Query and a source into a View.
type Pipeline[T any] struct {
	client    ClientSource[T]
	server    ServerSource[T]
	fields    Fields[T]
	fallback  func() []T
	pageSizes []int
}

// NewClientPipeline builds a pipeline that filters and pages locally over fields.
func NewClientPipeline[T any](src ClientSource[T], fields Fields[T], opts ...Option[T]) *Pipeline[T] {
	p := &Pipeline[T]{client: src, fields: fields, pageSizes: DefaultPageSizes}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewServerPipeline builds a pipeline whose source filters and pages. fields are
// only used to search the fallback dataset.
func NewServerPipeline[T any](src ServerSource[T], fields Fields[T], opts ...Option[T]) *Pipeline[T] {
	p := &Pipeline[T]{server: src, fields: fields, pageSizes: DefaultPageSizes}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PageSizes returns the selectable page sizes.
func (p *Pipeline[T]) PageSizes() []int { return p.pageSizes }

// Run fetches and shapes one page. On fetch failure with a fallback configured,
// the fallback rows are served and the error is recorded on the view instead of
// returned.
func (p *Pipeline[T]) Run(ctx context.Context, q Query) (View[T], error) {
	if q.PageSize < 1 {
		q.PageSize = p.pageSizes[0]
	}
	if q.Page < 1 {
		q.Page = 1
	}

	var (
		view View[T]
		err  error
	)
	if p.server != nil {
		view, err = p.runServer(ctx, q)
	} else {
		view, err = p.runClient(ctx, q)
	}
	if err == nil {
		return view, nil
	}
	if p.fallback == nil || ctx.Err() != nil {
		return View[T]{Query: q, PageSizes: p.pageSizes, Err: err, RangeLabel: RangeLabel(0, 0, 0, 0)}, err
	}

	view = p.local(p.fallback(), q)
	view.Degraded = true
	view.Err = err
	return view, nil
}

func (p *Pipeline[T]) runClient(ctx context.Context, q Query) (View[T], error) {
	if p.client == nil {
		return View[T]{}, errors.New("listview: no source configured")
	}
	items, err := p.client.FetchAll(ctx)
	if err != nil {
		return View[T]{}, err
	}
	return p.local(items, q), nil
}

func (p *Pipeline[T]) local(items []T, q Query) View[T] {
	filtered := Filter(items, q.Search, p.fields)
	q.Page = ClampPage(q.Page, q.PageSize, len(filtered))
	return newView(Paginate(filtered, q.Page, q.PageSize), q, len(filtered), p.pageSizes)
}

func (p *Pipeline[T]) runServer(ctx context.Context, q Query) (View[T], error) {
	res, err := p.server.FetchPage(ctx, q)
	if err != nil {
		return View[T]{}, err
	}
	total := max(res.TotalCount, 0)

	// The requested page can fall past the end when rows disappear between
	// requests; fetch the last page instead.
	if clamped := ClampPage(q.Page, q.PageSize, total); clamped != q.Page {
		q.Page = clamped
		if res, err = p.server.FetchPage(ctx, q); err != nil {
			return View[T]{}, err
		}
		total = max(res.TotalCount, 0)
	}

	items := res.Items
	if len(items) > q.PageSize {
		items = items[:q.PageSize]
	}
	return newView(items, q, total, p.pageSizes), nil
}

// RunExclusive runs the pipeline as the newest fetch for key. A newer call for the
// same key cancels this one, and a superseded run returns ErrSuperseded so its
// result is never rendered.
func (p *Pipeline[T]) RunExclusive(ctx context.Context, f *Inflight, key string, q Query) (View[T], error) {
	ctx, ticket := f.Begin(ctx, key)
	view, err := p.Run(ctx, q)
	if ferr := ticket.Finish(); ferr != nil {
		return View[T]{}, ferr
	}
	return view, err
}
