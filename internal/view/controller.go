// Package view holds the interactive state of a table view: the current
// query, the latest page of results and the summary of the upload it
// belongs to. Front ends (the browse CLI, tests) drive a Controller and
// redraw from the State it publishes.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/csvview/internal/core"
)

// DefaultDebounce is the quiet period before a search term is applied.
const DefaultDebounce = 300 * time.Millisecond

// Source evaluates queries for a Controller.
type Source interface {
	Load(ctx context.Context, q core.Query) (core.Result, error)
}

// State is a snapshot of a Controller.
//
// Upload carries the totals of the whole upload and never changes after
// construction. Result.TotalRows is the number of rows matching the query.
type State struct {
	Upload      core.UploadSummary
	Query       core.Query
	Result      core.Result
	SearchInput string // typed but possibly not yet applied
	Loading     bool
	Err         string
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the search debounce period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(c *Controller) { c.state.Query.PageSize = n }
}

// Controller applies user actions to a query and reloads results from a Source.
// All methods are safe for concurrent use.
type Controller struct {
	source   Source
	debounce time.Duration

	mu        sync.Mutex
	state     State
	seq       uint64
	timer     *time.Timer
	listeners []func(State)
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a controller for the upload described by upload.
// Call Refresh to load the first page.
func New(source Source, upload core.UploadSummary, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		source:   source,
		debounce: DefaultDebounce,
		state: State{
			Upload: upload,
			Query: core.Query{
				Page:          1,
				PageSize:      core.DefaultPageSize,
				SortDirection: core.SortAsc,
				SearchColumn:  core.AllColumns,
			},
			Result: core.Result{Columns: upload.Columns, Page: 1},
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Query = c.state.Query.Normalize(0)
	return c
}

// OnChange registers fn to receive every new state.
// fn runs on the goroutine that caused the change and must not block.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh reloads the current query.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.update(ctx, func(*core.Query) {})
}

// SetSearch records term and applies it once no further call arrives within
// the debounce period. The applied search resets the page to 1.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.SearchInput = term
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		_ = c.Search(c.ctx, term)
	})
	snapshot, listeners := c.snapshotLocked()
	c.mu.Unlock()

	notify(listeners, snapshot)
}

// Search applies term immediately, cancelling any pending debounced search.
func (c *Controller) Search(ctx context.Context, term string) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state.SearchInput = term
	c.mu.Unlock()

	return c.update(ctx, func(q *core.Query) {
		q.Search = term
		q.Page = 1
	})
}

// SetSearchColumn restricts the search to column, or every column for core.AllColumns.
func (c *Controller) SetSearchColumn(ctx context.Context, column string) error {
	return c.update(ctx, func(q *core.Query) {
		q.SearchColumn = column
		q.Page = 1
	})
}

// ToggleSort sorts by column ascending, or flips the direction when the
// table is already sorted by column.
func (c *Controller) ToggleSort(ctx context.Context, column string) error {
	return c.update(ctx, func(q *core.Query) {
		if q.SortBy == column {
			q.SortDirection = q.SortDirection.Toggle()
		} else {
			q.SortBy = column
			q.SortDirection = core.SortAsc
		}
		q.Page = 1
	})
}

// SetSortDirection changes the direction without changing the sort column.
func (c *Controller) SetSortDirection(ctx context.Context, dir core.SortDirection) error {
	return c.update(ctx, func(q *core.Query) {
		q.SortDirection = dir
		q.Page = 1
	})
}

// SetPage moves to page n. Pages past the end are clamped to the last page.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	return c.update(ctx, func(q *core.Query) {
		q.Page = n
	})
}

// NextPage moves forward one page if there is one.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.update(ctx, func(q *core.Query) {
		q.Page++
	})
}

// PrevPage moves back one page.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.update(ctx, func(q *core.Query) {
		q.Page--
	})
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(ctx context.Context, n int) error {
	return c.update(ctx, func(q *core.Query) {
		q.PageSize = n
		q.Page = 1
	})
}

// Close cancels any pending search. Later calls to SetSearch are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cancel()
}

// update mutates the query and loads it. When the loaded page lies past
// the last page, the query is clamped and loaded once more.
func (c *Controller) update(ctx context.Context, mutate func(*core.Query)) error {
	c.mu.Lock()
	q := c.state.Query
	mutate(&q)
	q = q.Normalize(0)
	c.state.Query = q
	c.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		res, err := c.load(ctx, q)
		if err != nil {
			return err
		}
		last := max(1, res.TotalPages)
		if q.Page <= last {
			return nil
		}

		c.mu.Lock()
		if c.state.Query != q {
			// A newer action superseded this one.
			c.mu.Unlock()
			return nil
		}
		q.Page = last
		c.state.Query = q
		c.mu.Unlock()
	}
	return nil
}

// load fetches q and publishes the outcome. Results of superseded loads are
// dropped. A failed load keeps the previous result and records the message.
func (c *Controller) load(ctx context.Context, q core.Query) (core.Result, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Loading = true
	snapshot, listeners := c.snapshotLocked()
	c.mu.Unlock()
	notify(listeners, snapshot)

	res, err := c.source.Load(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return res, err
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = errorMessage(err)
	} else {
		c.state.Err = ""
		c.state.Result = res
	}
	snapshot, listeners = c.snapshotLocked()
	c.mu.Unlock()
	notify(listeners, snapshot)

	return res, err
}

func (c *Controller) snapshotLocked() (State, []func(State)) {
	listeners := make([]func(State), len(c.listeners))
	copy(listeners, c.listeners)
	return c.state, listeners
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}

// errorMessage prefers the user-facing message of a *core.UserError.
func errorMessage(err error) string {
	var ue *core.UserError
	if errors.As(err, &ue) {
		return ue.User.Message
	}
	return err.Error()
}
