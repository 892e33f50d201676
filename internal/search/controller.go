// Package search coordinates debounced, cancellable, paginated card searches
// against a catalog.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/rs/zerolog"

	"github.com/loapalette/companion/internal/lorcana/cards"
	"github.com/loapalette/companion/internal/lorcana/catalog"
)

const (
	// DefaultPageSize is the catalog page size requested per call.
	DefaultPageSize = 20

	// DefaultDebounceInterval is how long a search waits for further
	// keystrokes before issuing its request.
	DefaultDebounceInterval = 500 * time.Millisecond
)

// Status is the controller's lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusSuccess:
		return "Success"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Catalog is the card source the controller drives.
type Catalog interface {
	List(ctx context.Context, page, pageSize int) (*catalog.Page, error)
	Search(ctx context.Context, expr string, page, pageSize int) (*catalog.Page, error)
}

// Snapshot is a consistent copy of the controller's observable state.
type Snapshot struct {
	Cards         []cards.Card
	Status        Status
	ErrorMessage  string
	Query         string
	Page          int
	HasMore       bool
	IsLoadingMore bool
}

// Controller owns the result set of a card search session. Only one search
// or list operation is logically current at a time: a newer Search always
// wins, and a superseded call never reaches the network once overtaken
// during its debounce window.
type Controller struct {
	catalog   Catalog
	log       zerolog.Logger
	pageSize  int
	interval  time.Duration
	debounced func(func())
	onChange  func(Snapshot)

	mu           sync.Mutex
	cards        []cards.Card
	status       Status
	errMsg       string
	query        string
	currentQuery string
	page         int
	hasMore      bool
	loadingMore  bool
	gen          uint64
	cancelSearch context.CancelFunc
	cancelMore   context.CancelFunc
	closed       bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize overrides the catalog page size.
func WithPageSize(n int) Option {
	return func(c *Controller) { c.pageSize = n }
}

// WithDebounceInterval overrides the debounce window. Intended for tests.
func WithDebounceInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithOnChange registers a callback invoked after every state change with a
// fresh snapshot.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController creates an idle controller over the given catalog.
func NewController(cat Catalog, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		catalog:  cat,
		log:      logger,
		pageSize: DefaultPageSize,
		interval: DefaultDebounceInterval,
		status:   StatusIdle,
		page:     1,
		hasMore:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debounced = debounce.New(c.interval)
	return c
}

// Search records the query and schedules a debounced catalog search. A
// blank query delegates to LoadAll immediately. Calling Search again within
// the debounce window discards the pending request entirely.
func (c *Controller) Search(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = query
	c.supersedeLocked()

	if c.currentQuery != query {
		c.page = 1
		c.currentQuery = query
		c.hasMore = true
	}

	if strings.TrimSpace(query) == "" {
		c.mu.Unlock()
		c.LoadAll()
		return
	}

	c.status = StatusLoading
	c.errMsg = ""
	gen := c.gen
	page := c.page
	c.mu.Unlock()
	c.notify()

	c.debounced(func() {
		c.run(gen, query, page, false)
	})
}

// LoadAll resets pagination and fetches the first page of the full catalog,
// bypassing the debounce window.
func (c *Controller) LoadAll() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.supersedeLocked()
	c.page = 1
	c.currentQuery = ""
	c.hasMore = true
	c.status = StatusLoading
	c.errMsg = ""
	gen := c.gen
	c.mu.Unlock()
	c.notify()

	go c.run(gen, "", 1, true)
}

// LoadMore fetches the next page of the current query and appends it. It is
// a no-op while a previous LoadMore is in flight or when the catalog has no
// further pages. A failed page is not counted: the page number rolls back
// and the overall status keeps its previous value.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.closed || c.loadingMore || !c.hasMore {
		c.mu.Unlock()
		return
	}
	c.page++
	c.loadingMore = true
	gen := c.gen
	page := c.page
	expr := c.currentQuery
	c.mu.Unlock()
	c.notify()

	go c.runMore(gen, expr, page)
}

// Clear cancels any pending work and resets the controller to its initial
// state.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.supersedeLocked()
	c.cards = nil
	c.query = ""
	c.currentQuery = ""
	c.status = StatusIdle
	c.errMsg = ""
	c.page = 1
	c.hasMore = true
	c.loadingMore = false
	c.mu.Unlock()
	c.notify()
}

// Cleanup cancels all in-flight and pending work and retires the
// controller. It must be called when the consumer is discarded so a dangling
// completion cannot mutate state afterwards.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	c.supersedeLocked()
	c.closed = true
	c.mu.Unlock()
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Cards:         append([]cards.Card(nil), c.cards...),
		Status:        c.status,
		ErrorMessage:  c.errMsg,
		Query:         c.query,
		Page:          c.page,
		HasMore:       c.hasMore,
		IsLoadingMore: c.loadingMore,
	}
}

// supersedeLocked invalidates every outstanding operation: pending debounced
// closures and in-flight completions see a stale generation and drop out,
// and in-flight requests are cancelled at the transport.
func (c *Controller) supersedeLocked() {
	c.gen++
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}
	if c.cancelMore != nil {
		c.cancelMore()
		c.cancelMore = nil
	}
}

// run performs the current search or list request for page and applies the
// outcome, unless the operation was superseded in the meantime.
func (c *Controller) run(gen uint64, expr string, page int, list bool) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelSearch = cancel
	c.mu.Unlock()

	result, err := c.fetch(ctx, expr, page, list)
	cancel()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.log.Warn().Err(err).Str("query", expr).Int("page", page).Msg("card search failed")
		c.errMsg = err.Error()
		c.status = StatusError
		if page == 1 {
			// Partial results from a failed first page are never shown.
			c.cards = nil
		}
		c.mu.Unlock()
		c.notify()
		return
	}

	if page == 1 {
		c.cards = result.Cards
	} else {
		c.cards = append(c.cards, result.Cards...)
	}
	c.hasMore = len(result.Cards) >= c.pageSize
	c.status = StatusSuccess
	c.mu.Unlock()
	c.notify()
}

// runMore performs a load-more request and appends the outcome.
func (c *Controller) runMore(gen uint64, expr string, page int) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.loadingMore = false
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMore = cancel
	c.mu.Unlock()

	result, err := c.fetch(ctx, expr, page, expr == "")
	cancel()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.loadingMore = false
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.log.Warn().Err(err).Int("page", page).Msg("load more failed")
		c.page--
		c.errMsg = err.Error()
		c.loadingMore = false
		c.mu.Unlock()
		c.notify()
		return
	}

	c.cards = append(c.cards, result.Cards...)
	c.hasMore = len(result.Cards) >= c.pageSize
	c.loadingMore = false
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) fetch(ctx context.Context, expr string, page int, list bool) (*catalog.Page, error) {
	if list {
		return c.catalog.List(ctx, page, c.pageSize)
	}
	return c.catalog.Search(ctx, expr, page, c.pageSize)
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
