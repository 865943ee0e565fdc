package paginator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/conneroisu/bookshelf/internal/logging"
)

const (
	DefaultPageSize        = 3
	DefaultDebounce        = 150 * time.Millisecond
	DefaultScrollThreshold = 10.0
	DefaultScrollOffset    = 20.0
)

// View renders paginator state.
type View[T any] interface {
	SetVisible(item T, visible bool)
	SetEmpty(empty bool)
	RenderControls(controls Controls)
}

// Scroller brings the item container back into view after a page change.
type Scroller interface {
	// ContainerTop returns the container's top edge relative to the
	// viewport, in pixels.
	ContainerTop() (float64, error)
	ScrollBy(dy float64) error
}

type settings struct {
	pageSize        int
	debounce        time.Duration
	scrollThreshold float64
	scrollOffset    float64
	navigator       Navigator
	scheduler       Scheduler
	scroller        Scroller
	logger          logging.Logger
}

// Option configures a Paginator.
type Option func(*settings)

// WithPageSize sets the number of items per page. Values below 1 keep the
// default.
func WithPageSize(size int) Option {
	return func(s *settings) {
		if size >= 1 {
			s.pageSize = size
		}
	}
}

// WithDebounce sets the quiet period SetQuery waits for.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithNavigator sets the address adapter. Without one the paginator keeps
// its page in a private History.
func WithNavigator(nav Navigator) Option {
	return func(s *settings) { s.navigator = nav }
}

// WithScheduler sets the timer source for debouncing.
func WithScheduler(scheduler Scheduler) Option {
	return func(s *settings) { s.scheduler = scheduler }
}

// WithScroller enables scrolling the container into view on page changes.
func WithScroller(scroller Scroller) Option {
	return func(s *settings) { s.scroller = scroller }
}

// WithScrollThreshold sets how far offscreen, in pixels, the container top
// must be before scrolling, and the margin left above it afterwards.
func WithScrollThreshold(threshold, offset float64) Option {
	return func(s *settings) {
		s.scrollThreshold = threshold
		s.scrollOffset = offset
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// State is a point-in-time copy of the paginator's derived state.
type State[T any] struct {
	Query    string
	Current  int
	Total    int
	Matched  int
	Visible  []T
	Controls Controls
}

// Paginator filters a fixed item set by a text query and shows one page of
// the result at a time.
type Paginator[T any] struct {
	mu sync.Mutex

	items    []Item[T]
	filtered []Item[T]
	query    string
	current  int

	pageSize        int
	debounce        time.Duration
	scrollThreshold float64
	scrollOffset    float64

	view      View[T]
	navigator Navigator
	scheduler Scheduler
	scroller  Scroller
	logger    logging.Logger

	pending     Timer
	generation  uint64
	unsubscribe func()
	closed      bool
}

// New builds the search text for every value, shows the page named by the
// navigator (clamped) and starts listening for navigation.
func New[T any](values []T, extract Extractor[T], view View[T], opts ...Option) *Paginator[T] {
	s := settings{
		pageSize:        DefaultPageSize,
		debounce:        DefaultDebounce,
		scrollThreshold: DefaultScrollThreshold,
		scrollOffset:    DefaultScrollOffset,
		scheduler:       RealScheduler{},
		logger:          logging.Discard(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.navigator == nil {
		s.navigator = NewHistory("")
	}
	if view == nil {
		view = nopView[T]{}
	}

	items := make([]Item[T], len(values))
	for i, v := range values {
		var fields Fields
		if extract != nil {
			fields = extract(v)
		}
		items[i] = NewItem(v, fields, i)
	}

	p := &Paginator[T]{
		items:           items,
		filtered:        items,
		pageSize:        s.pageSize,
		debounce:        s.debounce,
		scrollThreshold: s.scrollThreshold,
		scrollOffset:    s.scrollOffset,
		view:            view,
		navigator:       s.navigator,
		scheduler:       s.scheduler,
		scroller:        s.scroller,
		logger:          s.logger.WithComponent("paginator"),
	}

	p.mu.Lock()
	p.goToPageLocked(p.requestedPage())
	p.mu.Unlock()

	unsubscribe := p.navigator.Subscribe(p.OnExternalNavigation)
	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
	return p
}

// SetQuery schedules a search for raw after the debounce delay. Each call
// replaces the previously scheduled search.
func (p *Paginator[T]) SetQuery(raw string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.generation++
	gen := p.generation
	prev := p.pending
	p.pending = nil
	p.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	timer := p.scheduler.AfterFunc(p.debounce, func() { p.fire(gen, raw) })

	p.mu.Lock()
	if p.generation == gen && !p.closed {
		p.pending = timer
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	timer.Stop()
}

// ApplyQuery cancels any scheduled search and filters by raw right away.
func (p *Paginator[T]) ApplyQuery(raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.cancelPendingLocked()
	p.applyQueryLocked(raw)
}

// ClearSearch restores the full item set immediately.
func (p *Paginator[T]) ClearSearch() {
	p.ApplyQuery("")
}

// GoToPage shows page, clamped into range.
func (p *Paginator[T]) GoToPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.goToPageLocked(page)
}

// OnExternalNavigation re-reads the page from the navigator. It is
// subscribed automatically; hosts call it only when they deliver location
// changes themselves.
func (p *Paginator[T]) OnExternalNavigation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.goToPageLocked(p.requestedPage())
}

// Close stops listening for navigation and drops any scheduled search.
func (p *Paginator[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancelPendingLocked()
	unsubscribe := p.unsubscribe
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// CurrentPage returns the page being shown.
func (p *Paginator[T]) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// TotalPages returns the page count of the filtered view.
func (p *Paginator[T]) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TotalPages(len(p.filtered), p.pageSize)
}

// PageSize returns the number of items per page.
func (p *Paginator[T]) PageSize() int {
	return p.pageSize
}

// Len returns the size of the full item set.
func (p *Paginator[T]) Len() int {
	return len(p.items)
}

// Query returns the normalized query last applied.
func (p *Paginator[T]) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// Filtered returns the values matching the current query, in order.
func (p *Paginator[T]) Filtered() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return valuesOf(p.filtered)
}

// Visible returns the values on the current page.
func (p *Paginator[T]) Visible() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visibleLocked()
}

// Snapshot returns a consistent copy of the current state.
func (p *Paginator[T]) Snapshot() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := TotalPages(len(p.filtered), p.pageSize)
	return State[T]{
		Query:    p.query,
		Current:  p.current,
		Total:    total,
		Matched:  len(p.filtered),
		Visible:  p.visibleLocked(),
		Controls: p.controlsLocked(total),
	}
}

func (p *Paginator[T]) fire(gen uint64, raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return
	}
	p.pending = nil
	p.applyQueryLocked(raw)
}

func (p *Paginator[T]) cancelPendingLocked() {
	p.generation++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

func (p *Paginator[T]) applyQueryLocked(raw string) {
	p.query = NormalizeQuery(raw)
	p.filtered = Filter(p.items, p.query)
	p.logger.Debug(context.Background(), "Query applied",
		"query", p.query,
		"matched", len(p.filtered),
	)
	p.goToPageLocked(1)
}

func (p *Paginator[T]) requestedPage() int {
	page := p.navigator.Read()
	if page < 1 {
		return 1
	}
	return page
}

func (p *Paginator[T]) goToPageLocked(page int) {
	total := TotalPages(len(p.filtered), p.pageSize)
	page = Clamp(page, total)
	p.current = page

	start, end := Bounds(page, len(p.filtered), p.pageSize)
	shown := make([]bool, len(p.items))
	for _, it := range p.filtered[start:end] {
		shown[it.index] = true
	}
	for i, it := range p.items {
		p.view.SetVisible(it.Value, shown[i])
	}

	p.view.SetEmpty(len(p.filtered) == 0)
	p.view.RenderControls(p.controlsLocked(total))

	if p.navigator.Read() != page {
		p.navigator.Write(page)
	}

	p.scrollToContainer()
}

func (p *Paginator[T]) controlsLocked(total int) Controls {
	if len(p.filtered) == 0 {
		return Controls{Current: p.current, Total: total}
	}
	return BuildControls(p.current, total)
}

func (p *Paginator[T]) visibleLocked() []T {
	start, end := Bounds(p.current, len(p.filtered), p.pageSize)
	return valuesOf(p.filtered[start:end])
}

// scrollToContainer is best effort: failures are logged and dropped.
func (p *Paginator[T]) scrollToContainer() {
	if p.scroller == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug(context.Background(), "Scroll panicked", "panic", fmt.Sprint(r))
		}
	}()

	top, err := p.scroller.ContainerTop()
	if err != nil {
		p.logger.Debug(context.Background(), "Container position unavailable", "error", err.Error())
		return
	}
	if math.Abs(top) <= p.scrollThreshold {
		return
	}
	if err := p.scroller.ScrollBy(top - p.scrollOffset); err != nil {
		p.logger.Debug(context.Background(), "Scroll failed", "error", err.Error())
	}
}

func valuesOf[T any](items []Item[T]) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}

type nopView[T any] struct{}

func (nopView[T]) SetVisible(T, bool)      {}
func (nopView[T]) SetEmpty(bool)           {}
func (nopView[T]) RenderControls(Controls) {}
