package grid

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetops/ultragrid/internal/cache"
	"github.com/fleetops/ultragrid/internal/csync"
)

const errorRowContent = "⚠ row failed to render"

// Config tunes the renderer. Zero sizes fall back to defaults; a zero
// throttle interval disables throttling for that event.
type Config struct {
	// VisibleRows is informational; the actual visible count is derived
	// from the container height.
	VisibleRows int
	// BufferRows is rendered above/below the viewport to mask scroll
	// latency.
	BufferRows int
	// RowHeight is the fixed height per row, required for positioning
	// math. Terminal hosts use 1.
	RowHeight int
	// MaxPoolSize caps the number of recycled surfaces retained.
	MaxPoolSize int
	// CacheSize caps rendered-content cache entries. Defaults to four
	// times MaxPoolSize.
	CacheSize int
	// ScrollThrottle is the minimum interval between scroll-triggered
	// render passes.
	ScrollThrottle time.Duration
	// ResizeThrottle rate-limits resize handling; resizes are rarer and
	// less latency-sensitive than scrolls.
	ResizeThrottle time.Duration
	// RenderBatchSize is the maximum number of rows built per
	// synchronous chunk before yielding to the scheduler.
	RenderBatchSize int
}

// DefaultConfig returns the standard tuning: a 60fps scroll budget and a
// pool sized for typical viewports.
func DefaultConfig() Config {
	return Config{
		VisibleRows:     50,
		BufferRows:      10,
		RowHeight:       40,
		MaxPoolSize:     100,
		ScrollThrottle:  16 * time.Millisecond,
		ResizeThrottle:  100 * time.Millisecond,
		RenderBatchSize: 25,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.VisibleRows <= 0 {
		c.VisibleRows = d.VisibleRows
	}
	if c.BufferRows < 0 {
		c.BufferRows = d.BufferRows
	}
	if c.RowHeight <= 0 {
		c.RowHeight = d.RowHeight
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = d.MaxPoolSize
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 4 * c.MaxPoolSize
	}
	if c.RenderBatchSize <= 0 {
		c.RenderBatchSize = d.RenderBatchSize
	}
}

// rowKey identifies a rendered row by position and content.
type rowKey struct {
	index  int
	digest uint64
}

// Renderer is a virtualized table renderer. The zero value is not
// usable; construct with New and bind with Attach.
//
// Render passes run under an internal mutex: scroll and resize trailing
// executions fire from timer goroutines, so unlike a single-threaded
// event loop the shared structures need real mutual exclusion.
type Renderer struct {
	mu  sync.Mutex
	cfg Config

	container  Container
	target     Target
	newSurface func() Surface
	populate   PopulateFunc
	observer   ObserverFunc
	sched      Scheduler

	data     []Record
	filters  FilterSet
	filtered []Record

	active *csync.Map[int, Surface]
	pool   *SurfacePool
	cache  *cache.Cache[rowKey, string]

	startIndex      int
	endIndex        int
	maxVisible      int
	containerHeight int

	// generation tags deferred batch continuations; a continuation
	// no-ops once the generation has advanced.
	generation int64

	attached  bool
	destroyed bool

	scrollTh *throttle
	resizeTh *throttle

	totalRenders  int64
	avgRenderMs   float64
	cacheHits     int64
	cacheMisses   int64
	surfaceReuses int64
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(r *Renderer) { r.cfg = cfg }
}

// WithPopulateFunc sets the row-population callback.
func WithPopulateFunc(fn PopulateFunc) Option {
	return func(r *Renderer) { r.populate = fn }
}

// WithObserver sets the performance observer, invoked after load and
// filter operations.
func WithObserver(fn ObserverFunc) Option {
	return func(r *Renderer) { r.observer = fn }
}

// WithScheduler sets the deferred-execution primitive used to yield
// between render batches.
func WithScheduler(s Scheduler) Option {
	return func(r *Renderer) { r.sched = s }
}

// WithSurfaceFactory sets the allocator used when the pool is empty.
func WithSurfaceFactory(fn func() Surface) Option {
	return func(r *Renderer) { r.newSurface = fn }
}

// New constructs a renderer. It must be attached before loading data.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		cfg:    DefaultConfig(),
		active: csync.NewMap[int, Surface](),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cfg.applyDefaults()
	if r.newSurface == nil {
		r.newSurface = func() Surface { return &memorySurface{} }
	}
	if r.sched == nil {
		// Continuations re-enter the render mutex, so the fallback
		// scheduler must not run them inline.
		r.sched = SchedulerFunc(func(fn func()) { go fn() })
	}
	r.pool = NewSurfacePool(r.cfg.MaxPoolSize)
	r.cache = cache.New[rowKey, string](r.cfg.CacheSize)
	r.scrollTh = newThrottle(r.cfg.ScrollThrottle, r.renderScroll)
	r.resizeTh = newThrottle(r.cfg.ResizeThrottle, r.renderResize)
	return r
}

// Attach binds the renderer to a scrollable container and a row target.
// A nil container or target is a precondition violation; the renderer
// stays unattached and the caller must not proceed.
func (r *Renderer) Attach(container Container, target Target) error {
	if container == nil {
		return errors.New("grid: attach: container not found")
	}
	if target == nil {
		return errors.New("grid: attach: render target not found")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return errors.New("grid: attach: renderer destroyed")
	}
	r.container = container
	r.target = target
	r.containerHeight = container.Height()
	r.attached = true
	return nil
}

// Load replaces the dataset, applies filters, discards active rows, and
// performs an initial render pass. After it returns (and any deferred
// batches run), exactly the rows intersecting the current scroll
// position are attached.
func (r *Renderer) Load(data []Record, filters FilterSet) {
	r.mu.Lock()
	if !r.usableLocked() {
		r.mu.Unlock()
		return
	}
	r.generation++
	r.data = data
	r.filters = filters
	r.filtered = filters.Apply(data)
	r.recomputeViewportLocked()
	r.discardActiveLocked()
	elapsed := r.renderVisibleLocked()
	sample := r.sampleLocked("load", elapsed)
	observer := r.observer
	r.mu.Unlock()

	slog.Debug("grid: dataset loaded",
		"records", sample.RecordCount,
		"render_ms", sample.RenderTime)
	if observer != nil {
		observer(sample)
	}
}

// UpdateFilters re-derives the filtered view from the existing dataset
// and re-renders, with the same contract as Load.
func (r *Renderer) UpdateFilters(filters FilterSet) {
	r.mu.Lock()
	if !r.usableLocked() {
		r.mu.Unlock()
		return
	}
	r.generation++
	r.filters = filters
	r.filtered = filters.Apply(r.data)
	r.recomputeViewportLocked()
	r.discardActiveLocked()
	elapsed := r.renderVisibleLocked()
	sample := r.sampleLocked("filter", elapsed)
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer(sample)
	}
}

// Scroll notifies the renderer of a host scroll event. Render work is
// throttled to the configured interval regardless of event frequency.
func (r *Renderer) Scroll() {
	r.scrollTh.Call()
}

// Resize notifies the renderer that the container changed size.
func (r *Renderer) Resize() {
	r.resizeTh.Call()
}

// Window returns the currently rendered index range [start, end) within
// the filtered dataset.
func (r *Renderer) Window() (start, end int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startIndex, r.endIndex
}

// FilteredLen returns the size of the current filtered view.
func (r *Renderer) FilteredLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filtered)
}

// Row returns the filtered record at index.
func (r *Renderer) Row(index int) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.filtered) {
		return nil, false
	}
	return r.filtered[index], true
}

// Metrics returns a snapshot of the renderer counters.
func (r *Renderer) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Metrics{
		TotalRenders:      r.totalRenders,
		AverageRenderTime: r.avgRenderMs,
		CacheHits:         r.cacheHits,
		CacheMisses:       r.cacheMisses,
		SurfaceReuses:     r.surfaceReuses,
		PoolSize:          r.pool.Len(),
		ActiveRows:        r.active.Len(),
		CacheSize:         r.cache.Len(),
		DatasetSize:       len(r.data),
		FilteredSize:      len(r.filtered),
	}
}

// Destroy detaches and discards all rows, empties the pool and cache,
// and cancels pending timers. It is idempotent, and every other
// operation becomes a no-op afterwards.
func (r *Renderer) Destroy() {
	r.scrollTh.Stop()
	r.resizeTh.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.generation++
	if r.attached {
		for _, idx := range r.active.Keys() {
			if s, ok := r.active.Get(idx); ok {
				r.target.RemoveSurface(s)
			}
		}
	}
	r.active.Clear()
	r.pool.Drain()
	r.cache.Clear()
	r.data = nil
	r.filtered = nil
	r.startIndex, r.endIndex = 0, 0
}

func (r *Renderer) usableLocked() bool {
	return r.attached && !r.destroyed
}

func (r *Renderer) renderScroll() {
	r.mu.Lock()
	if !r.usableLocked() {
		r.mu.Unlock()
		return
	}
	r.generation++
	r.renderVisibleLocked()
	r.mu.Unlock()
}

func (r *Renderer) renderResize() {
	r.mu.Lock()
	if !r.usableLocked() {
		r.mu.Unlock()
		return
	}
	r.generation++
	r.recomputeViewportLocked()
	r.renderVisibleLocked()
	r.mu.Unlock()
}

// recomputeViewportLocked refreshes the container-derived metrics: max
// visible row count and the spacer height backing native scrolling.
func (r *Renderer) recomputeViewportLocked() {
	h := r.container.Height()
	r.containerHeight = h
	visible := (h + r.cfg.RowHeight - 1) / r.cfg.RowHeight // ceil
	r.maxVisible = visible + r.cfg.BufferRows
	r.container.SetContentHeight(len(r.filtered) * r.cfg.RowHeight)
}

// discardActiveLocked detaches every active row, returning surfaces to
// the pool while it has capacity.
func (r *Renderer) discardActiveLocked() {
	for _, idx := range r.active.Keys() {
		s, ok := r.active.Get(idx)
		if !ok {
			continue
		}
		r.target.RemoveSurface(s)
		r.pool.Put(s)
		r.active.Del(idx)
	}
}

// renderVisibleLocked is the core algorithm: compute the visible index
// range, evict rows outside it, render the newly visible ones in
// batches, and reposition the window. Returns the elapsed milliseconds.
func (r *Renderer) renderVisibleLocked() float64 {
	started := time.Now()
	gen := r.generation

	offset := r.container.ScrollOffset()
	if offset < 0 {
		offset = 0
	}
	start := offset / r.cfg.RowHeight
	if start > len(r.filtered) {
		start = len(r.filtered)
	}
	end := min(start+r.maxVisible, len(r.filtered))
	r.startIndex, r.endIndex = start, end

	// Evict rows outside [start, end). This bounds attached surfaces to
	// the viewport size regardless of dataset size.
	for _, idx := range r.active.Keys() {
		if idx >= start && idx < end {
			continue
		}
		if s, ok := r.active.Get(idx); ok {
			r.target.RemoveSurface(s)
			r.pool.Put(s)
		}
		r.active.Del(idx)
	}

	// Align the rendered window with the true scroll position, then
	// reposition retained rows inside it.
	r.target.SetTranslation(start * r.cfg.RowHeight)
	for idx, s := range r.active.Seq2() {
		s.SetOffset((idx - start) * r.cfg.RowHeight)
	}

	r.renderBatchLocked(start, end, gen)

	elapsed := float64(time.Since(started)) / float64(time.Millisecond)
	r.totalRenders++
	r.avgRenderMs += (elapsed - r.avgRenderMs) / float64(r.totalRenders)
	return elapsed
}

// renderBatchLocked prepares up to RenderBatchSize missing rows in
// [from, to), flushes them to the target in one mutation, and defers the
// remainder to the scheduler tagged with the current generation.
func (r *Renderer) renderBatchLocked(from, to int, gen int64) {
	batch := make([]Surface, 0, min(r.cfg.RenderBatchSize, max(to-from, 0)))
	for i := from; i < to; i++ {
		if _, ok := r.active.Get(i); ok {
			continue
		}
		s := r.prepareRowLocked(i)
		r.active.Set(i, s)
		batch = append(batch, s)
		if len(batch) >= r.cfg.RenderBatchSize && i+1 < to {
			r.target.AppendSurfaces(batch)
			next := i + 1
			r.sched.Defer(func() { r.continueBatch(next, to, gen) })
			return
		}
	}
	if len(batch) > 0 {
		r.target.AppendSurfaces(batch)
	}
}

// continueBatch resumes a deferred render batch, unless the generation
// advanced (new load, filter change, scroll, or destroy) in the
// meantime.
func (r *Renderer) continueBatch(from, to int, gen int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed || gen != r.generation {
		return
	}
	r.renderBatchLocked(from, to, gen)
}

// prepareRowLocked obtains a surface for row i and fills it, from the
// render cache when the (index, digest) pair has been seen before.
func (r *Renderer) prepareRowLocked(i int) Surface {
	rec := r.filtered[i]
	s, reused := r.pool.Get()
	if reused {
		r.surfaceReuses++
	} else {
		s = r.newSurface()
	}

	key := rowKey{index: i, digest: rec.Digest()}
	if content, ok := r.cache.Get(key); ok {
		r.cacheHits++
		s.SetContent(content)
	} else {
		r.cacheMisses++
		if r.populateSurface(s, rec, i) {
			r.cache.Set(key, s.Content())
		}
	}
	s.SetOffset((i - r.startIndex) * r.cfg.RowHeight)
	return s
}

// populateSurface fills s with the record's content. A panicking
// population callback is that row's failure only: the surface gets a
// placeholder and the rest of the batch proceeds. Failed rows are not
// cached.
func (r *Renderer) populateSurface(s Surface, rec Record, index int) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("grid: row population failed", "row", index, "panic", p)
			s.SetContent(errorRowContent)
			ok = false
		}
	}()
	if r.populate != nil {
		r.populate(s, rec, index)
	} else {
		s.SetContent(defaultRowContent(rec))
	}
	return true
}

func (r *Renderer) sampleLocked(op string, elapsed float64) PerfSample {
	var fps float64
	if elapsed > 0 {
		fps = 1000 / elapsed
	}
	return PerfSample{
		Operation:   op,
		RecordCount: len(r.filtered),
		RenderTime:  elapsed,
		FPS:         fps,
	}
}
