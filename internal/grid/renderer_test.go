package grid

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContainer struct {
	height        int
	scrollOffset  int
	contentHeight int
}

func (c *fakeContainer) Height() int            { return c.height }
func (c *fakeContainer) ScrollOffset() int      { return c.scrollOffset }
func (c *fakeContainer) SetContentHeight(h int) { c.contentHeight = h }

type fakeTarget struct {
	attached    map[Surface]bool
	appendCalls int
	translation int
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{attached: make(map[Surface]bool)}
}

func (t *fakeTarget) AppendSurfaces(batch []Surface) {
	t.appendCalls++
	for _, s := range batch {
		t.attached[s] = true
	}
}

func (t *fakeTarget) RemoveSurface(s Surface) { delete(t.attached, s) }
func (t *fakeTarget) SetTranslation(y int)    { t.translation = y }

// manualSched queues deferred work so tests control when batch
// continuations run.
type manualSched struct {
	queue []func()
}

func (s *manualSched) Defer(fn func()) { s.queue = append(s.queue, fn) }

func (s *manualSched) Pump() {
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
	}
}

func makeRecords(n int, prefix string) []Record {
	out := make([]Record, n)
	for i := range n {
		out[i] = Record{
			{Name: "id", Value: int64(i)},
			{Name: "name", Value: fmt.Sprintf("%s-%d", prefix, i)},
		}
	}
	return out
}

// testConfig renders synchronously: no throttling, batches large enough
// for a single chunk unless a test overrides them.
func testConfig() Config {
	return Config{
		BufferRows:      10,
		RowHeight:       40,
		MaxPoolSize:     100,
		RenderBatchSize: 1000,
	}
}

func newTestRenderer(t *testing.T, cfg Config, opts ...Option) (*Renderer, *fakeContainer, *fakeTarget) {
	t.Helper()
	container := &fakeContainer{height: 400}
	target := newFakeTarget()
	opts = append([]Option{WithConfig(cfg)}, opts...)
	r := New(opts...)
	require.NoError(t, r.Attach(container, target))
	return r, container, target
}

func activeIndices(r *Renderer) []int {
	keys := r.active.Keys()
	sort.Ints(keys)
	return keys
}

func TestAttachPreconditions(t *testing.T) {
	t.Parallel()

	r := New()
	assert.Error(t, r.Attach(nil, newFakeTarget()))
	assert.Error(t, r.Attach(&fakeContainer{height: 100}, nil))

	// Operations before a successful attach are no-ops.
	r.Load(makeRecords(10, "a"), nil)
	assert.Equal(t, int64(0), r.Metrics().TotalRenders)
}

func TestLoadInitialRender(t *testing.T) {
	t.Parallel()

	// 10,000 records, rowHeight=40, containerHeight=400, bufferRows=10:
	// ceil(400/40)+10 = 20 visible rows, spacer 400,000.
	var sample PerfSample
	r, container, target := newTestRenderer(t, testConfig(),
		WithObserver(func(s PerfSample) { sample = s }))

	r.Load(makeRecords(10000, "r"), nil)

	assert.Equal(t, 400000, container.contentHeight)
	start, end := r.Window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 20, end)
	assert.Equal(t, 20, r.active.Len())
	assert.Len(t, target.attached, 20)
	assert.Equal(t, 0, target.translation)

	assert.Equal(t, "load", sample.Operation)
	assert.Equal(t, 10000, sample.RecordCount)

	m := r.Metrics()
	assert.Equal(t, int64(1), m.TotalRenders)
	assert.Equal(t, 10000, m.DatasetSize)
	assert.Equal(t, 10000, m.FilteredSize)
}

func TestScrollWindowing(t *testing.T) {
	t.Parallel()

	r, container, target := newTestRenderer(t, testConfig())
	r.Load(makeRecords(10000, "r"), nil)

	container.scrollOffset = 4000 // row 100
	r.Scroll()

	start, end := r.Window()
	assert.Equal(t, 100, start)
	assert.Equal(t, 120, end)
	assert.Equal(t, 4000, target.translation)

	want := make([]int, 0, 20)
	for i := 100; i < 120; i++ {
		want = append(want, i)
	}
	assert.Equal(t, want, activeIndices(r), "active rows must be exactly [start, end)")

	// Attached surface count stays bounded at every offset.
	for _, offset := range []int{0, 80, 1200, 399960, 200000} {
		container.scrollOffset = offset
		r.Scroll()
		assert.LessOrEqual(t, len(target.attached), 20, "offset %d", offset)
		assert.Equal(t, r.active.Len(), len(target.attached))
	}
}

func TestPoolActiveDisjoint(t *testing.T) {
	t.Parallel()

	r, container, target := newTestRenderer(t, testConfig())
	r.Load(makeRecords(1000, "r"), nil)

	for _, offset := range []int{0, 4000, 800, 20000, 0} {
		container.scrollOffset = offset
		r.Scroll()

		r.pool.mu.Lock()
		for _, pooled := range r.pool.surfaces {
			assert.False(t, target.attached[pooled], "pooled surface is still attached")
		}
		r.pool.mu.Unlock()
	}
}

func TestSurfaceReuse(t *testing.T) {
	t.Parallel()

	r, container, _ := newTestRenderer(t, testConfig())
	r.Load(makeRecords(1000, "r"), nil)
	require.Equal(t, int64(0), r.Metrics().SurfaceReuses)

	// Scrolling a full window away evicts 20 surfaces into the pool and
	// reuses them for the 20 newly visible rows.
	container.scrollOffset = 20000
	r.Scroll()
	assert.Equal(t, int64(20), r.Metrics().SurfaceReuses)
}

func TestRenderCacheReuse(t *testing.T) {
	t.Parallel()

	populated := map[int]int{}
	r, container, _ := newTestRenderer(t, testConfig(),
		WithPopulateFunc(func(s Surface, rec Record, index int) {
			populated[index]++
			s.SetContent(defaultRowContent(rec))
		}))

	r.Load(makeRecords(1000, "r"), nil)
	assert.Equal(t, 1, populated[0])

	// Scroll away and back: rows 0..19 render again, from cache.
	container.scrollOffset = 20000
	r.Scroll()
	container.scrollOffset = 0
	r.Scroll()

	assert.Equal(t, 1, populated[0], "cached row must not re-invoke the population callback")
	m := r.Metrics()
	assert.Equal(t, int64(20), m.CacheHits)
	assert.Equal(t, int64(40), m.CacheMisses)
}

func TestBatchedRenderYields(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RenderBatchSize = 5
	sched := &manualSched{}
	r, _, target := newTestRenderer(t, cfg, WithScheduler(sched))

	r.Load(makeRecords(1000, "r"), nil)

	// Only the first chunk is flushed synchronously.
	assert.Equal(t, 5, r.active.Len())
	assert.Len(t, sched.queue, 1)

	sched.Pump()
	assert.Equal(t, 20, r.active.Len())
	assert.Equal(t, 4, target.appendCalls, "20 rows in chunks of 5")

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, activeIndices(r))
}

func TestStaleBatchContinuationIsDropped(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RenderBatchSize = 5
	sched := &manualSched{}
	r, _, target := newTestRenderer(t, cfg, WithScheduler(sched))

	r.Load(makeRecords(1000, "old"), nil)
	require.Len(t, sched.queue, 1)

	// A new load supersedes the pending continuation.
	r.Load(makeRecords(1000, "new"), nil)
	sched.Pump()

	assert.Equal(t, 20, r.active.Len())
	for s := range target.attached {
		assert.Contains(t, s.Content(), "new-", "stale batch must not render old data")
	}
}

func TestUpdateFilters(t *testing.T) {
	t.Parallel()

	var samples []PerfSample
	r, container, _ := newTestRenderer(t, testConfig(),
		WithObserver(func(s PerfSample) { samples = append(samples, s) }))

	data := []Record{
		{{Name: "a", Value: "Foo"}},
		{{Name: "a", Value: "bar"}},
	}
	r.Load(data, nil)
	assert.Equal(t, 2, r.FilteredLen())

	r.UpdateFilters(FilterSet{"a": "foo"})
	assert.Equal(t, 1, r.FilteredLen())
	rec, ok := r.Row(0)
	require.True(t, ok)
	assert.Equal(t, "Foo", rec[0].Value)
	assert.Equal(t, 40, container.contentHeight, "spacer tracks the filtered length")
	assert.Equal(t, 1, r.active.Len())

	require.Len(t, samples, 2)
	assert.Equal(t, "filter", samples[1].Operation)
	assert.Equal(t, 1, samples[1].RecordCount)

	// Clearing filters restores the full view.
	r.UpdateFilters(nil)
	assert.Equal(t, 2, r.FilteredLen())
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("total renders increments once per operation", func(t *testing.T) {
		t.Parallel()
		r, container, _ := newTestRenderer(t, testConfig())

		r.Load(makeRecords(100, "r"), nil)
		assert.Equal(t, int64(1), r.Metrics().TotalRenders)

		r.UpdateFilters(FilterSet{"name": "r-1"})
		assert.Equal(t, int64(2), r.Metrics().TotalRenders)

		container.scrollOffset = 80
		r.Scroll()
		assert.Equal(t, int64(3), r.Metrics().TotalRenders)

		r.Resize()
		assert.Equal(t, int64(4), r.Metrics().TotalRenders)
	})

	t.Run("average render time is the mean of samples", func(t *testing.T) {
		t.Parallel()
		var samples []float64
		r, _, _ := newTestRenderer(t, testConfig(),
			WithObserver(func(s PerfSample) { samples = append(samples, s.RenderTime) }))

		r.Load(makeRecords(500, "a"), nil)
		r.UpdateFilters(FilterSet{"name": "a-2"})
		r.UpdateFilters(nil)

		require.Len(t, samples, 3)
		var sum float64
		for _, s := range samples {
			sum += s
		}
		assert.InDelta(t, sum/3, r.Metrics().AverageRenderTime, 1e-6)
	})
}

func TestResizeRecomputesViewport(t *testing.T) {
	t.Parallel()

	r, container, target := newTestRenderer(t, testConfig())
	r.Load(makeRecords(1000, "r"), nil)
	require.Equal(t, 20, r.active.Len())

	container.height = 800 // ceil(800/40)+10 = 30 rows
	r.Resize()
	assert.Equal(t, 30, r.active.Len())
	assert.Len(t, target.attached, 30)

	container.height = 80 // ceil(80/40)+10 = 12 rows
	r.Resize()
	assert.Equal(t, 12, r.active.Len())
	assert.Len(t, target.attached, 12)
}

func TestPopulateFailureIsIsolated(t *testing.T) {
	t.Parallel()

	r, _, target := newTestRenderer(t, testConfig(),
		WithPopulateFunc(func(s Surface, rec Record, index int) {
			if index == 3 {
				panic("bad record")
			}
			s.SetContent(defaultRowContent(rec))
		}))

	r.Load(makeRecords(10, "r"), nil)

	assert.Equal(t, 10, r.active.Len(), "one bad row must not blank the grid")
	bad, ok := r.active.Get(3)
	require.True(t, ok)
	assert.Equal(t, errorRowContent, bad.Content())
	assert.Len(t, target.attached, 10)

	// Failed rows are not cached, so they can recover on a later pass.
	assert.Equal(t, 9, r.Metrics().CacheSize)
}

func TestScrollPastEnd(t *testing.T) {
	t.Parallel()

	r, container, _ := newTestRenderer(t, testConfig())
	r.Load(makeRecords(10, "r"), nil)

	container.scrollOffset = 1 << 20
	r.Scroll()
	start, end := r.Window()
	assert.Equal(t, 10, start)
	assert.Equal(t, 10, end)
	assert.Equal(t, 0, r.active.Len())
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	r, _, target := newTestRenderer(t, testConfig())
	r.Load(makeRecords(100, "r"), nil)
	require.NotZero(t, r.active.Len())

	for range 2 {
		r.Destroy()
		m := r.Metrics()
		assert.Equal(t, 0, m.ActiveRows)
		assert.Equal(t, 0, m.PoolSize)
		assert.Equal(t, 0, m.CacheSize)
		assert.Empty(t, target.attached)
	}

	// Absorbing: operations after destroy are no-ops.
	r.Load(makeRecords(10, "r"), nil)
	assert.Equal(t, 0, r.active.Len())
	r.Scroll()
	r.Resize()
	assert.Error(t, r.Attach(&fakeContainer{height: 100}, newFakeTarget()))
}

func TestScrollThrottling(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ScrollThrottle = 150 * time.Millisecond
	r, container, _ := newTestRenderer(t, cfg)
	r.Load(makeRecords(1000, "r"), nil)
	base := r.Metrics().TotalRenders

	// A burst of scroll events within the throttle window collapses to
	// at most two render passes: one leading, one trailing.
	for i := range 10 {
		container.scrollOffset = i * 40
		r.Scroll()
	}
	assert.Equal(t, base+1, r.Metrics().TotalRenders)

	assert.Eventually(t, func() bool {
		return r.Metrics().TotalRenders == base+2
	}, time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, base+2, r.Metrics().TotalRenders)
	// The trailing pass rendered the final scroll position.
	start, _ := r.Window()
	assert.Equal(t, 9, start)
}

func TestRowOffsetsWithinWindow(t *testing.T) {
	t.Parallel()

	r, container, _ := newTestRenderer(t, testConfig())
	r.Load(makeRecords(1000, "r"), nil)

	container.scrollOffset = 4000
	r.Scroll()

	for idx, s := range r.active.Seq2() {
		ms := s.(*memorySurface)
		assert.Equal(t, (idx-100)*40, ms.offset)
	}
}
