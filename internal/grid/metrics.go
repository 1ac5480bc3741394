package grid

// Metrics is a snapshot of renderer counters, used to diagnose whether
// windowing and surface recycling behave as designed.
type Metrics struct {
	// TotalRenders counts completed render passes; one per triggering
	// operation (load, filter change, scroll, resize).
	TotalRenders int64
	// AverageRenderTime is the cumulative average pass duration in
	// milliseconds.
	AverageRenderTime float64
	CacheHits         int64
	CacheMisses       int64
	SurfaceReuses     int64

	PoolSize     int
	ActiveRows   int
	CacheSize    int
	DatasetSize  int
	FilteredSize int
}

// PerfSample is delivered to the performance observer after load and
// filter operations.
type PerfSample struct {
	Operation   string
	RecordCount int
	// RenderTime is the elapsed render pass time in milliseconds.
	RenderTime float64
	// FPS is the frame rate implied by RenderTime.
	FPS float64
}

// ObserverFunc receives performance samples.
type ObserverFunc func(sample PerfSample)

// PopulateFunc fills a surface with a record's fields. When nil, the
// default renderer joins the record's values as cells.
type PopulateFunc func(s Surface, rec Record, index int)
