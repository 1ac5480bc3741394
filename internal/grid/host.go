package grid

// Surface is a reusable rendering unit for a single row. A surface is
// either attached to the Target or sitting in the pool, never both.
type Surface interface {
	// SetContent replaces the surface's rendered content.
	SetContent(content string)
	// Content returns the current rendered content.
	Content() string
	// SetOffset positions the surface vertically relative to the start
	// of the rendered window.
	SetOffset(y int)
}

// Container is the scrollable region the renderer is attached to.
type Container interface {
	// Height returns the visible height of the container.
	Height() int
	// ScrollOffset returns the current scroll position.
	ScrollOffset() int
	// SetContentHeight sizes the spacer to the full unvirtualized
	// content height so native scrolling behaves as if every row were
	// rendered.
	SetContentHeight(h int)
}

// Target is the element rendered rows attach to.
type Target interface {
	// AppendSurfaces attaches a prepared batch in one mutation.
	AppendSurfaces(batch []Surface)
	// RemoveSurface detaches a single surface.
	RemoveSurface(s Surface)
	// SetTranslation shifts the rendered window so rows line up with
	// their true scroll position.
	SetTranslation(y int)
}

// Scheduler defers work to the host's next event-loop turn. Batched
// render passes use it to yield between chunks.
type Scheduler interface {
	Defer(fn func())
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(fn func())

// Defer implements Scheduler.
func (f SchedulerFunc) Defer(fn func()) { f(fn) }

// memorySurface is the default surface implementation, used when the
// host does not supply a factory.
type memorySurface struct {
	content string
	offset  int
}

func (s *memorySurface) SetContent(content string) { s.content = content }
func (s *memorySurface) Content() string           { return s.content }
func (s *memorySurface) SetOffset(y int)           { s.offset = y }
