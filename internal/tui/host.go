// Package tui renders a virtualized grid in the terminal. Each grid
// row occupies one terminal line, so the renderer runs with a row
// height of 1 and surface offsets map directly to line positions.
package tui

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fleetops/ultragrid/internal/csync"
	"github.com/fleetops/ultragrid/internal/grid"
)

// FlushMsg tells the model to run deferred render continuations.
type FlushMsg struct{}

// termSurface is a one-line render surface.
type termSurface struct {
	id string

	mu      sync.Mutex
	content string
	offset  int
}

func newTermSurface() grid.Surface {
	return &termSurface{id: uuid.NewString()}
}

func (s *termSurface) SetContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

func (s *termSurface) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *termSurface) SetOffset(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = px
}

func (s *termSurface) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// termContainer tracks the viewport geometry the renderer reads.
type termContainer struct {
	mu            sync.Mutex
	height        int
	scrollOffset  int
	contentHeight int
}

func (c *termContainer) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *termContainer) SetHeight(h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = h
}

func (c *termContainer) ScrollOffset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollOffset
}

func (c *termContainer) SetScrollOffset(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrollOffset = offset
}

func (c *termContainer) SetContentHeight(h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contentHeight = h
}

func (c *termContainer) ContentHeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contentHeight
}

// termTarget collects the surfaces the renderer keeps attached.
type termTarget struct {
	mu          sync.Mutex
	surfaces    map[string]*termSurface
	translation int
}

func newTermTarget() *termTarget {
	return &termTarget{surfaces: make(map[string]*termSurface)}
}

func (t *termTarget) AppendSurfaces(ss []grid.Surface) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range ss {
		ts := s.(*termSurface)
		t.surfaces[ts.id] = ts
	}
}

func (t *termTarget) RemoveSurface(s grid.Surface) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.surfaces, s.(*termSurface).id)
}

func (t *termTarget) SetTranslation(px int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.translation = px
}

func (t *termTarget) Translation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.translation
}

// Lines lays the attached surfaces out into a slice of height lines,
// indexed by each surface's offset.
func (t *termTarget) Lines(height int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := make([]string, height)
	for _, s := range t.surfaces {
		if off := s.Offset(); off >= 0 && off < height {
			lines[off] = s.Content()
		}
	}
	return lines
}

// teaScheduler queues render continuations until the event loop drains
// them, keeping large renders from blocking input handling.
type teaScheduler struct {
	queue *csync.Slice[func()]

	mu     sync.Mutex
	notify func()
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{queue: csync.NewSlice[func()]()}
}

// SetNotify installs the callback fired when work is queued. The view
// command uses it to post a FlushMsg to the running program.
func (s *teaScheduler) SetNotify(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

func (s *teaScheduler) Defer(fn func()) {
	s.queue.Append(fn)
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Flush runs all queued continuations.
func (s *teaScheduler) Flush() {
	for {
		fn, ok := s.queue.Get(0)
		if !ok {
			return
		}
		s.queue.Delete(0)
		fn()
	}
}
