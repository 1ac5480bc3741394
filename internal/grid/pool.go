package grid

import "sync"

// SurfacePool holds detached surfaces for reuse, capped at maxSize.
// Surfaces offered beyond capacity are discarded.
type SurfacePool struct {
	mu       sync.Mutex
	surfaces []Surface
	maxSize  int
}

// NewSurfacePool returns a pool retaining at most maxSize surfaces.
func NewSurfacePool(maxSize int) *SurfacePool {
	if maxSize < 0 {
		maxSize = 0
	}
	return &SurfacePool{maxSize: maxSize}
}

// Get pops a surface from the pool, if one is available.
func (p *SurfacePool) Get() (Surface, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.surfaces)
	if n == 0 {
		return nil, false
	}
	s := p.surfaces[n-1]
	p.surfaces[n-1] = nil
	p.surfaces = p.surfaces[:n-1]
	return s, true
}

// Put offers a surface back to the pool. It reports whether the surface
// was retained; a full pool discards it.
func (p *SurfacePool) Put(s Surface) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.surfaces) >= p.maxSize {
		return false
	}
	p.surfaces = append(p.surfaces, s)
	return true
}

// Len returns the number of pooled surfaces.
func (p *SurfacePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.surfaces)
}

// Drain discards all pooled surfaces.
func (p *SurfacePool) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surfaces = nil
}
