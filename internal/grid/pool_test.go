package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfacePool(t *testing.T) {
	t.Parallel()

	t.Run("get from empty pool", func(t *testing.T) {
		t.Parallel()
		p := NewSurfacePool(2)
		_, ok := p.Get()
		assert.False(t, ok)
	})

	t.Run("put then get reuses surface", func(t *testing.T) {
		t.Parallel()
		p := NewSurfacePool(2)
		s := &memorySurface{}
		require.True(t, p.Put(s))

		got, ok := p.Get()
		require.True(t, ok)
		assert.Same(t, s, got)
		assert.Equal(t, 0, p.Len())
	})

	t.Run("capacity bound discards overflow", func(t *testing.T) {
		t.Parallel()
		p := NewSurfacePool(2)
		assert.True(t, p.Put(&memorySurface{}))
		assert.True(t, p.Put(&memorySurface{}))
		assert.False(t, p.Put(&memorySurface{}), "surface beyond capacity should be discarded")
		assert.Equal(t, 2, p.Len())
	})

	t.Run("drain empties the pool", func(t *testing.T) {
		t.Parallel()
		p := NewSurfacePool(5)
		p.Put(&memorySurface{})
		p.Put(&memorySurface{})
		p.Drain()
		assert.Equal(t, 0, p.Len())
	})
}
