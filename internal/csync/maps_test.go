package csync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		m := NewMap[string, int]()
		m.Set("a", 1)
		m.Set("b", 2)

		v, ok := m.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, m.Len())
	})

	t.Run("del and clear", func(t *testing.T) {
		t.Parallel()
		m := NewMapFrom(map[string]int{"a": 1, "b": 2})
		m.Del("a")
		_, ok := m.Get("a")
		assert.False(t, ok)

		m.Clear()
		assert.Equal(t, 0, m.Len())
	})

	t.Run("seq2 snapshot allows mutation during iteration", func(t *testing.T) {
		t.Parallel()
		m := NewMap[int, string]()
		for i := range 10 {
			m.Set(i, "x")
		}
		for k := range m.Seq2() {
			m.Del(k)
		}
		assert.Equal(t, 0, m.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()
		m := NewMap[int, int]()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Set(i, i)
				m.Get(i)
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, m.Len())
	})
}
