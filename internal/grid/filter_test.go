package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSetMatch(t *testing.T) {
	t.Parallel()

	t.Run("case-insensitive substring for strings", func(t *testing.T) {
		t.Parallel()
		data := []Record{
			{{Name: "a", Value: "Foo"}},
			{{Name: "a", Value: "bar"}},
		}
		out := FilterSet{"a": "foo"}.Apply(data)
		assert.Len(t, out, 1)
		assert.Equal(t, "Foo", out[0][0].Value)
	})

	t.Run("exact equality for non-strings", func(t *testing.T) {
		t.Parallel()
		data := []Record{
			{{Name: "n", Value: int64(3)}},
			{{Name: "n", Value: int64(30)}},
		}
		out := FilterSet{"n": int64(3)}.Apply(data)
		assert.Len(t, out, 1)
	})

	t.Run("numeric equality crosses types", func(t *testing.T) {
		t.Parallel()
		rec := Record{{Name: "n", Value: float64(3)}}
		assert.True(t, FilterSet{"n": int64(3)}.Match(rec))
	})

	t.Run("empty set passes everything", func(t *testing.T) {
		t.Parallel()
		data := []Record{{{Name: "a", Value: "x"}}, {{Name: "a", Value: "y"}}}
		assert.Len(t, FilterSet{}.Apply(data), 2)
	})

	t.Run("missing field fails", func(t *testing.T) {
		t.Parallel()
		rec := Record{{Name: "a", Value: "x"}}
		assert.False(t, FilterSet{"b": "x"}.Match(rec))
	})

	t.Run("all entries must match", func(t *testing.T) {
		t.Parallel()
		rec := Record{{Name: "a", Value: "hello"}, {Name: "b", Value: int64(1)}}
		assert.True(t, FilterSet{"a": "ell", "b": int64(1)}.Match(rec))
		assert.False(t, FilterSet{"a": "ell", "b": int64(2)}.Match(rec))
	})

	t.Run("bool fields compare exactly", func(t *testing.T) {
		t.Parallel()
		rec := Record{{Name: "ok", Value: true}}
		assert.True(t, FilterSet{"ok": true}.Match(rec))
		assert.False(t, FilterSet{"ok": false}.Match(rec))
	})
}
