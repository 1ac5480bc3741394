// Package grid implements a virtualized table renderer: it maintains a
// windowed view over a large ordered dataset, renders only the rows
// intersecting the visible scroll region, recycles row surfaces, and
// caches rendered content keyed by data identity.
//
// The renderer is host-agnostic. A host supplies a Container (the
// scrollable region), a Target (the element visible rows attach to), a
// surface factory, and a Scheduler for deferred batch continuations.
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Field is a single named scalar within a Record. Value is one of
// string, int64, float64, bool, or nil.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered sequence of fields. The field set is
// caller-determined at load time; there is no fixed schema.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Digest returns a content hash over every field name and value. Two
// records with identical fields in identical order share a digest.
func (r Record) Digest() uint64 {
	h := xxh3.New()
	var sep = [1]byte{0x1f}
	for _, f := range r {
		h.WriteString(f.Name)
		h.Write(sep[:])
		h.WriteString(canonicalValue(f.Value))
		h.Write(sep[:])
	}
	return h.Sum64()
}

// canonicalValue produces a type-tagged representation so that e.g. the
// string "1" and the number 1 never collide.
func canonicalValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "z"
	case string:
		return "s" + t
	case bool:
		return "b" + strconv.FormatBool(t)
	case int64:
		return "i" + strconv.FormatInt(t, 10)
	case float64:
		return "f" + strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return "?" + fmt.Sprint(t)
	}
}

// FormatValue renders a scalar for display. Nil renders empty.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// cellText flattens a value into a single display line, stripping
// control characters that would corrupt row layout.
func cellText(v any) string {
	s := FormatValue(v)
	if !strings.ContainsAny(s, "\n\r\t") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return ' '
		}
		return r
	}, s)
}

// defaultRowContent is the fallback row renderer: field values joined as
// cells in record order.
func defaultRowContent(rec Record) string {
	cells := make([]string, len(rec))
	for i, f := range rec {
		cells[i] = cellText(f.Value)
	}
	return strings.Join(cells, " | ")
}
