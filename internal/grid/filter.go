package grid

import "strings"

// FilterSet maps field names to match values. A record passes when every
// entry matches: string fields match by case-insensitive containment,
// all other field types by equality. An empty set passes everything.
type FilterSet map[string]any

// Match reports whether the record passes every filter entry. A record
// missing a filtered field does not pass.
func (f FilterSet) Match(r Record) bool {
	for name, want := range f {
		got, ok := r.Get(name)
		if !ok {
			return false
		}
		if !matchValue(got, want) {
			return false
		}
	}
	return true
}

// Apply returns the records passing the filter, in order. With an empty
// filter set the input slice is returned as is.
func (f FilterSet) Apply(data []Record) []Record {
	if len(f) == 0 {
		return data
	}
	out := make([]Record, 0, len(data))
	for _, r := range data {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchValue(got, want any) bool {
	if s, ok := got.(string); ok {
		return strings.Contains(strings.ToLower(s), strings.ToLower(FormatValue(want)))
	}
	return equalValues(got, want)
}

// equalValues compares scalars, treating numeric types as one domain so
// that int64(3) equals float64(3).
func equalValues(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
