package source

import (
	"context"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/fleetops/ultragrid/internal/grid"
)

// JSONSource loads records from a JSON file holding an array of flat
// objects. Field order follows the order keys appear in each object.
type JSONSource struct {
	Path string
	// Query selects the array to load, e.g. "data.rows". Empty means
	// the document root.
	Query string
}

// Load implements Source.
func (s *JSONSource) Load(ctx context.Context) ([]grid.Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("json: read %s: %w", s.Path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("json: %s is not valid JSON", s.Path)
	}

	root := gjson.ParseBytes(data)
	if s.Query != "" {
		root = root.Get(s.Query)
		if !root.Exists() {
			return nil, fmt.Errorf("json: query %q matched nothing in %s", s.Query, s.Path)
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("json: expected an array of objects in %s", s.Path)
	}

	var (
		records []grid.Record
		badRow  error
	)
	root.ForEach(func(_, row gjson.Result) bool {
		if err := ctx.Err(); err != nil {
			badRow = err
			return false
		}
		if !row.IsObject() {
			badRow = fmt.Errorf("json: row %d is not an object", len(records))
			return false
		}
		var rec grid.Record
		row.ForEach(func(key, value gjson.Result) bool {
			rec = append(rec, grid.Field{Name: key.String(), Value: jsonValue(value)})
			return true
		})
		records = append(records, rec)
		return true
	})
	if badRow != nil {
		return nil, badRow
	}
	return records, nil
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		// Keep whole numbers as integers so digests and filters treat
		// them consistently with CSV sniffing.
		f := v.Float()
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case gjson.String:
		return v.String()
	default:
		// Nested arrays and objects render as their raw JSON text.
		return v.Raw
	}
}
