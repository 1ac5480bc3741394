package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/fleetops/ultragrid/internal/grid"
)

// CSVSource loads records from a CSV file. The first row supplies field
// names; cell values are sniffed into scalars.
type CSVSource struct {
	Path string
	// Comma overrides the field delimiter. Zero means ','.
	Comma rune
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) ([]grid.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	if s.Comma != 0 {
		r.Comma = s.Comma
	}

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	names := make([]string, len(header))
	copy(names, header)

	var records []grid.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(records)+2, err)
		}
		rec := make(grid.Record, 0, len(names))
		for i, name := range names {
			var v any
			if i < len(row) {
				v = SniffValue(row[i])
			}
			rec = append(rec, grid.Field{Name: name, Value: v})
		}
		records = append(records, rec)
	}
	return records, nil
}
