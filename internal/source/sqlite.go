package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/fleetops/ultragrid/internal/cache"
	"github.com/fleetops/ultragrid/internal/grid"
)

// SQLiteSource loads records by running a read-only query against a
// SQLite database. Results are cached per query so repeated reloads of
// an unchanged dataset skip the database.
type SQLiteSource struct {
	Path  string
	Query string

	results *cache.Cache[string, []grid.Record]
}

// NewSQLiteSource returns a source for the given database and query.
func NewSQLiteSource(path, query string) *SQLiteSource {
	return &SQLiteSource{
		Path:    path,
		Query:   query,
		results: cache.New[string, []grid.Record](8, cache.WithTTL(30*time.Second)),
	}
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context) ([]grid.Record, error) {
	return s.results.GetOrSet(s.Query, func() ([]grid.Record, error) {
		return s.query(ctx)
	})
}

// Invalidate drops cached results, forcing the next Load to hit the
// database.
func (s *SQLiteSource) Invalidate() {
	s.results.Clear()
}

func (s *SQLiteSource) query(ctx context.Context) ([]grid.Record, error) {
	db, err := sql.Open("sqlite3", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", s.Path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}

	var records []grid.Record
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan row %d: %w", len(records), err)
		}
		rec := make(grid.Record, 0, len(cols))
		for i, col := range cols {
			rec = append(rec, grid.Field{Name: col, Value: sqliteValue(values[i])})
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return records, nil
}

func sqliteValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	default:
		return v
	}
}
