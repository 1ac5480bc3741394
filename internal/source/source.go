// Package source materializes datasets for the grid from files and
// databases. Sources produce fully loaded records; the renderer never
// fetches data itself.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fleetops/ultragrid/internal/grid"
)

// Source loads a dataset.
type Source interface {
	Load(ctx context.Context) ([]grid.Record, error)
}

// ForPath returns a source for the given file based on its extension.
func ForPath(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &CSVSource{Path: path}, nil
	case ".json":
		return &JSONSource{Path: path}, nil
	case ".db", ".sqlite", ".sqlite3":
		return nil, fmt.Errorf("source: %s is a database, use --query", path)
	default:
		return nil, fmt.Errorf("source: unsupported file type %q", filepath.Ext(path))
	}
}

// SniffValue parses a string into the narrowest scalar: int64, float64,
// bool, or the string itself. Empty strings become nil.
func SniffValue(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// Only the full words, any case; one-letter cells like "t" and "F"
	// stay strings.
	switch {
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	}
	return s
}
