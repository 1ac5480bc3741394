// Package config loads ultragrid's layered configuration. Settings
// merge in order: built-in defaults, the global config file, then a
// project-local ultragrid.json, with environment variables applied
// last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/qjebbs/go-jsons"
)

const appName = "ultragrid"

// GridConfig tunes the virtualized renderer.
type GridConfig struct {
	VisibleRows     int `json:"visible_rows,omitempty"`
	BufferRows      int `json:"buffer_rows,omitempty"`
	RowHeight       int `json:"row_height,omitempty"`
	MaxPoolSize     int `json:"max_pool_size,omitempty"`
	CacheSize       int `json:"cache_size,omitempty"`
	ScrollThrottle  int `json:"scroll_throttle_ms,omitempty"`
	ResizeThrottle  int `json:"resize_throttle_ms,omitempty"`
	RenderBatchSize int `json:"render_batch_size,omitempty"`
}

// Options holds settings outside the renderer itself.
type Options struct {
	Debug   bool   `json:"debug,omitempty"`
	LogFile string `json:"log_file,omitempty"`
	// ReloadDebounce delays reloads after file change bursts.
	ReloadDebounce int `json:"reload_debounce_ms,omitempty"`
}

// Config is the merged ultragrid configuration.
type Config struct {
	Grid    GridConfig `json:"grid"`
	Options Options    `json:"options"`
}

// ScrollThrottle returns the scroll throttle as a duration.
func (c *Config) ScrollThrottle() time.Duration {
	return time.Duration(c.Grid.ScrollThrottle) * time.Millisecond
}

// ResizeThrottle returns the resize throttle as a duration.
func (c *Config) ResizeThrottle() time.Duration {
	return time.Duration(c.Grid.ResizeThrottle) * time.Millisecond
}

var defaultConfig = []byte(`{
	"grid": {
		"visible_rows": 50,
		"buffer_rows": 10,
		"row_height": 40,
		"max_pool_size": 100,
		"scroll_throttle_ms": 16,
		"resize_throttle_ms": 100,
		"render_batch_size": 25
	},
	"options": {
		"reload_debounce_ms": 250
	}
}`)

// GlobalConfig returns the path of the global config file.
func GlobalConfig() string {
	if dir := os.Getenv("ULTRAGRID_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, appName+".json")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+appName, appName+".json")
	}
	return filepath.Join(dir, appName, appName+".json")
}

// Load merges defaults, the global config, and the project config
// found in workingDir.
func Load(workingDir string) (*Config, error) {
	merged := defaultConfig
	for _, path := range []string{
		GlobalConfig(),
		filepath.Join(workingDir, appName+".json"),
	} {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		merged, err = jsons.Merge(merged, data)
		if err != nil {
			return nil, fmt.Errorf("config: merge %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := json.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ULTRAGRID_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Options.Debug = b
		}
	}
	if v := os.Getenv("ULTRAGRID_LOG_FILE"); v != "" {
		cfg.Options.LogFile = v
	}
	if v := os.Getenv("ULTRAGRID_ROW_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grid.RowHeight = n
		}
	}
}
