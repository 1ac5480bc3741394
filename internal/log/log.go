// Package log wires slog to a rotating log file. The TUI owns the
// terminal, so logs never go to stderr while the program is running.
package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the default slog logger writing to logfile.
func Setup(logfile string, debug bool) error {
	if err := os.MkdirAll(filepath.Dir(logfile), 0o755); err != nil {
		return err
	}
	rotator := &lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(rotator, log.Options{
		Level:           level,
		ReportCaller:    debug,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	slog.SetDefault(slog.New(logger))
	return nil
}
