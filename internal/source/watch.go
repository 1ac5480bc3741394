package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fleetops/ultragrid/internal/grid"
)

// Watch reloads the source whenever path changes and delivers the new
// records through onReload. It debounces rapid write bursts and returns
// when ctx is cancelled. Load errors are logged and skipped so a
// half-written file does not kill the watch.
func Watch(ctx context.Context, path string, src Source, onReload func([]grid.Record)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	const debounce = 250 * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			records, err := src.Load(ctx)
			if err != nil {
				slog.Error("reload failed", "path", path, "error", err)
				continue
			}
			onReload(records)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "path", path, "error", err)
		}
	}
}
