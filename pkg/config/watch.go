package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const watchDebounce = 300 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// result to onChange. Files that fail to load are logged and skipped, so
// onChange only ever sees valid configs. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		return errors.New("config path required")
	}
	if onChange == nil {
		return errors.New("change handler required")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create config watcher")
	}
	defer w.Close()

	// editors often replace the file, watch the parent dir instead
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "failed to watch config dir: %s", filepath.Dir(target))
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			c, err := Load(target)
			if err != nil {
				slog.Warn("config reload skipped", "path", target, "error", err)
				continue
			}
			slog.Info("config reloaded", "path", target)
			onChange(c)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watch error", "error", err)
		}
	}
}
