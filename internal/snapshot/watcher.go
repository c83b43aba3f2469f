package snapshot

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval groups the burst of events produced by one Insert.
var debounceInterval = 250 * time.Millisecond

// ChangeCallback is called with the key of a snapshot that was rewritten.
type ChangeCallback func(key string)

// Watch reports snapshot rewrites in dir until ctx is cancelled. Events are
// debounced and cb runs on the watcher goroutine, one key at a time in key
// order, so callbacks never overlap.
func Watch(ctx context.Context, dir string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounceInterval)
			fire = timer.C
		} else {
			timer.Reset(debounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			clear(pending)
			for _, k := range keys {
				logger.Debug("watcher: snapshot changed", slog.String("key", k))
				if cb != nil {
					cb(k)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Insert renames a temp file into place, which arrives as Create.
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			key, ok := KeyOf(ev.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
