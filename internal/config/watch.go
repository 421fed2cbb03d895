package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/snapkeep/snapkeep/internal/fsprobe"
	"github.com/snapkeep/snapkeep/internal/logging"
)

// Watch monitors the effective config file and calls onChange once an
// edit settles. It blocks until ctx is done. The strategy follows the
// reload mode: fsnotify, mtime polling, or auto, which probes whether
// fsnotify actually delivers events for the directory first.
func Watch(ctx context.Context, rc ReloadConfig, path string, log logging.Logger, onChange func()) error {
	switch rc.Mode {
	case "fsnotify":
		return watchFsnotify(ctx, rc, path, log, onChange)

	case "poll":
		return watchPoll(ctx, rc, path, log, onChange)

	case "", "auto":
		if err := fsprobe.DeliversEvents(filepath.Dir(path)); err != nil {
			log.Warn("fsnotify disabled: %v", err)
			return watchPoll(ctx, rc, path, log, onChange)
		}
		return watchFsnotify(ctx, rc, path, log, onChange)

	default:
		return fmt.Errorf("unknown reload mode %q", rc.Mode)
	}
}

// watchFsnotify watches the directory holding the file, since editors
// and config management tools replace files rather than write them in
// place. Events are debounced so one save triggers one reload.
func watchFsnotify(ctx context.Context, rc ReloadConfig, path string, log logging.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	// Channel to request debounce resets
	resetCh := make(chan struct{}, 1)
	defer close(resetCh)

	go func() {
		var t *time.Timer
		for range resetCh {
			if t != nil {
				t.Stop()
			}
			t = time.AfterFunc(rc.DebounceWindow, onChange)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("config file event: %s", ev)

			// Non-blocking send to reset debounce
			select {
			case resetCh <- struct{}{}:
			default:
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watching %s: %v", dir, err)
		}
	}
}

// watchPoll compares the file's mtime on a fixed interval.
func watchPoll(ctx context.Context, rc ReloadConfig, path string, log logging.Logger, onChange func()) error {
	ticker := time.NewTicker(rc.PollInterval)
	defer ticker.Stop()

	var last time.Time
	if st, err := os.Stat(path); err == nil {
		last = st.ModTime()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			st, err := os.Stat(path)
			if err != nil {
				continue
			}
			if mod := st.ModTime(); mod.After(last) {
				last = mod
				log.Debug("config file changed: %s", path)
				onChange()
			}
		}
	}
}
