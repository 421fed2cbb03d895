// Package fsprobe verifies that fsnotify delivers events for a
// directory before the reload machinery trusts it. Network mounts and
// some container filesystems accept watches silently and never report
// anything; running a real create and rename through the watcher tells
// the two apart.
package fsprobe

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// probeWindow bounds the wait for the scratch file's events.
const probeWindow = 250 * time.Millisecond

// DeliversEvents watches dir, creates and renames a scratch file in it,
// and waits for either to be reported. A nil return means fsnotify can
// be trusted for dir; the error otherwise says what went wrong or that
// delivery timed out.
func DeliversEvents(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify unavailable: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".snapkeep-probe-*")
	if err != nil {
		return fmt.Errorf("creating scratch file: %w", err)
	}
	scratch := f.Name()
	f.Close()
	renamed := scratch + ".done"
	defer os.Remove(scratch)
	defer os.Remove(renamed)

	if err := os.Rename(scratch, renamed); err != nil {
		return fmt.Errorf("renaming scratch file: %w", err)
	}

	deadline := time.NewTimer(probeWindow)
	defer deadline.Stop()
	for {
		select {
		case ev := <-w.Events:
			// Only the scratch file counts; an unrelated event could
			// race in from outside.
			if ev.Name == scratch || ev.Name == renamed {
				return nil
			}
		case err := <-w.Errors:
			return fmt.Errorf("watch error on %s: %w", dir, err)
		case <-deadline.C:
			return fmt.Errorf("no events for %s within %v", dir, probeWindow)
		}
	}
}
