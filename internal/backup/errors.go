package backup

import (
	"fmt"
	"strings"
)

// The three failure classes a session distinguishes. Host
// unreachability is not one of them: CheckHost reports it as a boolean
// and the caller decides whether to stop.

// DestError reports a destination that is missing, cannot be created,
// is not writable, or cannot be listed.
type DestError struct {
	Path   string
	Reason string
	Stderr string
}

func (e *DestError) Error() string {
	msg := fmt.Sprintf("destination %s: %s", e.Path, e.Reason)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// DuplicateError reports that the generated snapshot name already
// exists on the destination, which happens when two backups start
// within the same second.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("snapshot %s already exists", e.Name)
}

// SyncError reports a transfer tool run that exited non-zero. It keeps
// the command and captured stderr so the failure can be diagnosed from
// logs alone.
type SyncError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("sync command exited %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}
