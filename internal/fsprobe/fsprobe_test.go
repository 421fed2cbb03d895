package fsprobe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDeliversEventsTempDir(t *testing.T) {
	dir := t.TempDir()
	if err := DeliversEvents(dir); err != nil {
		// Some CI filesystems genuinely do not deliver events; the
		// check must then say why instead of passing.
		t.Skipf("fsnotify not usable here: %v", err)
	}

	// The scratch file must not survive the check.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("%d scratch files left behind", len(entries))
	}
}

func TestDeliversEventsMissingDir(t *testing.T) {
	if err := DeliversEvents(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Fatal("missing directory passed the check")
	}
}

func TestDeliversEventsFileNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatalf("creating file: %v", err)
	}

	if err := DeliversEvents(f); err == nil {
		t.Fatal("plain file passed the check")
	}
}
