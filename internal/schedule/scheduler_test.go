package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/snapkeep/snapkeep/internal/config"
	"github.com/snapkeep/snapkeep/internal/logging"
)

func schedConfig(spec string) *config.Config {
	cfg := config.Default()
	cfg.Schedule.Cron = spec
	return cfg
}

func noRun(context.Context, *config.Config) error { return nil }

func TestNewRejectsBadSpecs(t *testing.T) {
	if _, err := New(schedConfig(""), noRun, logging.Discard); err == nil {
		t.Fatal("New accepted an empty spec")
	}
	if _, err := New(schedConfig("not a cron line"), noRun, logging.Discard); err == nil {
		t.Fatal("New accepted a malformed spec")
	}
}

func TestNewAcceptsStandardSpec(t *testing.T) {
	if _, err := New(schedConfig("0 3 * * *"), noRun, logging.Discard); err != nil {
		t.Fatalf("New error: %v", err)
	}
}

func TestOverlappingTriggersCollapse(t *testing.T) {
	s, err := New(schedConfig("0 3 * * *"), noRun, logging.Discard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	s.trigger()
	s.trigger()
	s.trigger()

	if got := s.mb.TryTake(); got == nil {
		t.Fatal("no pending run after triggers")
	}
	if s.mb.Pending() {
		t.Fatal("triggers queued more than one run")
	}
}

func TestStartExecutesRequestedRuns(t *testing.T) {
	var runs atomic.Int32
	ran := make(chan struct{}, 8)

	// A spec that cannot plausibly fire during the test.
	s, err := New(schedConfig("0 3 1 1 *"), func(context.Context, *config.Config) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	}, logging.Discard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	s.trigger()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("run never executed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start never returned after cancellation")
	}

	if got := runs.Load(); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
}

func TestUpdateConfigSwapsForNextRun(t *testing.T) {
	seen := make(chan string, 2)
	s, err := New(schedConfig("0 3 1 1 *"), func(_ context.Context, cfg *config.Config) error {
		seen <- cfg.Backup.Prefix
		return nil
	}, logging.Discard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	next := schedConfig("0 3 1 1 *")
	next.Backup.Prefix = "reloaded-"
	if err := s.UpdateConfig(next); err != nil {
		t.Fatalf("UpdateConfig error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Start(ctx) }()

	s.trigger()
	select {
	case prefix := <-seen:
		if prefix != "reloaded-" {
			t.Fatalf("run saw prefix %q, want reloaded-", prefix)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run never executed")
	}
}

func TestUpdateConfigRejectsBadSpec(t *testing.T) {
	s, err := New(schedConfig("0 3 * * *"), noRun, logging.Discard)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	bad := schedConfig("71 99 * * *")
	if err := s.UpdateConfig(bad); err == nil {
		t.Fatal("UpdateConfig accepted a malformed spec")
	}
	if s.spec != "0 3 * * *" {
		t.Fatalf("spec = %q, old schedule was not kept", s.spec)
	}

	removed := schedConfig("")
	if err := s.UpdateConfig(removed); err == nil {
		t.Fatal("UpdateConfig accepted a config without a spec")
	}
}
