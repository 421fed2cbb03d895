// Package schedule runs backup sessions on a cron schedule. Firings go
// through a single-slot mailbox, so a schedule that fires while a run
// is still in progress results in exactly one follow-up run, never a
// backlog.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/snapkeep/snapkeep/internal/config"
	"github.com/snapkeep/snapkeep/internal/logging"
	"github.com/snapkeep/snapkeep/internal/mailbox"
)

// Request is one demand for a backup run.
type Request struct {
	FiredAt time.Time
}

// RunFunc executes a full backup session with the given configuration.
type RunFunc func(ctx context.Context, cfg *config.Config) error

type Scheduler struct {
	mu    sync.RWMutex
	cfg   *config.Config
	spec  string
	entry cron.EntryID

	cron *cron.Cron
	mb   *mailbox.Mailbox[Request]
	run  RunFunc
	log  logging.Logger
}

// New validates the cron spec and prepares the scheduler. The spec uses
// the standard five fields.
func New(cfg *config.Config, run RunFunc, log logging.Logger) (*Scheduler, error) {
	if cfg.Schedule.Cron == "" {
		return nil, errors.New("schedule: no cron spec configured")
	}
	if log == nil {
		log = logging.Discard
	}

	s := &Scheduler{
		cfg:  cfg,
		spec: cfg.Schedule.Cron,
		cron: cron.New(),
		mb:   mailbox.New[Request](),
		run:  run,
		log:  log,
	}

	entry, err := s.cron.AddFunc(s.spec, s.trigger)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid cron spec %q: %w", s.spec, err)
	}
	s.entry = entry
	return s, nil
}

func (s *Scheduler) trigger() {
	s.mb.Put(Request{FiredAt: time.Now()})
	s.log.Debug("schedule: run requested")
}

// Start runs sessions as the schedule demands until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	defer s.cron.Stop()

	s.mu.RLock()
	s.log.Info("schedule: running %q, next run at %s",
		s.spec, s.cron.Entry(s.entry).Next.Format(time.RFC3339))
	s.mu.RUnlock()

	for {
		req, ok := s.mb.Take(ctx)
		if !ok {
			return ctx.Err()
		}

		s.mu.RLock()
		cfg := s.cfg
		s.mu.RUnlock()

		s.log.Info("schedule: starting run requested at %s", req.FiredAt.Format(time.RFC3339))
		if err := s.run(ctx, cfg); err != nil {
			s.log.Error("schedule: run failed: %v", err)
		}
	}
}

// UpdateConfig swaps in a new configuration for future runs. When the
// cron spec changed, the new one must parse; otherwise the old schedule
// stays in place and an error is returned.
func (s *Scheduler) UpdateConfig(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec := cfg.Schedule.Cron; spec != s.spec {
		if spec == "" {
			return errors.New("schedule: reload removed the cron spec")
		}
		entry, err := s.cron.AddFunc(spec, s.trigger)
		if err != nil {
			return fmt.Errorf("schedule: invalid cron spec %q: %w", spec, err)
		}
		s.cron.Remove(s.entry)
		s.entry = entry
		s.spec = spec
		s.log.Info("schedule: now running %q", spec)
	}

	s.cfg = cfg
	return nil
}
