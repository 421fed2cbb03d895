package remote

import (
	"context"
	"time"

	"github.com/snapkeep/snapkeep/internal/cmdexec"
)

// exec runs one remote command, retrying transport failures with
// exponential backoff. Command failures (any status other than 255)
// are never retried.
func (s *Shell) exec(ctx context.Context, remoteCmd string) (cmdexec.Result, error) {
	argv := s.command(remoteCmd)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return cmdexec.Result{}, err
		}

		res, err := s.runner.Run(ctx, argv)
		if err != nil {
			return cmdexec.Result{}, err
		}

		if !isTransient(res.Code) || attempt == s.attempts {
			return res, nil
		}

		sleep := s.backoff * (1 << (attempt - 1))
		s.log.Warn("ssh transport failure talking to %s (attempt %d/%d), retrying in %s",
			s.Target(), attempt, s.attempts, sleep)
		select {
		case <-ctx.Done():
			return cmdexec.Result{}, ctx.Err()
		case <-time.After(sleep):
		}
	}
}
