package backup

import (
	"context"
	"fmt"
)

// Run executes one full session: reachability check, destination check,
// transfer, prune. It stops at the first failure and returns it; prune
// failures are tolerated inside RemoveOldSnapshots and never surface
// here.
func (m *Manager) Run(ctx context.Context) error {
	if m.dryRun {
		m.log.Info("performing a trial run, no changes will be made")
	}

	up, err := m.CheckHost(ctx)
	if err != nil {
		return err
	}
	if !up {
		return fmt.Errorf("cannot reach %s", m.sh.Target())
	}

	st, err := m.CheckDestination(ctx)
	if err != nil {
		return err
	}
	if !st.Exists {
		// Only possible in a dry run; without a destination there is
		// nothing further to simulate.
		return &DestError{Path: m.destPath, Reason: "does not exist"}
	}

	if _, err := m.CreateSnapshot(ctx); err != nil {
		return err
	}

	if _, err := m.RemoveOldSnapshots(ctx); err != nil {
		return err
	}
	return nil
}
