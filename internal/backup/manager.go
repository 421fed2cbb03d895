// Package backup implements the rotating snapshot session against a
// remote destination. A Manager drives the external transfer and ssh
// tools; it never touches the destination except through them.
package backup

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/snapkeep/snapkeep/internal/cmdexec"
	"github.com/snapkeep/snapkeep/internal/config"
	"github.com/snapkeep/snapkeep/internal/logging"
	"github.com/snapkeep/snapkeep/internal/remote"
	"github.com/snapkeep/snapkeep/internal/retention"
	"github.com/snapkeep/snapkeep/internal/snapshot"
)

// Manager holds the settings for one backup session. It is immutable
// after construction; a config reload builds a new Manager.
type Manager struct {
	src         string
	destPath    string
	prefix      string
	dryRun      bool
	excludeFile string
	logExcludes bool

	rsyncBin   string
	rsyncFlags string
	sshBin     string
	sshKey     string

	sh     *remote.Shell
	runner cmdexec.Runner
	policy retention.Policy
	log    logging.Logger

	now func() time.Time
}

func New(cfg *config.Config, runner cmdexec.Runner, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard
	}
	sh := remote.New(remote.Options{
		SSHBin:   cfg.Tools.SSH,
		KeyFile:  cfg.Tools.SSHKey,
		User:     cfg.Destination.User,
		Host:     cfg.Destination.Host,
		Attempts: cfg.Retry.Attempts,
		Backoff:  cfg.Retry.Backoff,
	}, runner, log)

	return &Manager{
		src:         cfg.Source.Path,
		destPath:    cfg.Destination.Path,
		prefix:      cfg.Backup.Prefix,
		dryRun:      cfg.DryRun,
		excludeFile: cfg.Backup.ExcludeFile,
		logExcludes: cfg.Backup.LogExcludes,
		rsyncBin:    cfg.Tools.Rsync,
		rsyncFlags:  cfg.Tools.RsyncFlags,
		sshBin:      cfg.Tools.SSH,
		sshKey:      cfg.Tools.SSHKey,
		sh:          sh,
		runner:      runner,
		policy:      retention.NewPolicy(cfg.Destination.Retention.Keep),
		log:         log,
		now:         time.Now,
	}
}

// CheckHost reports whether the destination host answers a trivial ssh
// command. Unreachability is a result, not an error.
func (m *Manager) CheckHost(ctx context.Context) (bool, error) {
	up, err := m.sh.Ping(ctx)
	if err != nil {
		return false, err
	}
	if !up {
		m.log.Warn("cannot communicate with %s", m.sh.Target())
	}
	return up, nil
}

// DestStatus reports what CheckDestination found out about the
// destination directory.
type DestStatus struct {
	Exists   bool
	Writable bool
}

// CheckDestination verifies the destination directory. A missing
// directory is created unless this is a dry run, in which case its
// absence is only reported. An unwritable directory is an error, but
// the partial status is still returned.
func (m *Manager) CheckDestination(ctx context.Context) (DestStatus, error) {
	exists, err := m.sh.DirExists(ctx, m.destPath)
	if err != nil {
		return DestStatus{}, err
	}

	if !exists {
		if m.dryRun {
			m.log.Info("destination %s does not exist, would create it", m.destPath)
			return DestStatus{}, nil
		}
		m.log.Info("destination %s does not exist, creating it", m.destPath)
		if err := m.sh.MkdirAll(ctx, m.destPath); err != nil {
			return DestStatus{}, destError(m.destPath, "cannot create", err)
		}
	}

	writable, err := m.sh.DirWritable(ctx, m.destPath)
	if err != nil {
		return DestStatus{Exists: true}, err
	}
	if !writable {
		return DestStatus{Exists: true}, &DestError{Path: m.destPath, Reason: "not writable"}
	}
	return DestStatus{Exists: true, Writable: true}, nil
}

// ListSnapshots returns the snapshots present on the destination,
// oldest first. Entries that do not follow the naming scheme are
// ignored.
func (m *Manager) ListSnapshots(ctx context.Context) ([]string, error) {
	entries, err := m.sh.List(ctx, m.destPath)
	if err != nil {
		var cmdErr *remote.CommandError
		if errors.As(err, &cmdErr) {
			return nil, destError(m.destPath, "cannot list", err)
		}
		return nil, err
	}

	names := snapshot.Filter(m.prefix, entries)
	snapshot.SortChronological(m.prefix, names)
	return names, nil
}

// MostRecentSnapshot returns the newest of the given snapshot names, or
// false when there are none. It performs no remote work.
func (m *Manager) MostRecentSnapshot(names []string) (string, bool) {
	return snapshot.MostRecent(m.prefix, names)
}

// CreateSnapshot transfers the source into a new timestamped snapshot,
// hard-linking unchanged files against the previous one. It returns the
// new snapshot's name.
func (m *Manager) CreateSnapshot(ctx context.Context) (string, error) {
	name := snapshot.Generate(m.prefix, m.now())

	existing, err := m.ListSnapshots(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range existing {
		if e == name {
			return "", &DuplicateError{Name: name}
		}
	}

	var linkDest string
	if last, ok := m.MostRecentSnapshot(existing); ok {
		linkDest = path.Join(m.destPath, last)
		m.log.Debug("hard-linking unchanged files against %s", last)
	} else {
		m.log.Debug("no previous snapshot, performing a full transfer")
	}

	argv := m.syncCommand(name, linkDest)
	res, err := m.runner.Run(ctx, argv)
	if err != nil {
		return "", err
	}
	if res.Code != 0 {
		return "", &SyncError{Command: joinArgv(argv), Code: res.Code, Stderr: res.Stderr}
	}

	if m.dryRun {
		m.log.Info("dry run, snapshot %s not created", name)
	} else {
		m.log.Info("created snapshot %s", name)
	}
	m.reportExcluded(name, res.Stdout)
	return name, nil
}

// RemoveOldSnapshots prunes snapshots beyond the retention count with a
// single remote removal. A failed removal is logged, not returned: the
// worst outcome is extra history, which the next run prunes again. The
// returned count is the number of snapshots selected for removal.
func (m *Manager) RemoveOldSnapshots(ctx context.Context) (int, error) {
	names, err := m.ListSnapshots(ctx)
	if err != nil {
		return 0, err
	}

	evict := m.policy.Plan(names)
	if len(evict) == 0 {
		m.log.Info("%d snapshots present, keeping %d, nothing to remove", len(names), m.policy.Keep)
		return 0, nil
	}

	if m.dryRun {
		m.log.Info("dry run, would have removed %d old snapshots: %s", len(evict), strings.Join(evict, ", "))
		return 0, nil
	}

	paths := make([]string, len(evict))
	for i, n := range evict {
		paths[i] = path.Join(m.destPath, n)
	}
	if err := m.sh.RemoveAll(ctx, paths...); err != nil {
		m.log.Error("removing old snapshots: %v", err)
	} else {
		m.log.Info("removed %d old snapshots: %s", len(evict), strings.Join(evict, ", "))
	}
	return len(evict), nil
}

func destError(dest, reason string, err error) *DestError {
	de := &DestError{Path: dest, Reason: reason}
	var cmdErr *remote.CommandError
	if errors.As(err, &cmdErr) {
		de.Stderr = cmdErr.Stderr
	}
	return de
}
