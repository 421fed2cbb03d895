// Command snapkeep creates rotating, hard-link deduplicated backups of
// a local directory on a remote host, driving the system's rsync and
// ssh binaries. It either performs one backup and exits, or keeps
// running and backs up on a cron schedule with -daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/snapkeep/snapkeep/internal/backup"
	"github.com/snapkeep/snapkeep/internal/cmdexec"
	"github.com/snapkeep/snapkeep/internal/config"
	"github.com/snapkeep/snapkeep/internal/logging"
	"github.com/snapkeep/snapkeep/internal/schedule"
)

var version = "dev"

// countFlag makes -v repeatable: each bare occurrence increments it,
// and -v=2 sets it directly.
type countFlag int

func (c *countFlag) String() string { return strconv.Itoa(int(*c)) }

func (c *countFlag) IsBoolFlag() bool { return true }

func (c *countFlag) Set(s string) error {
	if s == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*c = countFlag(n)
	return nil
}

// options holds everything the command line can set.
type options struct {
	cfgPath   string
	source    string
	host      string
	dest      string
	user      string
	key       string
	exclude   string
	logExcl   bool
	prefix    string
	keep      int
	dryRun    bool
	daemon    bool
	showVer   bool
	verbosity countFlag
}

func (o *options) register(fl *flag.FlagSet) {
	fl.StringVar(&o.cfgPath, "config", "", "extra configuration `file`, read after the default locations")
	fl.StringVar(&o.source, "source", "", "source `directory` to back up")
	fl.StringVar(&o.host, "host", "", "remote `host` receiving backups")
	fl.StringVar(&o.dest, "dest", "", "destination `directory` on the remote host")
	fl.StringVar(&o.user, "user", "", "remote `user` for ssh and the transfer")
	fl.StringVar(&o.key, "key", "", "ssh identity `file`")
	fl.StringVar(&o.exclude, "exclude", "", "rsync exclude `file`")
	fl.BoolVar(&o.logExcl, "log-excludes", false, "report the files the exclude file kept out")
	fl.StringVar(&o.prefix, "prefix", "", "snapshot name `prefix`")
	fl.IntVar(&o.keep, "keep", 0, "`number` of snapshots to keep")
	fl.BoolVar(&o.dryRun, "dry-run", false, "trial run with no changes made")
	fl.BoolVar(&o.daemon, "daemon", false, "keep running and back up on the configured schedule")
	fl.BoolVar(&o.showVer, "version", false, "print the version and exit")
	fl.Var(&o.verbosity, "v", "increase verbosity; repeat for debug output")
}

// overlay puts command-line settings over anything the files said, but
// only for flags actually given.
func (o *options) overlay(fl *flag.FlagSet, cfg *config.Config) {
	fl.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source.Path = o.source
		case "host":
			cfg.Destination.Host = o.host
		case "dest":
			cfg.Destination.Path = o.dest
		case "user":
			cfg.Destination.User = o.user
		case "key":
			cfg.Tools.SSHKey = o.key
		case "exclude":
			cfg.Backup.ExcludeFile = o.exclude
		case "log-excludes":
			cfg.Backup.LogExcludes = o.logExcl
		case "prefix":
			cfg.Backup.Prefix = o.prefix
		case "keep":
			cfg.Destination.Retention.Keep = o.keep
		case "dry-run":
			cfg.DryRun = o.dryRun
		case "v":
			cfg.Logging.Verbosity = int(o.verbosity)
		}
	})
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("snapkeep", flag.ExitOnError)
	fl.SetOutput(stderr)
	var opts options
	opts.register(fl)
	fl.Parse(args)

	if opts.showVer {
		fmt.Fprintln(stdout, "snapkeep "+version)
		return 0
	}

	paths := defaultConfigPaths()
	if opts.cfgPath != "" {
		if _, err := os.Stat(opts.cfgPath); err != nil {
			fmt.Fprintf(stderr, "ERROR: config file: %v\n", err)
			return 1
		}
		paths = append(paths, opts.cfgPath)
	}

	cfg, read, err := config.Load(paths...)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	opts.overlay(fl, cfg)

	logg := logging.NewStreamLogger(stdout, stderr, cfg.Logging.Verbosity)
	for _, p := range read {
		logg.Info("read configuration from %s", p)
	}

	warns, err := cfg.Validate()
	if err != nil {
		logg.Error("invalid configuration: %v", err)
		return 1
	}
	for _, w := range warns {
		logg.Warn("%s", w)
	}

	runner := cmdexec.New(logg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.daemon {
		// Flags pinned on the command line keep winning when the
		// config is reloaded.
		overlay := func(c *config.Config) { opts.overlay(fl, c) }
		return runDaemon(ctx, cfg, paths, read, overlay, runner, logg)
	}

	if err := backup.New(cfg, runner, logg).Run(ctx); err != nil {
		logg.Error("%v", err)
		var syncErr *backup.SyncError
		var dupErr *backup.DuplicateError
		if errors.As(err, &syncErr) || errors.As(err, &dupErr) {
			return 2
		}
		return 1
	}
	return 0
}

func defaultConfigPaths() []string {
	paths := []string{"/etc/snapkeep.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".snapkeep.yaml"))
	}
	return paths
}

func runDaemon(ctx context.Context, cfg *config.Config, paths, read []string, overlay func(*config.Config), runner cmdexec.Runner, logg logging.Logger) int {
	sched, err := schedule.New(cfg, func(ctx context.Context, cfg *config.Config) error {
		return backup.New(cfg, runner, logg).Run(ctx)
	}, logg)
	if err != nil {
		logg.Error("%v", err)
		return 1
	}

	reload := func() {
		newCfg, _, err := config.Load(paths...)
		if err != nil {
			logg.Error("config reload failed: %v", err)
			return
		}
		overlay(newCfg)
		warns, err := newCfg.Validate()
		if err != nil {
			logg.Error("config reload rejected: %v", err)
			return
		}
		for _, w := range warns {
			logg.Warn("%s", w)
		}
		if err := sched.UpdateConfig(newCfg); err != nil {
			logg.Error("config reload rejected: %v", err)
			return
		}
		logg.Info("configuration reloaded")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sched.Start(ctx) })

	// Hot reload on SIGHUP
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-sigCh:
				reload()
			}
		}
	})

	// Hot reload on config file changes
	if cfg.ConfigReload.Enabled && len(read) > 0 {
		watchPath := read[len(read)-1]
		g.Go(func() error {
			return config.Watch(ctx, cfg.ConfigReload, watchPath, logg, reload)
		})
	}

	if ok, err := sd.SdNotify(false, sd.SdNotifyReady); err != nil {
		logg.Warn("sd_notify failed: %v", err)
	} else if ok {
		logg.Debug("sd_notify: ready")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("%v", err)
		return 1
	}
	logg.Info("shutdown complete")
	return 0
}
