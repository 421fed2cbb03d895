// Package remote runs commands on the backup destination through the
// configured ssh binary. Every operation issues a single remote shell
// command; nothing is cached between calls.
package remote

import (
	"context"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/snapkeep/snapkeep/internal/cmdexec"
	"github.com/snapkeep/snapkeep/internal/logging"
)

type Options struct {
	SSHBin  string
	KeyFile string
	User    string
	Host    string

	// Attempts and Backoff control retries of ssh transport failures.
	// Attempts 1 means a single try.
	Attempts int
	Backoff  time.Duration
}

type Shell struct {
	sshBin   string
	keyFile  string
	user     string
	host     string
	attempts int
	backoff  time.Duration

	runner cmdexec.Runner
	log    logging.Logger
}

func New(opt Options, runner cmdexec.Runner, log logging.Logger) *Shell {
	if opt.Attempts < 1 {
		opt.Attempts = 1
	}
	if log == nil {
		log = logging.Discard
	}
	return &Shell{
		sshBin:   opt.SSHBin,
		keyFile:  opt.KeyFile,
		user:     opt.User,
		host:     opt.Host,
		attempts: opt.Attempts,
		backoff:  opt.Backoff,
		runner:   runner,
		log:      log,
	}
}

// Target returns the ssh destination, including the user part when one
// is configured.
func (s *Shell) Target() string {
	if s.user != "" {
		return s.user + "@" + s.host
	}
	return s.host
}

// command assembles the ssh argv for one remote command string.
func (s *Shell) command(remoteCmd string) []string {
	argv := []string{s.sshBin}
	if s.keyFile != "" {
		argv = append(argv, "-i", s.keyFile)
	}
	return append(argv, s.Target(), remoteCmd)
}

// Ping reports whether the host accepts a trivial remote command.
func (s *Shell) Ping(ctx context.Context) (bool, error) {
	res, err := s.exec(ctx, "exit 0")
	if err != nil {
		return false, err
	}
	return res.Code == 0, nil
}

// DirExists reports whether path is a directory on the host.
func (s *Shell) DirExists(ctx context.Context, path string) (bool, error) {
	res, err := s.exec(ctx, "test -d "+shellquote.Join(path))
	if err != nil {
		return false, err
	}
	return res.Code == 0, nil
}

// DirWritable reports whether path is writable on the host.
func (s *Shell) DirWritable(ctx context.Context, path string) (bool, error) {
	res, err := s.exec(ctx, "test -w "+shellquote.Join(path))
	if err != nil {
		return false, err
	}
	return res.Code == 0, nil
}

// MkdirAll creates path on the host, including missing parents.
func (s *Shell) MkdirAll(ctx context.Context, path string) error {
	cmd := "mkdir -p -- " + shellquote.Join(path)
	res, err := s.exec(ctx, cmd)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return &CommandError{Cmd: cmd, Code: res.Code, Stderr: res.Stderr}
	}
	return nil
}

// List returns the entries under path on the host.
func (s *Shell) List(ctx context.Context, path string) ([]string, error) {
	cmd := "ls " + shellquote.Join(path)
	res, err := s.exec(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.Code != 0 {
		return nil, &CommandError{Cmd: cmd, Code: res.Code, Stderr: res.Stderr}
	}
	return strings.Fields(res.Stdout), nil
}

// RemoveAll deletes the given paths on the host with a single command.
func (s *Shell) RemoveAll(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	cmd := "rm -r -- " + shellquote.Join(paths...)
	res, err := s.exec(ctx, cmd)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return &CommandError{Cmd: cmd, Code: res.Code, Stderr: res.Stderr}
	}
	return nil
}
