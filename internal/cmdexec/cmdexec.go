// Package cmdexec runs external commands and captures their outcome.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/snapkeep/snapkeep/internal/logging"
)

// Result holds the outcome of one finished command.
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

// Runner executes a command given as an argv vector. A non-zero exit
// status is reported through Result.Code, not the error: the error
// covers failures to run the command at all, such as a missing binary
// or a canceled context.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	log logging.Logger
}

func New(log logging.Logger) ExecRunner {
	if log == nil {
		log = logging.Discard
	}
	return ExecRunner{log: log}
}

func (r ExecRunner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("CMD : %s", strings.Join(argv, " "))

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("running %s: %w", argv[0], err)
		}
		res.Code = exitErr.ExitCode()
	}

	r.log.Debug("EXIT: %d", res.Code)
	if out := strings.TrimSpace(res.Stdout); out != "" {
		r.log.Debug("OUT : %s", out)
	}
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		r.log.Debug("ERR : %s", errOut)
	}

	return res, nil
}
