package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Shell runs POSIX shell snippets in-process. Builtins are interpreted
// directly and external programs are started from PATH, so no /bin/sh is
// needed.
type Shell struct {
	Timeout time.Duration
	Logger  *zap.Logger
	// Env is os.Environ() unless set.
	Env []string
}

// NewShell returns a Shell runner with the given timeout.
func NewShell(timeout time.Duration, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shell{Timeout: timeout, Logger: logger}
}

// Run parses and runs cmd.Script. Falls back to Name and Args joined by
// spaces when Script is empty.
func (s *Shell) Run(ctx context.Context, cmd Command) (*Result, error) {
	script := cmd.Script
	if script == "" {
		script = strings.TrimSpace(cmd.Name + " " + strings.Join(cmd.Args, " "))
	}
	if script == "" {
		return nil, errors.New("shell runner: empty script")
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "command")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	env := s.Env
	if env == nil {
		env = os.Environ()
	}
	dir := cmd.Dir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}

	var stdout, stderr bytes.Buffer
	r, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Running shell command", zap.String("command", script), zap.String("dir", dir))

	err = r.Run(ctx, prog)
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		logger.Warn("Shell command timed out", zap.String("command", script), zap.Duration("timeout", s.Timeout))
		return res, fmt.Errorf("%s: %w", script, ErrTimeout)
	}
	if err != nil {
		if exitStatus, ok := interp.IsExitStatus(err); ok {
			res.ExitCode = int(exitStatus)
			return res, nil
		}
		return res, fmt.Errorf("run %q: %w", script, err)
	}
	return res, nil
}
