// Package runner runs external commands and shell snippets under a timeout
// and captures their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"codehelper/pkg/apperr"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every invocation when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when a command outlives its timeout.
var ErrTimeout = errors.New("command timed out")

// Command describes one invocation. Exec runners use Name and Args; shell
// runners use Script.
type Command struct {
	Name   string
	Args   []string
	Script string
	Dir    string
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	if c.Script != "" {
		return c.Script
	}
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the captured outcome of a command that ran to completion.
// A non-zero ExitCode is not an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool { return r != nil && r.ExitCode == 0 }

// Runner runs a Command. It returns an error only when the command could not
// be run to completion: missing tool, timeout, invalid script.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Exec runs binaries found on PATH.
type Exec struct {
	Timeout time.Duration
	Logger  *zap.Logger
	// LookPath is exec.LookPath unless replaced.
	LookPath func(file string) (string, error)
}

// NewExec returns an Exec runner with the given timeout.
func NewExec(timeout time.Duration, logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{Timeout: timeout, Logger: logger, LookPath: exec.LookPath}
}

// Available reports whether name resolves to an executable. The error is a
// KindExternalToolMissing *apperr.Error.
func (e *Exec) Available(name string) error {
	lookPath := e.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(name); err != nil {
		return apperr.New("runner.lookpath", apperr.KindExternalToolMissing, name, err)
	}
	return nil
}

// Run executes cmd.Name with cmd.Args.
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, errors.New("exec runner: empty command name")
	}
	if err := e.Available(cmd.Name); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, e.Timeout)
	defer cancel()

	logger := e.logger()
	logger.Debug("Running external command", zap.String("command", cmd.String()), zap.String("dir", cmd.Dir))

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		logger.Warn("External command timed out", zap.String("command", cmd.String()), zap.Duration("timeout", e.Timeout))
		return res, fmt.Errorf("%s: %w", cmd.String(), ErrTimeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			logger.Debug("External command exited non-zero",
				zap.String("command", cmd.String()),
				zap.Int("exitCode", res.ExitCode))
			return res, nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, apperr.New("runner.exec", apperr.KindExternalToolMissing, cmd.Name, err)
		}
		return nil, fmt.Errorf("run %s: %w", cmd.String(), err)
	}

	logger.Debug("External command finished", zap.String("command", cmd.String()), zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (e *Exec) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
