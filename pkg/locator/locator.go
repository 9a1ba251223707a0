// Package locator resolves what to aggregate: an explicit directory, the
// working directory, or a Go package/module looked up with `go list`.
package locator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codehelper/pkg/apperr"
	"codehelper/pkg/runner"

	"go.uber.org/zap"
)

// Target is a resolved directory and the display name used for the output file.
type Target struct {
	Dir  string
	Name string
}

// FromPath resolves an explicit directory. The name is its last path segment.
func FromPath(dir string) (Target, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Target{}, apperr.New("locator.path", apperr.KindPathUnresolvable, dir, err)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		return Target{}, apperr.New("locator.path", apperr.KindPathUnresolvable, abs, err)
	}
	if !info.IsDir() {
		return Target{}, apperr.New("locator.path", apperr.KindPathUnresolvable, abs, errors.New("not a directory"))
	}
	return Target{Dir: abs, Name: filepath.Base(abs)}, nil
}

// FromWorkingDir resolves the current working directory.
func FromWorkingDir() (Target, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Target{}, apperr.New("locator.cwd", apperr.KindPathUnresolvable, "", err)
	}
	return FromPath(wd)
}

// Locator finds the source directory of a Go package or module by name.
type Locator struct {
	Runner runner.Runner
	GoTool string // defaults to "go"
	Dir    string // directory `go list` runs in; empty means the working directory
	Logger *zap.Logger
}

// New returns a Locator that runs the go tool through r.
func New(r runner.Runner, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{Runner: r, GoTool: "go", Logger: logger}
}

// Resolve maps an import path or module path to its directory. It tries the
// package lookup first, then the module lookup.
func (l *Locator) Resolve(ctx context.Context, name string) (Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Target{}, apperr.New("locator.resolve", apperr.KindModuleNotFound, name, errors.New("empty module name"))
	}

	lookups := [][]string{
		{"list", "-find", "-f", "{{.Dir}}", name},
		{"list", "-m", "-f", "{{.Dir}}", name},
	}

	var failures []string
	for _, args := range lookups {
		res, err := l.Runner.Run(ctx, runner.Command{Name: l.goTool(), Args: args, Dir: l.Dir})
		if err != nil {
			if apperr.IsKind(err, apperr.KindExternalToolMissing) {
				return Target{}, err
			}
			return Target{}, fmt.Errorf("look up %s: %w", name, err)
		}
		if !res.Success() {
			failures = append(failures, strings.TrimSpace(res.Stderr))
			l.logger().Debug("Lookup did not find module",
				zap.String("module", name),
				zap.Strings("args", args),
				zap.Int("exitCode", res.ExitCode))
			continue
		}

		dir := firstLine(res.Stdout)
		if dir == "" {
			return Target{}, apperr.New("locator.resolve", apperr.KindPathUnresolvable, name,
				errors.New("module has no directory on disk"))
		}
		l.logger().Debug("Resolved module", zap.String("module", name), zap.String("dir", dir))
		return Target{Dir: filepath.Clean(dir), Name: DisplayName(name)}, nil
	}

	return Target{}, apperr.New("locator.resolve", apperr.KindModuleNotFound, name,
		errors.New(strings.Join(nonEmpty(failures), "; ")))
}

// DisplayName turns a module path into a file-name-safe name.
func DisplayName(name string) string {
	return strings.ReplaceAll(strings.Trim(name, "/"), "/", "_")
}

func (l *Locator) goTool() string {
	if l.GoTool == "" {
		return "go"
	}
	return l.GoTool
}

func (l *Locator) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"not found"}
	}
	return out
}
