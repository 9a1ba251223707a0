// Package tree renders the directory-tree block placed at the top of the
// combined document.
package tree

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"codehelper/pkg/apperr"
	"codehelper/pkg/ignore"
	"codehelper/pkg/runner"

	"go.uber.org/zap"
)

// Renderer produces a textual tree of dir with ignored entries removed.
type Renderer interface {
	Render(ctx context.Context, dir string, m ignore.Matcher) (string, error)
}

// Mode selects a Renderer.
type Mode string

const (
	ModeExternal Mode = "external"
	ModeNative   Mode = "native"
)

// ParseMode validates a mode name. The empty string means ModeExternal.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExternal:
		return ModeExternal, nil
	case ModeNative:
		return ModeNative, nil
	default:
		return "", fmt.Errorf("unknown tree mode %q (want %q or %q)", s, ModeExternal, ModeNative)
	}
}

// availabilityChecker is implemented by runners that can tell whether a
// tool exists before running it.
type availabilityChecker interface {
	Available(name string) error
}

// External shells out to the `tree` command, which writes to a temporary
// file that is read back and removed.
type External struct {
	Runner runner.Runner
	Tool   string // defaults to "tree"
	Logger *zap.Logger
}

// NewExternal returns an External renderer using r.
func NewExternal(r runner.Runner, logger *zap.Logger) *External {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &External{Runner: r, Tool: "tree", Logger: logger}
}

// Render runs `tree <dir> -o <tmp>` and filters the listing through m.
func (e *External) Render(ctx context.Context, dir string, m ignore.Matcher) (string, error) {
	tool := e.Tool
	if tool == "" {
		tool = "tree"
	}
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if c, ok := e.Runner.(availabilityChecker); ok {
		if err := c.Available(tool); err != nil {
			logger.Error("Tree tool is not available", zap.String("tool", tool), zap.Error(err))
			return "", err
		}
	}

	tmp, err := os.CreateTemp("", "codehelper-tree-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create tree capture file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove tree capture file", zap.String("file", tmpPath), zap.Error(err))
		}
	}()

	res, err := e.Runner.Run(ctx, runner.Command{Name: tool, Args: []string{dir, "-o", tmpPath}})
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", tool, err)
	}
	if !res.Success() {
		return "", apperr.New("tree.render", apperr.KindExternalToolMissing, tool,
			fmt.Errorf("%s exited with code %d: %s", tool, res.ExitCode, strings.TrimSpace(res.Stderr)))
	}

	out, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to read tree output: %w", err)
	}

	logger.Debug("Rendered tree with external tool", zap.String("tool", tool), zap.Int("bytes", len(out)))
	return FilterLines(string(out), m), nil
}

// FilterLines drops listing entries excluded by m together with everything
// listed beneath them. Each entry is matched by its path relative to the
// listed root, rebuilt from the indentation depth. An entry counts as a
// directory when the next entry is nested deeper.
func FilterLines(listing string, m ignore.Matcher) string {
	if m == nil {
		return listing
	}
	lines := strings.Split(listing, "\n")
	kept := make([]string, 0, len(lines))

	var parents []string
	skipDepth := -1
	for i, line := range lines {
		depth, name, ok := parseEntry(line)
		if !ok {
			// Root line, summary or blank line.
			parents = parents[:0]
			skipDepth = -1
			kept = append(kept, line)
			continue
		}
		if skipDepth >= 0 && depth > skipDepth {
			continue
		}
		skipDepth = -1

		if depth > len(parents) {
			depth = len(parents)
		}
		parents = append(parents[:depth], name)
		rel := path.Join(parents...)

		isDir := false
		if i+1 < len(lines) {
			if next, _, ok := parseEntry(lines[i+1]); ok && next > depth {
				isDir = true
			}
		}
		if m.Excludes(ignore.MatchPath(rel, isDir)) {
			skipDepth = depth
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// parseEntry splits a `tree` entry line into its depth, counted from zero for
// children of the root, and its name. Every indentation level is four runes
// wide, in both the Unicode and the ASCII charsets.
func parseEntry(line string) (depth int, name string, ok bool) {
	for _, connector := range []string{"── ", "-- "} {
		i := strings.Index(line, connector)
		if i <= 0 {
			continue
		}
		prefix := utf8.RuneCountInString(line[:i])
		name = line[i+len(connector):]
		if j := strings.Index(name, " -> "); j >= 0 {
			name = name[:j]
		}
		return (prefix - 1) / 4, name, true
	}
	return 0, "", false
}
