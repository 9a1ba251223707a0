package tree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codehelper/pkg/ignore"

	"go.uber.org/zap"
)

// Native renders the tree in-process with the same connectors `tree` uses.
type Native struct {
	Logger *zap.Logger
}

// NewNative returns a Native renderer.
func NewNative(logger *zap.Logger) *Native {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Native{Logger: logger}
}

// Render lists dir, directories first, then files, by case-insensitive name.
// Hidden entries are left out, as `tree` does without -a.
func (n *Native) Render(ctx context.Context, dir string, m ignore.Matcher) (string, error) {
	if m == nil {
		m = ignore.Nop{}
	}
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	var b strings.Builder
	b.WriteString(absDir + "\n")

	st := &stats{}
	subtree, err := n.walk(ctx, absDir, absDir, m, "", st, logger)
	if err != nil {
		return "", err
	}
	if subtree != "" {
		b.WriteString(subtree + "\n")
	}
	fmt.Fprintf(&b, "\n%d %s, %d %s\n", st.dirs, plural(st.dirs, "directory", "directories"), st.files, plural(st.files, "file", "files"))
	return b.String(), nil
}

type stats struct {
	dirs, files int
}

func (n *Native) walk(ctx context.Context, directory, root string, m ignore.Matcher, prefix string, st *stats, logger *zap.Logger) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		logger.Warn("Failed to read directory for tree structure", zap.String("directory", directory), zap.Error(err))
		return "", nil
	}

	visible := entries[:0]
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		rel, _ := filepath.Rel(root, filepath.Join(directory, entry.Name()))
		rel = ignore.MatchPath(rel, entry.IsDir())
		if m.Excludes(rel) {
			logger.Debug("Skipping ignored entry in tree", zap.String("path", rel))
			continue
		}
		visible = append(visible, entry)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return strings.ToLower(visible[i].Name()) < strings.ToLower(visible[j].Name())
	})

	var output []string
	for i, entry := range visible {
		connector := "├── "
		extension := "│   "
		if i == len(visible)-1 {
			connector = "└── "
			extension = "    "
		}

		output = append(output, prefix+connector+entry.Name())
		if !entry.IsDir() {
			st.files++
			continue
		}
		st.dirs++
		subtree, err := n.walk(ctx, filepath.Join(directory, entry.Name()), root, m, prefix+extension, st, logger)
		if err != nil {
			return "", err
		}
		if subtree != "" {
			output = append(output, subtree)
		}
	}
	return strings.Join(output, "\n"), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
