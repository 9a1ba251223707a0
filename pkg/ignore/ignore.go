// Package ignore loads .gitignore files and decides which paths are left out
// of the tree and the combined output.
//
// The default matcher treats every rule as a literal substring: a path is
// excluded when any rule text appears anywhere in it. There is no glob
// expansion, anchoring or negation. GlobRules offers gitignore-like matching
// for callers that opt in.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codehelper/pkg/apperr"

	"go.uber.org/zap"
)

// FileName is the ignore file looked up at the target root.
const FileName = ".gitignore"

// ErrNoIgnoreFile is returned by Load when the target has no ignore file.
// It marks a valid "no filtering" state, not a failure.
var ErrNoIgnoreFile = errors.New("no ignore file")

// Mode selects how ignore rules are interpreted.
type Mode string

const (
	ModeSubstring Mode = "substring"
	ModeGlob      Mode = "glob"
)

// ParseMode validates a mode name. The empty string means ModeSubstring.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSubstring:
		return ModeSubstring, nil
	case ModeGlob:
		return ModeGlob, nil
	default:
		return "", fmt.Errorf("unknown ignore mode %q (want %q or %q)", s, ModeSubstring, ModeGlob)
	}
}

// Matcher decides whether a path is excluded. Paths are slash-separated,
// rooted at the target directory ("/src/main.py"), and directories carry a
// trailing slash ("/node_modules/"). See MatchPath.
type Matcher interface {
	Excludes(path string) bool
}

// Nop excludes nothing.
type Nop struct{}

func (Nop) Excludes(string) bool { return false }

// Rules is an ordered set of literal substring rules.
type Rules struct {
	Source   string   // File the rules were read from, if any.
	Patterns []string // Non-empty, non-comment lines in file order.
}

// Parse builds Rules from raw ignore file lines, dropping blank lines and
// lines starting with '#'.
func Parse(lines []string) *Rules {
	r := &Rules{}
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.Patterns = append(r.Patterns, line)
	}
	return r
}

// Load reads <dir>/.gitignore once. When the file does not exist it returns
// ErrNoIgnoreFile wrapped in a KindIgnoreFileAbsent error.
func Load(dir string) (*Rules, error) {
	path := filepath.Join(dir, FileName)
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	r := Parse(lines)
	r.Source = path
	return r, nil
}

// Excludes reports whether any rule is a substring of path.
// A nil *Rules excludes nothing.
func (r *Rules) Excludes(path string) bool {
	if r == nil {
		return false
	}
	return IsExcluded(path, r.Patterns)
}

// IsExcluded reports whether any rule string appears in candidate.
func IsExcluded(candidate string, rules []string) bool {
	for _, rule := range rules {
		if rule != "" && strings.Contains(candidate, rule) {
			return true
		}
	}
	return false
}

// LoadMatcher loads the ignore file under dir and compiles it for mode.
// An absent ignore file yields Nop and no error.
func LoadMatcher(dir string, mode Mode, logger *zap.Logger) (Matcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path := filepath.Join(dir, FileName)
	lines, err := readLines(path)
	if errors.Is(err, ErrNoIgnoreFile) {
		logger.Debug("No ignore file found, nothing will be filtered", zap.String("filePath", path))
		return Nop{}, nil
	}
	if err != nil {
		logger.Error("Failed to read ignore file", zap.String("filePath", path), zap.Error(err))
		return nil, err
	}

	switch mode {
	case ModeGlob:
		gi := NewGlobRules(logger)
		gi.CompileIgnoreLines(lines...)
		logger.Debug("Compiled glob ignore patterns", zap.String("filePath", path), zap.Int("patternCount", len(gi.Patterns)))
		return gi, nil
	default:
		r := Parse(lines)
		r.Source = path
		logger.Debug("Loaded substring ignore rules", zap.String("filePath", path), zap.Int("ruleCount", len(r.Patterns)))
		return r, nil
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New("ignore.load", apperr.KindIgnoreFileAbsent, path, ErrNoIgnoreFile)
		}
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", path, err)
	}
	return lines, nil
}

// MatchPath returns the form under which the entry at rel, relative to the
// target root, is handed to a Matcher. The leading slash lets rules such as
// "/build" match top-level entries without seeing the root's own path.
func MatchPath(rel string, isDir bool) string {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "." {
		rel = ""
	}
	p := "/" + rel
	if isDir && rel != "" {
		p += "/"
	}
	return p
}
