package ignore

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// IgnorePattern is one compiled glob rule.
type IgnorePattern struct {
	Pattern *regexp.Regexp // Compiled regular expression for the pattern.
	Negate  bool           // Pattern started with '!'.
	Line    string         // Original pattern line.
	LineNo  int            // Line number in the source (1-based).
}

// GlobRules matches paths with gitignore-like glob semantics. Later patterns
// override earlier ones, so a negated pattern can re-include a path.
type GlobRules struct {
	Patterns []*IgnorePattern
	logger   *zap.Logger
}

// NewGlobRules returns an empty rule set. A nil logger is replaced by a no-op one.
func NewGlobRules(logger *zap.Logger) *GlobRules {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GlobRules{logger: logger}
}

// CompileIgnoreLines compiles lines and appends them to the rule set.
// Blank lines, comments and invalid patterns are skipped.
func (gi *GlobRules) CompileIgnoreLines(lines ...string) {
	for i, line := range lines {
		pattern, negate := parsePatternLine(line)
		if pattern == nil {
			continue
		}
		ip := &IgnorePattern{
			Pattern: pattern,
			Negate:  negate,
			Line:    line,
			LineNo:  i + 1,
		}
		gi.Patterns = append(gi.Patterns, ip)
		gi.logger.Debug("Compiled ignore pattern",
			zap.Int("lineNo", ip.LineNo),
			zap.String("pattern", ip.Line),
			zap.Bool("negate", ip.Negate))
	}
}

// Excludes reports whether path is ignored after applying every pattern.
func (gi *GlobRules) Excludes(path string) bool {
	matches, _ := gi.MatchesPathWithPattern(path)
	return matches
}

// MatchesPathWithPattern reports whether path is ignored and which pattern
// decided it.
func (gi *GlobRules) MatchesPathWithPattern(path string) (bool, *IgnorePattern) {
	if gi == nil {
		return false, nil
	}
	normalized := strings.TrimPrefix(filepath.ToSlash(path), "./")
	normalized = strings.TrimPrefix(normalized, "/")

	var matchedPattern *IgnorePattern
	matches := false
	for _, pattern := range gi.Patterns {
		if pattern.Pattern.MatchString(normalized) {
			matchedPattern = pattern
			matches = !pattern.Negate
		}
	}
	return matches, matchedPattern
}

// parsePatternLine turns one ignore line into an anchored regexp and a
// negation flag. It returns nil for blank lines and comments.
func parsePatternLine(line string) (*regexp.Regexp, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}

	negate := false
	if strings.HasPrefix(trimmed, "!") {
		negate = true
		trimmed = strings.TrimPrefix(trimmed, "!")
	}

	// "\#" and "\!" escape a literal leading character.
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}

	dirOnly := strings.HasSuffix(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")

	rooted := strings.HasPrefix(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil, false
	}

	compiled, err := regexp.Compile(anchorPattern(globToRegex(trimmed), rooted, dirOnly))
	if err != nil {
		return nil, false
	}
	return compiled, negate
}

// globToRegex converts '*', '?' and '**' wildcards; everything else is quoted.
func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				b.WriteString(`(.*/)?`)
				i += 2
			} else {
				b.WriteString(`.*`)
				i++
			}
		case c == '*':
			b.WriteString(`[^/]*`)
		case c == '?':
			b.WriteString(`[^/]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// anchorPattern matches the pattern as a whole path component sequence and
// everything below it.
func anchorPattern(pattern string, rooted, dirOnly bool) string {
	if dirOnly {
		pattern += `/.*$`
	} else {
		pattern += `(/.*)?$`
	}
	if rooted {
		return "^" + pattern
	}
	return "^(.*/)?" + pattern
}
