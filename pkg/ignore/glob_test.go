package ignore

import "testing"

func TestGlobRules(t *testing.T) {
	gi := NewGlobRules(nil)
	gi.CompileIgnoreLines(
		"# comment",
		"*.log",
		"build/",
		"/vendor",
		"docs/**/draft.md",
		"!keep.log",
		`\#literal`,
	)

	tests := []struct {
		path     string
		expected bool
	}{
		{"app.log", true},
		{"nested/dir/app.log", true},
		{"keep.log", false},
		{"build/", true},
		{"build/out.js", true},
		{"src/build/out.js", true},
		{"build", false},
		{"vendor/x.go", true},
		{"third_party/vendor/x.go", false},
		{"docs/draft.md", true},
		{"docs/a/b/draft.md", true},
		{"src/main.py", false},
		{"#literal", true},
		{"/vendor/x.go", true},
		{"/third_party/vendor/x.go", false},
		{"/build/", true},
		{"/nested/app.log", true},
	}

	for _, tt := range tests {
		if got := gi.Excludes(tt.path); got != tt.expected {
			t.Errorf("Excludes(%q) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestGlobRulesReportsDecidingPattern(t *testing.T) {
	gi := NewGlobRules(nil)
	gi.CompileIgnoreLines("*.tmp", "!important.tmp")

	matched, p := gi.MatchesPathWithPattern("important.tmp")
	if matched {
		t.Fatalf("negated pattern should re-include the path")
	}
	if p == nil || p.LineNo != 2 || !p.Negate {
		t.Fatalf("unexpected deciding pattern: %+v", p)
	}

	var nilRules *GlobRules
	if ok, _ := nilRules.MatchesPathWithPattern("x"); ok {
		t.Fatalf("nil rules must not match")
	}
}

func TestGlobToRegexQuotesMeta(t *testing.T) {
	gi := NewGlobRules(nil)
	gi.CompileIgnoreLines("a+b.(c)")

	if !gi.Excludes("a+b.(c)") {
		t.Fatalf("expected literal match of regex metacharacters")
	}
	if gi.Excludes("aab.(c)") {
		t.Fatalf("'+' must not act as a quantifier")
	}
}
