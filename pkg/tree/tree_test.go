package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codehelper/pkg/apperr"
	"codehelper/pkg/ignore"
	"codehelper/pkg/runner"
)

// fakeTree writes a canned listing to the -o argument, the way `tree -o` does.
type fakeTree struct {
	listing  string
	exitCode int
	missing  bool
	outPath  string
	calls    []runner.Command
}

func (f *fakeTree) Available(name string) error {
	if f.missing {
		return apperr.New("runner.lookpath", apperr.KindExternalToolMissing, name, errors.New("not found"))
	}
	return nil
}

func (f *fakeTree) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	f.calls = append(f.calls, cmd)
	for i, a := range cmd.Args {
		if a == "-o" && i+1 < len(cmd.Args) {
			f.outPath = cmd.Args[i+1]
			if err := os.WriteFile(f.outPath, []byte(f.listing), 0o644); err != nil {
				return nil, err
			}
		}
	}
	return &runner.Result{ExitCode: f.exitCode}, nil
}

const sampleListing = `/repo
├── a.py
├── b.txt
└── node_modules
    └── x.js

1 directory, 3 files
`

func TestExternalFiltersAndRemovesCapture(t *testing.T) {
	f := &fakeTree{listing: sampleListing}
	r := NewExternal(f, nil)

	out, err := r.Render(context.Background(), "/repo", ignore.Parse([]string{"b.txt", "node_modules"}))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if strings.Contains(out, "b.txt") || strings.Contains(out, "node_modules") {
		t.Fatalf("ignored entries leaked into tree:\n%s", out)
	}
	if !strings.Contains(out, "├── a.py") {
		t.Fatalf("expected a.py in tree:\n%s", out)
	}
	if strings.Contains(out, "x.js") {
		t.Fatalf("children of an ignored directory must be dropped:\n%s", out)
	}

	if len(f.calls) != 1 || f.calls[0].Name != "tree" || f.calls[0].Args[0] != "/repo" {
		t.Fatalf("unexpected tree invocation: %+v", f.calls)
	}
	if _, err := os.Stat(f.outPath); !os.IsNotExist(err) {
		t.Fatalf("expected capture file %s to be removed, stat err=%v", f.outPath, err)
	}
}

func TestFilterLinesMatchesRebuiltPaths(t *testing.T) {
	listing := "/repo\n" +
		"├── a.py\n" +
		"├── build\n" +
		"│   └── gen.py\n" +
		"├── lib\n" +
		"│   ├── a.py\n" +
		"│   └── b.py\n" +
		"├── node_modules\n" +
		"│   └── pkg\n" +
		"│       └── dep.js\n" +
		"└── src\n" +
		"    └── rebuild.py\n" +
		"\n" +
		"5 directories, 7 files\n"

	out := FilterLines(listing, ignore.Parse([]string{"node_modules", "lib/b.py", "/build"}))

	want := "/repo\n" +
		"├── a.py\n" +
		"├── lib\n" +
		"│   ├── a.py\n" +
		"└── src\n" +
		"    └── rebuild.py\n" +
		"\n" +
		"5 directories, 7 files\n"
	if out != want {
		t.Fatalf("FilterLines mismatch\n got: %q\nwant: %q", out, want)
	}
}

func TestFilterLinesNonBreakingIndent(t *testing.T) {
	// tree 1.8+ indents with U+00A0.
	listing := "/repo\n" +
		"├── keep\n" +
		"│\u00a0\u00a0 └── x.py\n" +
		"└── vendor\n" +
		"    └── lib\n" +
		"        └── y.py\n"

	out := FilterLines(listing, ignore.Parse([]string{"keep/x.py", "/vendor/"}))

	want := "/repo\n├── keep\n"
	if out != want {
		t.Fatalf("FilterLines = %q; want %q", out, want)
	}
}

func TestFilterLinesASCIICharset(t *testing.T) {
	listing := "/repo\n" +
		"|-- dist\n" +
		"|   `-- app.js\n" +
		"`-- main.js\n"

	gi := ignore.NewGlobRules(nil)
	gi.CompileIgnoreLines("dist/")
	out := FilterLines(listing, gi)

	want := "/repo\n`-- main.js\n"
	if out != want {
		t.Fatalf("FilterLines = %q; want %q", out, want)
	}
}

func TestExternalMissingTool(t *testing.T) {
	f := &fakeTree{missing: true}
	_, err := NewExternal(f, nil).Render(context.Background(), "/repo", nil)
	if !apperr.IsKind(err, apperr.KindExternalToolMissing) {
		t.Fatalf("expected KindExternalToolMissing, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("tree must not run when unavailable")
	}
}

func TestExternalNonZeroExit(t *testing.T) {
	f := &fakeTree{exitCode: 127}
	_, err := NewExternal(f, nil).Render(context.Background(), "/repo", nil)
	if err == nil {
		t.Fatalf("expected error on non-zero exit")
	}
}

func TestFilterLinesNilMatcher(t *testing.T) {
	if got := FilterLines(sampleListing, nil); got != sampleListing {
		t.Fatalf("nil matcher must not change listing")
	}
}

func TestNativeRender(t *testing.T) {
	tmp := t.TempDir()
	mustWrite(t, filepath.Join(tmp, "a.py"), "x=1")
	mustWrite(t, filepath.Join(tmp, "b.txt"), "skip")
	mustWrite(t, filepath.Join(tmp, "Zeta.c"), "")
	mustWrite(t, filepath.Join(tmp, ".gitignore"), "b.txt\n")
	mustWrite(t, filepath.Join(tmp, "src", "main.js"), "")

	out, err := NewNative(nil).Render(context.Background(), tmp, ignore.Parse([]string{"b.txt"}))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	want := tmp + "\n" +
		"├── src\n" +
		"│   └── main.js\n" +
		"├── a.py\n" +
		"└── Zeta.c\n" +
		"\n1 directory, 3 files\n"
	if out != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", out, want)
	}
}

func TestNativeSkipsIgnoredDirectories(t *testing.T) {
	tmp := t.TempDir()
	mustWrite(t, filepath.Join(tmp, "build", "out.js"), "")
	mustWrite(t, filepath.Join(tmp, "keep.py"), "")

	gi := ignore.NewGlobRules(nil)
	gi.CompileIgnoreLines("build/")

	out, err := NewNative(nil).Render(context.Background(), tmp, gi)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(out, "build") || strings.Contains(out, "out.js") {
		t.Fatalf("ignored directory leaked into tree:\n%s", out)
	}
	if !strings.Contains(out, "└── keep.py") {
		t.Fatalf("expected keep.py:\n%s", out)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeExternal {
		t.Fatalf("ParseMode(\"\") = %q, %v", m, err)
	}
	if m, err := ParseMode("native"); err != nil || m != ModeNative {
		t.Fatalf("ParseMode(native) = %q, %v", m, err)
	}
	if _, err := ParseMode("ascii"); err == nil {
		t.Fatalf("expected error")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
