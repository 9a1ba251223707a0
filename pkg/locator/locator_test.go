package locator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"codehelper/pkg/apperr"
	"codehelper/pkg/runner"
)

type scriptedRunner struct {
	results []*runner.Result
	err     error
	calls   []runner.Command
}

func (s *scriptedRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	s.calls = append(s.calls, cmd)
	if s.err != nil {
		return nil, s.err
	}
	res := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return res, nil
}

func TestFromPath(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "myrepo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := FromPath(dir + string(filepath.Separator))
	if err != nil {
		t.Fatalf("FromPath returned error: %v", err)
	}
	if got.Dir != dir || got.Name != "myrepo" {
		t.Fatalf("unexpected target %+v", got)
	}
}

func TestFromPathErrors(t *testing.T) {
	tmp := t.TempDir()

	_, err := FromPath(filepath.Join(tmp, "missing"))
	if !apperr.IsKind(err, apperr.KindPathUnresolvable) {
		t.Fatalf("expected KindPathUnresolvable for missing dir, got %v", err)
	}

	file := filepath.Join(tmp, "f.py")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = FromPath(file)
	if !apperr.IsKind(err, apperr.KindPathUnresolvable) {
		t.Fatalf("expected KindPathUnresolvable for file, got %v", err)
	}
}

func TestFromWorkingDir(t *testing.T) {
	got, err := FromWorkingDir()
	if err != nil {
		t.Fatalf("FromWorkingDir returned error: %v", err)
	}
	wd, _ := os.Getwd()
	if got.Dir != filepath.Clean(wd) || got.Name != filepath.Base(wd) {
		t.Fatalf("unexpected target %+v", got)
	}
}

func TestResolvePackage(t *testing.T) {
	r := &scriptedRunner{results: []*runner.Result{{Stdout: "/go/pkg/mod/github.com/spf13/cobra@v1.8.1\n"}}}

	got, err := New(r, nil).Resolve(context.Background(), "github.com/spf13/cobra")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Dir != "/go/pkg/mod/github.com/spf13/cobra@v1.8.1" || got.Name != "github.com_spf13_cobra" {
		t.Fatalf("unexpected target %+v", got)
	}
	if len(r.calls) != 1 || r.calls[0].Name != "go" || r.calls[0].Args[1] != "-find" {
		t.Fatalf("unexpected calls %+v", r.calls)
	}
}

func TestResolveFallsBackToModule(t *testing.T) {
	r := &scriptedRunner{results: []*runner.Result{
		{ExitCode: 1, Stderr: "no required module provides package"},
		{Stdout: "/src/mod\n"},
	}}

	got, err := New(r, nil).Resolve(context.Background(), "example.com/mod")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Dir != "/src/mod" {
		t.Fatalf("unexpected dir %q", got.Dir)
	}
	if len(r.calls) != 2 || r.calls[1].Args[1] != "-m" {
		t.Fatalf("expected module lookup second, got %+v", r.calls)
	}
}

func TestResolveModuleNotFound(t *testing.T) {
	r := &scriptedRunner{results: []*runner.Result{{ExitCode: 1, Stderr: "not found"}}}

	_, err := New(r, nil).Resolve(context.Background(), "nope")
	if !apperr.IsKind(err, apperr.KindModuleNotFound) {
		t.Fatalf("expected KindModuleNotFound, got %v", err)
	}
}

func TestResolveEmptyDir(t *testing.T) {
	r := &scriptedRunner{results: []*runner.Result{{Stdout: "\n"}}}

	_, err := New(r, nil).Resolve(context.Background(), "example.com/uncached")
	if !apperr.IsKind(err, apperr.KindPathUnresolvable) {
		t.Fatalf("expected KindPathUnresolvable, got %v", err)
	}
}

func TestResolveGoToolMissing(t *testing.T) {
	missing := apperr.New("runner.lookpath", apperr.KindExternalToolMissing, "go", errors.New("not found"))
	r := &scriptedRunner{err: missing}

	_, err := New(r, nil).Resolve(context.Background(), "fmt")
	if !apperr.IsKind(err, apperr.KindExternalToolMissing) {
		t.Fatalf("expected KindExternalToolMissing, got %v", err)
	}
}

func TestResolveEmptyName(t *testing.T) {
	_, err := New(&scriptedRunner{}, nil).Resolve(context.Background(), "  ")
	if !apperr.IsKind(err, apperr.KindModuleNotFound) {
		t.Fatalf("expected KindModuleNotFound, got %v", err)
	}
}
