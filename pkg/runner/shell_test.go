package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShellRun(t *testing.T) {
	s := NewShell(5*time.Second, nil)
	s.Env = []string{"GREETING=hi"}

	tests := []struct {
		name     string
		script   string
		stdout   string
		stderr   string
		exitCode int
	}{
		{"builtin echo", "echo hello", "hello\n", "", 0},
		{"env expansion", `echo "$GREETING there"`, "hi there\n", "", 0},
		{"stderr", "echo oops >&2", "", "oops\n", 0},
		{"exit status", "echo partial; exit 3", "partial\n", "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Run(context.Background(), Command{Script: tt.script, Dir: t.TempDir()})
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if res.Stdout != tt.stdout {
				t.Errorf("stdout = %q; want %q", res.Stdout, tt.stdout)
			}
			if res.Stderr != tt.stderr {
				t.Errorf("stderr = %q; want %q", res.Stderr, tt.stderr)
			}
			if res.ExitCode != tt.exitCode {
				t.Errorf("exit code = %d; want %d", res.ExitCode, tt.exitCode)
			}
		})
	}
}

func TestShellParseError(t *testing.T) {
	_, err := NewShell(time.Second, nil).Run(context.Background(), Command{Script: "if then fi ("})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestShellEmptyScript(t *testing.T) {
	if _, err := NewShell(time.Second, nil).Run(context.Background(), Command{}); err == nil {
		t.Fatalf("expected error for empty script")
	}
}

func TestShellTimeout(t *testing.T) {
	_, err := NewShell(100*time.Millisecond, nil).Run(context.Background(), Command{Script: "while true; do :; done"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
