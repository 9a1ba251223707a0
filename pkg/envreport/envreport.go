// Package envreport captures terminal context: working directory, selected
// environment variables, recent shell history and the output of a diagnostic
// command.
package envreport

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"codehelper/pkg/runner"

	"go.uber.org/zap"
)

// Defaults used when a Reporter field is left empty.
var (
	DefaultVars         = []string{"PWD", "HOME", "USER", "SHELL", "TERM", "PATH"}
	DefaultHistoryLimit = 10
	DefaultCommand      = "ls -la"
)

// NotSet is printed for allowlisted variables that are unset.
const NotSet = "Not set"

// zsh extended history lines look like ": 1700000000:0;git status".
var zshTimestamp = regexp.MustCompile(`^: \d+:\d+;`)

// Reporter renders the terminal footer. Lookup functions default to the
// os package and can be replaced in tests.
type Reporter struct {
	Runner       runner.Runner
	Vars         []string
	HistoryLimit int
	Command      string
	Logger       *zap.Logger

	Getenv    func(string) (string, bool)
	Getwd     func() (string, error)
	HomeDir   func() (string, error)
	ReadLines func(path string) ([]string, error)
}

// New returns a Reporter using r for the diagnostic command.
func New(r runner.Runner, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		Runner:       r,
		Vars:         DefaultVars,
		HistoryLimit: DefaultHistoryLimit,
		Command:      DefaultCommand,
		Logger:       logger,
	}
}

// Report renders every section in the order they appear in the document.
func (r *Reporter) Report(ctx context.Context) string {
	var b strings.Builder
	b.WriteString(r.CurrentDirectory() + "\n\n")
	b.WriteString(r.EnvironmentVars() + "\n")
	b.WriteString(r.ShellHistory() + "\n")
	b.WriteString("\nLast Command Output:\n")
	b.WriteString(r.RunAndCapture(ctx, r.command()))
	b.WriteString("\n\n")
	return b.String()
}

// Terminal renders the standalone terminal report. The diagnostic command
// runs only when runCommand is set.
func (r *Reporter) Terminal(ctx context.Context, runCommand bool) string {
	var b strings.Builder
	b.WriteString(r.CurrentDirectory() + "\n")
	b.WriteString("\n" + r.EnvironmentVars() + "\n")
	b.WriteString("\n" + r.ShellHistory() + "\n")
	if runCommand {
		b.WriteString("\n" + r.RunAndCapture(ctx, r.command()) + "\n")
	}
	return b.String()
}

// CurrentDirectory renders the working directory line.
func (r *Reporter) CurrentDirectory() string {
	wd, err := r.getwd()
	if err != nil {
		r.logger().Warn("Failed to get working directory", zap.Error(err))
		return fmt.Sprintf("Current Directory: unknown (%v)", err)
	}
	return "Current Directory: " + wd
}

// EnvironmentVars renders "NAME: value" for each allowlisted variable.
func (r *Reporter) EnvironmentVars() string {
	vars := r.Vars
	if vars == nil {
		vars = DefaultVars
	}

	var b strings.Builder
	b.WriteString("Environment Variables:\n")
	for _, name := range vars {
		value, ok := r.getenv(name)
		if !ok {
			value = NotSet
		}
		fmt.Fprintf(&b, "%s: %s\n", name, value)
	}
	return b.String()
}

// HistoryFile picks ~/.zsh_history for zsh users and ~/.bash_history otherwise.
func (r *Reporter) HistoryFile() (string, error) {
	home, err := r.homeDir()
	if err != nil {
		return "", err
	}
	if r.isZsh() {
		return filepath.Join(home, ".zsh_history"), nil
	}
	return filepath.Join(home, ".bash_history"), nil
}

// ShellHistory renders the last HistoryLimit commands in chronological order.
func (r *Reporter) ShellHistory() string {
	path, err := r.HistoryFile()
	if err != nil {
		return fmt.Sprintf("Failed to retrieve shell history.\nError:\n%v", err)
	}

	lines, err := r.readLines(path)
	if os.IsNotExist(err) {
		return "No history file found."
	}
	if err != nil {
		r.logger().Warn("Failed to read shell history", zap.String("file", path), zap.Error(err))
		return fmt.Sprintf("Failed to retrieve shell history.\nError:\n%v", err)
	}

	cmds := LastCommands(lines, r.historyLimit())
	return "Recent Commands:\n" + strings.Join(cmds, "\n")
}

// LastCommands returns up to n commands from the end of lines, oldest first.
// zsh timestamp prefixes, blank lines and comments are dropped.
func LastCommands(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}

	var newestFirst []string
	for i := len(lines) - 1; i >= 0 && len(newestFirst) < n; i-- {
		line := zshTimestamp.ReplaceAllString(strings.TrimSpace(lines[i]), "")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		newestFirst = append(newestFirst, line)
	}

	cmds := make([]string, len(newestFirst))
	for i, c := range newestFirst {
		cmds[len(newestFirst)-1-i] = c
	}
	return cmds
}

// RunAndCapture runs command through the Runner and renders its output or
// its failure.
func (r *Reporter) RunAndCapture(ctx context.Context, command string) string {
	if r.Runner == nil {
		return "Command could not be run: no runner configured"
	}

	res, err := r.Runner.Run(ctx, runner.Command{Script: command})
	if err != nil {
		r.logger().Warn("Diagnostic command could not be run", zap.String("command", command), zap.Error(err))
		return fmt.Sprintf("Command could not be run: %v", err)
	}
	if !res.Success() {
		return fmt.Sprintf("Command failed with exit code %d.\nOutput:\n%s\nError:\n%s", res.ExitCode, res.Stdout, res.Stderr)
	}
	return fmt.Sprintf("Command Output:\n%s\nError Output:\n%s", res.Stdout, res.Stderr)
}

func (r *Reporter) isZsh() bool {
	if _, ok := r.getenv("ZSH_VERSION"); ok {
		return true
	}
	shell, _ := r.getenv("SHELL")
	return filepath.Base(shell) == "zsh"
}

func (r *Reporter) command() string {
	if r.Command == "" {
		return DefaultCommand
	}
	return r.Command
}

func (r *Reporter) historyLimit() int {
	if r.HistoryLimit <= 0 {
		return DefaultHistoryLimit
	}
	return r.HistoryLimit
}

func (r *Reporter) getenv(name string) (string, bool) {
	if r.Getenv != nil {
		return r.Getenv(name)
	}
	return os.LookupEnv(name)
}

func (r *Reporter) getwd() (string, error) {
	if r.Getwd != nil {
		return r.Getwd()
	}
	return os.Getwd()
}

func (r *Reporter) homeDir() (string, error) {
	if r.HomeDir != nil {
		return r.HomeDir()
	}
	return os.UserHomeDir()
}

func (r *Reporter) readLines(path string) ([]string, error) {
	if r.ReadLines != nil {
		return r.ReadLines(path)
	}
	return readLines(path)
}

func (r *Reporter) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// readLines reads path leniently; zsh history may hold metafied bytes.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.ToValidUTF8(scanner.Text(), ""))
	}
	return lines, scanner.Err()
}
