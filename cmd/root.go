package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"codehelper/pkg/aggregate"
	"codehelper/pkg/apperr"
	"codehelper/pkg/clipboard"
	"codehelper/pkg/config"
	"codehelper/pkg/console"
	"codehelper/pkg/envreport"
	"codehelper/pkg/ignore"
	"codehelper/pkg/locator"
	"codehelper/pkg/logging"
	"codehelper/pkg/runner"
	"codehelper/pkg/tree"
	"codehelper/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options lets callers replace the process-level collaborators.
type Options struct {
	Out       io.Writer
	Err       io.Writer
	Clipboard clipboard.Sink // nil selects the system clipboard
	Logger    *zap.Logger    // nil builds one from the --debug setting
}

// Execute runs the root command against os.Args and returns the error that
// ended it. Use apperr.ExitCode to map it to a process status.
func Execute() error {
	return NewRootCmd(Options{}).Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	rootCmd := &cobra.Command{
		Use:   "codehelper [module]",
		Short: "Combine a module's source files into one document for a coding assistant",
		Long: `codehelper collects the source files of a Go package or module, a directory
or the working directory into a single text file together with its directory
tree and a snapshot of the terminal, then copies the result to the clipboard.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd, args, opts)
		},
	}
	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)

	flags := rootCmd.Flags()
	flags.StringP("path", "p", "", "Aggregate this directory")
	flags.BoolP("current", "c", false, "Aggregate the current working directory")
	flags.StringP("output-dir", "o", "", "Directory the combined file is written to (default ~/.codehelper/module_files)")
	flags.StringSliceP("ext", "e", nil, "File extensions to include (default .py,.js,.java,.cpp,.h,.c,.cs,.html,.css)")
	flags.String("ignore-mode", string(ignore.ModeSubstring), "How .gitignore lines match paths: substring or glob")
	flags.String("tree-mode", string(tree.ModeExternal), "Tree renderer: external (the tree command) or native")
	flags.Bool("no-clipboard", false, "Do not copy the result to the clipboard")
	rootCmd.MarkFlagsMutuallyExclusive("path", "current")

	addTerminalFlags(rootCmd)
	pflags := rootCmd.PersistentFlags()
	pflags.String("config", "", "Config file (default $XDG_CONFIG_HOME/codehelper/config.yaml)")
	pflags.Duration("timeout", runner.DefaultTimeout, "Timeout for each external command")
	pflags.Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newTerminalCmd(opts), newVersionCmd())
	return rootCmd
}

// addTerminalFlags registers the flags shared by the root and terminal commands.
func addTerminalFlags(cmd *cobra.Command) {
	cmd.Flags().String("command", envreport.DefaultCommand, "Diagnostic command whose output is captured")
	cmd.Flags().Int("num_history", envreport.DefaultHistoryLimit, "Number of shell history entries to include")
}

// session holds the collaborators shared by a single command invocation.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	printer *console.Printer
	exec    *runner.Exec
}

func newSession(cmd *cobra.Command, opts Options) (*session, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, usageError(err)
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = logging.Setup(cfg.Debug, config.AppName, version.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	if cfg.ConfigFile != "" {
		logger.Debug("Loaded config file", zap.String("file", cfg.ConfigFile))
	}

	printer := console.New()
	printer.Out = opts.Out
	printer.Err = opts.Err

	return &session{
		cfg:     cfg,
		logger:  logger,
		printer: printer,
		exec:    runner.NewExec(cfg.Timeout, logger),
	}, nil
}

func (s *session) reporter() *envreport.Reporter {
	r := envreport.New(runner.NewShell(s.cfg.Timeout, s.logger), s.logger)
	r.Vars = s.cfg.EnvVars
	r.HistoryLimit = s.cfg.NumHistory
	r.Command = s.cfg.Command
	return r
}

func (s *session) renderer() tree.Renderer {
	if s.cfg.TreeMode == tree.ModeNative {
		return tree.NewNative(s.logger)
	}
	return tree.NewExternal(s.exec, s.logger)
}

func runAggregate(cmd *cobra.Command, args []string, opts Options) error {
	path, _ := cmd.Flags().GetString("path")
	current, _ := cmd.Flags().GetBool("current")

	selected := 0
	for _, set := range []bool{len(args) == 1, path != "", current} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return usageError(errors.New("specify exactly one of a module name, --path or --current"))
	}

	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := s.resolve(ctx, args, path, current)
	if err != nil {
		return s.fail(err)
	}
	s.logger.Debug("Resolved target", zap.String("name", target.Name), zap.String("directory", target.Dir))

	matcher, err := ignore.LoadMatcher(target.Dir, s.cfg.IgnoreMode, s.logger)
	if err != nil {
		return s.fail(err)
	}

	agg := &aggregate.Aggregator{
		Tree:       s.renderer(),
		Env:        s.reporter(),
		Extensions: s.cfg.Extensions,
		OutputDir:  s.cfg.OutputDir,
		Logger:     s.logger,
	}
	res, err := agg.Run(ctx, target, matcher)
	if err != nil {
		return s.fail(err)
	}
	for _, ferr := range multierr.Errors(res.FileErrors) {
		s.printer.Warning(fmt.Sprintf("Skipped: %v", ferr))
	}

	s.printer.Success(fmt.Sprintf("All code files have been combined into %s.txt", target.Name))
	s.copyToClipboard(res.OutputPath, opts)
	return nil
}

func (s *session) resolve(ctx context.Context, args []string, path string, current bool) (locator.Target, error) {
	switch {
	case path != "":
		return locator.FromPath(path)
	case current:
		return locator.FromWorkingDir()
	default:
		return locator.New(s.exec, s.logger).Resolve(ctx, args[0])
	}
}

// copyToClipboard reads the written document back and hands it to the sink.
// Failures only produce a warning.
func (s *session) copyToClipboard(outputPath string, opts Options) {
	if s.cfg.NoClipboard {
		s.logger.Debug("Clipboard copy disabled")
		return
	}
	sink := opts.Clipboard
	if sink == nil {
		sink = clipboard.System{}
	}

	text, err := aggregate.ReadDocument(outputPath)
	if err == nil {
		err = sink.Copy(text)
	}
	if err != nil {
		s.logger.Warn("Failed to copy to clipboard", zap.Error(err))
		s.printer.Warning(fmt.Sprintf("Could not copy to clipboard: %v", err))
		return
	}
	s.printer.Info("The combined file has been copied to the clipboard")
}

func (s *session) fail(err error) error {
	s.logger.Error("codehelper run failed", zap.Error(err), zap.Int("exitCode", apperr.ExitCode(err)))
	s.printer.Error(statusLine(err))
	return reportedErr{err: err}
}

// usageErr marks a bad invocation (exit status 1).
type usageErr struct{ err error }

func (u usageErr) Error() string { return u.err.Error() }
func (u usageErr) Unwrap() error { return u.err }

func usageError(err error) error { return usageErr{err: err} }

// IsUsageError reports whether err came from invalid flags or arguments.
func IsUsageError(err error) bool {
	var u usageErr
	return errors.As(err, &u)
}

// reportedErr marks an error already shown to the user.
type reportedErr struct{ err error }

func (r reportedErr) Error() string { return r.err.Error() }
func (r reportedErr) Unwrap() error { return r.err }

// IsReported reports whether err was already printed as a status line.
func IsReported(err error) bool {
	var r reportedErr
	return errors.As(err, &r)
}
