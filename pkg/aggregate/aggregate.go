// Package aggregate walks a target directory and concatenates the matching
// source files, a directory tree and terminal context into one text document.
package aggregate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codehelper/pkg/apperr"
	"codehelper/pkg/ignore"
	"codehelper/pkg/locator"
	"codehelper/pkg/tree"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Separator divides the top-level sections of the document.
const Separator = "============================================="

// DefaultExtensions are aggregated when Aggregator.Extensions is empty.
var DefaultExtensions = []string{".py", ".js", ".java", ".cpp", ".h", ".c", ".cs", ".html", ".css"}

// EnvReporter renders the terminal footer.
type EnvReporter interface {
	Report(ctx context.Context) string
}

// Aggregator builds the combined document for a Target.
type Aggregator struct {
	Tree       tree.Renderer
	Env        EnvReporter
	Extensions []string
	OutputDir  string
	Logger     *zap.Logger
}

// Result describes one aggregation run.
type Result struct {
	OutputPath string
	Files      []string // Paths included, in document order.
	Ignored    int      // Files excluded by ignore rules.
	Unmatched  int      // Files whose extension is not recognized.
	Bytes      int64    // Size of the written document.
	// FileErrors combines the per-file read failures; nil when none.
	FileErrors error
}

// OutputPath returns where the document for name is written.
func (a *Aggregator) OutputPath(name string) (string, error) {
	dir, err := filepath.Abs(a.OutputDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".txt"), nil
}

// Run renders the tree, walks target.Dir and writes the document. Tree and
// output failures abort the run; unreadable files are logged and skipped.
func (a *Aggregator) Run(ctx context.Context, target locator.Target, m ignore.Matcher) (*Result, error) {
	startTime := time.Now()
	logger := a.logger().With(zap.String("target", target.Name))
	logger.Info("Starting aggregation", zap.String("directory", target.Dir))

	if m == nil {
		m = ignore.Nop{}
	}

	outputPath, err := a.OutputPath(target.Name)
	if err != nil {
		return nil, apperr.New("aggregate.output", apperr.KindOutputWriteFailure, a.OutputDir, err)
	}

	treeText, err := a.Tree.Render(ctx, target.Dir, m)
	if err != nil {
		logger.Error("Failed to render tree", zap.Error(err))
		return nil, fmt.Errorf("failed to render tree: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		logger.Error("Failed to create output directory", zap.String("path", filepath.Dir(outputPath)), zap.Error(err))
		return nil, apperr.New("aggregate.output", apperr.KindOutputWriteFailure, filepath.Dir(outputPath), err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", outputPath), zap.Error(err))
		return nil, apperr.New("aggregate.output", apperr.KindOutputWriteFailure, outputPath, err)
	}

	res := &Result{OutputPath: outputPath}
	cw := &countingWriter{w: outFile}
	doc := &document{w: bufio.NewWriter(cw)}

	doc.header(target.Name, treeText)
	if doc.err == nil {
		a.walk(target.Dir, outputPath, m, doc, res, logger)
	}
	doc.footer(ctx, a.Env)

	if doc.err == nil {
		doc.err = doc.w.Flush()
	}
	if cerr := outFile.Close(); doc.err == nil {
		doc.err = cerr
	}
	if doc.err != nil {
		logger.Error("Failed to write output file", zap.String("file", outputPath), zap.Error(doc.err))
		return nil, apperr.New("aggregate.write", apperr.KindOutputWriteFailure, outputPath, doc.err)
	}
	res.Bytes = cw.n

	logger.Info("Aggregation completed",
		zap.String("outputFile", outputPath),
		zap.Int("totalFiles", len(res.Files)),
		zap.Int("ignoredFiles", res.Ignored),
		zap.Int("failedFiles", len(multierr.Errors(res.FileErrors))),
		zap.Duration("elapsed", time.Since(startTime)))
	return res, nil
}

// walk appends one section per matching file. WalkDir visits entries in
// lexical order, so the document is reproducible.
func (a *Aggregator) walk(root, outputPath string, m ignore.Matcher, doc *document, res *Result, logger *zap.Logger) {
	exts := a.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if doc.err != nil {
			return doc.err
		}
		if err != nil {
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			if path == root {
				return err
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if m.Excludes(ignore.MatchPath(relPath, true)) {
				logger.Debug("Skipping ignored directory", zap.String("directory", path))
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}

		if m.Excludes(ignore.MatchPath(relPath, false)) {
			res.Ignored++
			logger.Debug("File matches ignore rule", zap.String("file", path))
			return nil
		}
		if filepath.Clean(path) == outputPath {
			logger.Debug("Skipping output file", zap.String("file", path))
			return nil
		}
		if !HasExtension(d.Name(), exts) {
			res.Unmatched++
			return nil
		}

		content, err := ReadText(path)
		if err != nil {
			logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
			res.FileErrors = multierr.Append(res.FileErrors,
				apperr.New("aggregate.read", apperr.KindFileReadFailure, path, err))
			return nil
		}

		doc.section(path, content)
		res.Files = append(res.Files, path)
		return nil
	})
	if err != nil && doc.err == nil {
		logger.Error("Error during file traversal", zap.Error(err))
		res.FileErrors = multierr.Append(res.FileErrors,
			apperr.New("aggregate.walk", apperr.KindFileReadFailure, root, err))
	}
}

// HasExtension reports whether name ends with one of exts.
func HasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ReadDocument reads a written document back, e.g. for the clipboard.
func ReadDocument(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read back %s: %w", path, err)
	}
	return string(b), nil
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
