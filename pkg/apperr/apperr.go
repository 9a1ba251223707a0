// Package apperr classifies the failures a codehelper run can hit and maps
// them to process exit codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a coarse-grained categorization for errors.
type Kind string

const (
	KindModuleNotFound       Kind = "module_not_found"
	KindPathUnresolvable     Kind = "path_unresolvable"
	KindIgnoreFileAbsent     Kind = "ignore_file_absent"
	KindExternalToolMissing  Kind = "external_tool_missing"
	KindFileReadFailure      Kind = "file_read_failure"
	KindClipboardUnavailable Kind = "clipboard_unavailable"
	KindOutputWriteFailure   Kind = "output_write_failure"
)

// Exit codes returned by the CLI for each fatal kind.
const (
	ExitOK                  = 0
	ExitUsage               = 1
	ExitModuleNotFound      = 2
	ExitPathUnresolvable    = 3
	ExitExternalToolMissing = 4
	ExitOutputWriteFailure  = 5
)

// Error wraps an underlying error with operation context and a kind.
type Error struct {
	Op   string
	Kind Kind
	Path string // Optional: relevant file path or module name
	Err  error
}

// New builds an *Error. err may be nil.
func New(op string, kind Kind, path string, err error) *Error {
	return &Error{Op: op, Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// ExitCode maps err to the process exit code. Non-fatal kinds map to ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindModuleNotFound:
		return ExitModuleNotFound
	case KindPathUnresolvable:
		return ExitPathUnresolvable
	case KindExternalToolMissing:
		return ExitExternalToolMissing
	case KindOutputWriteFailure:
		return ExitOutputWriteFailure
	case KindIgnoreFileAbsent, KindFileReadFailure, KindClipboardUnavailable:
		return ExitOK
	default:
		return ExitUsage
	}
}
