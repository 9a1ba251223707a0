package cmd

import (
	"errors"
	"fmt"

	"codehelper/pkg/apperr"
)

// statusLine turns a failure into the one-line message shown to the user.
// The structured error still goes to the log.
func statusLine(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case apperr.KindModuleNotFound:
		return fmt.Sprintf("The module %s does not exist.", e.Path)
	case apperr.KindPathUnresolvable:
		return fmt.Sprintf("The path %s could not be resolved to a directory.", e.Path)
	case apperr.KindExternalToolMissing:
		return fmt.Sprintf("The required tool %s is not available. Install it or use --tree-mode native.", e.Path)
	case apperr.KindOutputWriteFailure:
		return fmt.Sprintf("Could not write the combined file %s.", e.Path)
	default:
		return err.Error()
	}
}
