// Package clipboard copies the finished document to the system clipboard.
package clipboard

import (
	"errors"

	"codehelper/pkg/apperr"

	"github.com/atotto/clipboard"
)

// Sink receives the final document text.
type Sink interface {
	Copy(text string) error
}

// System writes to the OS clipboard (pbcopy, xclip/xsel/wl-copy, or the
// Windows API, depending on platform).
type System struct{}

// Copy writes text verbatim. Failures are KindClipboardUnavailable errors.
func (System) Copy(text string) error {
	if clipboard.Unsupported {
		return apperr.New("clipboard.copy", apperr.KindClipboardUnavailable, "",
			errors.New("no clipboard utility found"))
	}
	if err := clipboard.WriteAll(text); err != nil {
		return apperr.New("clipboard.copy", apperr.KindClipboardUnavailable, "", err)
	}
	return nil
}

// Discard drops the text. Used when clipboard copying is turned off.
type Discard struct{}

func (Discard) Copy(string) error { return nil }
