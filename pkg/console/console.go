// Package console prints the short, colored status lines shown to the user.
// Structured diagnostics go through zap instead.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))  // green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
)

// Printer writes styled lines to Out. Styling is dropped when Plain is set.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	Plain bool
}

// New returns a Printer on stdout/stderr, plain when stdout is not a terminal.
func New() *Printer {
	return &Printer{
		Out:   os.Stdout,
		Err:   os.Stderr,
		Plain: !term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (p *Printer) Success(text string) { p.line(p.Out, successStyle, text) }
func (p *Printer) Info(text string)    { p.line(p.Out, infoStyle, text) }
func (p *Printer) Warning(text string) { p.line(p.Err, warningStyle, text) }
func (p *Printer) Error(text string)   { p.line(p.Err, errorStyle, text) }

func (p *Printer) line(w io.Writer, style lipgloss.Style, text string) {
	if w == nil {
		return
	}
	if p.Plain {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintln(w, style.Render(text))
}
