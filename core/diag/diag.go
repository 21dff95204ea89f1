// Package diag prints single line diagnostics prefixed with the program name.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Color modes accepted by New.
const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

// Printer writes "PROGRAM: MESSAGE" lines.
type Printer struct {
	w       io.Writer
	program string
	prefix  *color.Color
}

// New creates a Printer writing to w. With ColorAuto the program name is
// colored only if w is a terminal.
func New(w io.Writer, program, colorMode string) *Printer {
	prefix := color.New(color.FgRed, color.Bold)
	if ShouldColor(w, colorMode) {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}
	return &Printer{w: w, program: program, prefix: prefix}
}

// ShouldColor resolves a color mode against the stream it applies to.
func ShouldColor(w io.Writer, colorMode string) bool {
	switch colorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}

// Printf writes one diagnostic line.
func (p *Printer) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", p.prefix.Sprintf("%s:", p.program), fmt.Sprintf(format, a...))
}

// Error writes err as a diagnostic line.
func (p *Printer) Error(err error) {
	p.Printf("%s", err)
}
