// Package ui renders per-item progress and outcome lines. A single Printer
// is created at run start and passed explicitly to every component that
// logs, replacing the process-wide logging the pipeline used to rely on.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes, blanked when the output is not a terminal.
const (
	codeReset  = "\033[0m"
	codeRed    = "\033[91m"
	codeGreen  = "\033[92m"
	codeYellow = "\033[93m"
	codeBlue   = "\033[94m"
	codeCyan   = "\033[96m"
)

// Unicode symbols
const (
	symbolCheck    = "✓"
	symbolCross    = "✗"
	symbolInfo     = "ℹ"
	symbolWarning  = "⚠"
	symbolDownload = "⬇"
	symbolMusic    = "♪"
)

// Printer writes colorized status lines and a single-line download
// progress indicator. It also counts errors and warnings for the run
// footer.
type Printer struct {
	out      io.Writer
	color    bool
	errors   int
	warnings int

	// progressLive is true while the last write was an unterminated
	// progress line that the next message must move past.
	progressLive bool
}

// NewPrinter returns a Printer on w. Color and in-place progress rendering
// are enabled only when w is os.Stdout connected to a terminal.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: w, color: color}
}

// NewPlainPrinter returns a Printer with color and progress rewriting
// forced off, for tests and piped output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) paint(code, symbol, msg string) {
	p.endProgress()
	if p.color {
		fmt.Fprintf(p.out, "%s%s%s %s\n", code, symbol, codeReset, msg)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", symbol, msg)
}

// Successf prints a green check line.
func (p *Printer) Successf(format string, a ...any) {
	p.paint(codeGreen, symbolCheck, fmt.Sprintf(format, a...))
}

// Errorf prints a red cross line and bumps the error counter.
func (p *Printer) Errorf(format string, a ...any) {
	p.errors++
	p.paint(codeRed, symbolCross, fmt.Sprintf(format, a...))
}

// Infof prints a blue info line.
func (p *Printer) Infof(format string, a ...any) {
	p.paint(codeBlue, symbolInfo, fmt.Sprintf(format, a...))
}

// Warnf prints a yellow warning line and bumps the warning counter.
func (p *Printer) Warnf(format string, a ...any) {
	p.warnings++
	p.paint(codeYellow, symbolWarning, fmt.Sprintf(format, a...))
}

// Downloadf prints a cyan download line.
func (p *Printer) Downloadf(format string, a ...any) {
	p.paint(codeCyan, symbolDownload, fmt.Sprintf(format, a...))
}

// Musicf prints a green note line, used for per-item headers.
func (p *Printer) Musicf(format string, a ...any) {
	p.paint(codeGreen, symbolMusic, fmt.Sprintf(format, a...))
}

// Progress rewrites a single in-place line with percentage, speed and
// byte counts. On non-terminal output it stays silent: progress is an
// observable side effect, not part of the run record.
func (p *Printer) Progress(percentage int, speed, downloaded, total string) {
	if !p.color {
		return
	}
	if percentage > 100 {
		percentage = 100
	}
	fmt.Fprintf(p.out, "\r\033[K%3d%% @ %s/s, %s/%s ", percentage, speed, downloaded, total)
	p.progressLive = true
}

// endProgress terminates a live progress line so the next message starts
// on a fresh row.
func (p *Printer) endProgress() {
	if p.progressLive {
		fmt.Fprintln(p.out)
		p.progressLive = false
	}
}

// Errors returns how many error lines were printed during the run.
func (p *Printer) Errors() int { return p.errors }

// Warnings returns how many warning lines were printed during the run.
func (p *Printer) Warnings() int { return p.warnings }

// Rule prints a dim separator line.
func (p *Printer) Rule() {
	p.endProgress()
	fmt.Fprintln(p.out, strings.Repeat("─", 46))
}
