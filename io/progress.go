package io

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const progressLabel = "Calculating field:"

var headingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FF763A"))

// Heading styles a status line for the console.
func Heading(s string) string { return headingStyle.Render(s) }

// Progress prints the fraction of a sweep which has completed. On a terminal
// it draws a progress bar, otherwise it overwrites a plain percentage.
type Progress struct {
	out  io.Writer
	bar  *progress.Model
	last int
}

// NewProgress returns a Progress writing to f, with a bar if f is a terminal.
func NewProgress(f *os.File) *Progress {
	p := NewPlainProgress(f)
	if term.IsTerminal(int(f.Fd())) {
		bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
		p.bar = &bar
	}
	return p
}

// NewPlainProgress returns a Progress which writes percentages to w.
func NewPlainProgress(w io.Writer) *Progress {
	return &Progress{out: w, last: -1}
}

// Update reports that done of total steps have finished. Repeated
// percentages are not redrawn.
func (p *Progress) Update(done, total int) {
	if total <= 0 {
		return
	}
	percent := 100 * done / total
	if percent == p.last {
		return
	}
	p.last = percent

	if p.bar != nil {
		fmt.Fprintf(p.out, "\r%s %s", progressLabel,
			p.bar.ViewAs(float64(done)/float64(total)))
	} else {
		fmt.Fprintf(p.out, "\r%s %d%%", progressLabel, percent)
	}
}

// Finish ends the progress line.
func (p *Progress) Finish() {
	if p.bar != nil {
		fmt.Fprintf(p.out, "\r%s %s\n\n", progressLabel, p.bar.ViewAs(1))
	} else {
		fmt.Fprintf(p.out, "\r%s 100%%.\n\n", progressLabel)
	}
}
