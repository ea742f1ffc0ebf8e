// Package progressview renders a single-line completion bar for a
// dispatch run. It deliberately stays out of the bubbletea event
// loop: a pssh run already has its own driver (the dispatcher's
// result channel), so this package only needs the static rendering
// half of the bubbles progress component, redrawn on a carriage
// return as results arrive.
package progressview

import (
	"fmt"
	"io"

	"charm.land/bubbles/v2/progress"
	"charm.land/lipgloss/v2"
)

// Bar renders a completion bar to an io.Writer, one line at a time.
type Bar struct {
	model progress.Model
	out   io.Writer
	label lipgloss.Style
}

// New returns a Bar that writes to out.
func New(out io.Writer) *Bar {
	return &Bar{
		model: progress.New(progress.WithDefaultGradient()),
		out:   out,
		label: lipgloss.NewStyle().Faint(true),
	}
}

// Draw redraws the bar in place to reflect done completed out of
// total. It is safe to call from the same goroutine that drains the
// dispatcher's result channel, once per response.
func (b *Bar) Draw(done, total int) {
	if total <= 0 {
		return
	}
	pct := float64(done) / float64(total)
	if pct > 1 {
		pct = 1
	}
	bar := b.model.ViewAs(pct)
	fmt.Fprintf(b.out, "\r%s %s", bar, b.label.Render(fmt.Sprintf("%d/%d", done, total)))
}

// Done finishes the bar, moving the cursor to a fresh line.
func (b *Bar) Done() {
	fmt.Fprintln(b.out)
}
