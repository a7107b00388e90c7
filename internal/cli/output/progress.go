package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar reports how many items of a paged listing were fetched.
// With an unknown total only the count is shown.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int
	current int
	width   int
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar; total <= 0 means unknown.
func NewProgressBar(w io.Writer, title string, total int) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 30,
	}
}

// Add records n more items.
func (p *ProgressBar) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// Finish ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d)", p.title, bar, percent*100, p.current, p.total)
}
