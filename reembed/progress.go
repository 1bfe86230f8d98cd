package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress prints a single self-overwriting status line for a run over a
// known number of items.
type Progress struct {
	mu       sync.Mutex
	w        io.Writer
	unit     string
	total    int
	every    int
	done     int
	reported int
	start    time.Time
}

// NewProgress reports to w at least every `every` items.
func NewProgress(w io.Writer, total, every int, unit string) *Progress {
	if w == nil {
		w = io.Discard
	}
	if every < 1 {
		every = 1
	}
	return &Progress{w: w, unit: unit, total: total, every: every, start: time.Now()}
}

// Add records n more finished items.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(p.done+n, p.total)
	if p.done-p.reported >= p.every {
		p.print()
		p.reported = p.done
	}
}

// Done returns how many items have finished.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish prints the final line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.print()
	fmt.Fprintln(p.w)
}

// Elapsed returns the time since the tracker was created.
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.start)
}

func (p *Progress) print() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	rate := float64(p.done) / max(time.Since(p.start).Seconds(), 1e-9)
	fmt.Fprintf(p.w, "\r%d/%d %s (%.1f%%) %.1f %s/s", p.done, p.total, p.unit, pct, rate, p.unit)
}
