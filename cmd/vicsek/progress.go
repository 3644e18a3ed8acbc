package main

import (
	"fmt"
	"sync"
)

// A meter prints progress as a percentage on the terminal.
// It is safe for concurrent use.
type meter struct {
	mu    sync.Mutex
	done  int
	total int
	label string
}

// newMeter returns a meter expecting total units of work.
func newMeter(total int) *meter {
	return &meter{total: total}
}

// Advance adds n units of completed work and redraws the meter.
func (p *meter) Advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	p.print()
}

// SetLabel replaces the text shown next to the percentage.
func (p *meter) SetLabel(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
	p.print()
}

// Done completes the meter and moves to a fresh line.
func (p *meter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("\r100%% %s\n", p.label)
}

func (p *meter) print() {
	if p.total <= 0 {
		return
	}
	// show progress as percentage
	fmt.Printf("\r% 3d%% %s", 100*p.done/p.total, p.label)
}
