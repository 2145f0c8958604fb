package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// progressPrinter renders a single self-overwriting status line. It writes
// to stderr in practice so JSON on stdout stays parseable.
type progressPrinter struct {
	w        io.Writer
	total    int
	mu       sync.Mutex
	ok       int
	fail     int
	detected int
	duration float64
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newProgressPrinter(w io.Writer, total int) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		w:       w,
		total:   total,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Increment records one finished page and the number of stacks found on it.
func (p *progressPrinter) Increment(success bool, stackCount int, durationMs float64) {
	p.mu.Lock()
	if success {
		p.ok++
	} else {
		p.fail++
	}
	p.detected += stackCount
	p.duration += durationMs
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", 80))
		p.print()
		fmt.Fprintln(p.w)
	})
}

func (p *progressPrinter) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) line() string {
	p.mu.Lock()
	ok, fail, detected, dur := p.ok, p.fail, p.detected, p.duration
	p.mu.Unlock()

	completed := ok + fail
	total := max(p.total, completed)

	percent := (float64(completed) / float64(total)) * 100
	avg := 0.0
	if completed > 0 {
		avg = dur / float64(completed) / 1000
	}

	return fmt.Sprintf("[detect] Pages: %d/%d (%.1f%%) OK:%d Fail:%d Stacks:%d Avg:%.2fs",
		completed, total, percent, ok, fail, detected, avg)
}

func (p *progressPrinter) print() {
	fmt.Fprintf(p.w, "\r%s", p.line())
}
