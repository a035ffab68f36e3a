// Package profiling provides opt-in CPU/memory profiles and a lightweight
// hierarchical timer for finding slow spots in spell loading and filtering.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

type noopStopper struct{}

func (noopStopper) Stop() {}

// span is one timed operation. Spans started while another is open become
// its children, producing a call-tree in the summary.
type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	profiler *Profiler
}

// Stop completes the timing for this span.
func (s *span) Stop() {
	s.duration = time.Since(s.start)
	s.profiler.endSpan(s)
}

// Profiler manages a session of nested timing spans.
type Profiler struct {
	enabled   bool
	mu        sync.Mutex
	root      *span
	spanStack []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global timer. Disabled timers make Start free.
func Enable() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	if defaultProfiler.enabled {
		return
	}
	defaultProfiler.enabled = true
	defaultProfiler.root = &span{name: "root", start: time.Now(), profiler: defaultProfiler}
	defaultProfiler.spanStack = []*span{defaultProfiler.root}
}

// Start begins a named span. End it with the returned Stopper, typically
// via defer.
func Start(name string) Stopper {
	if !defaultProfiler.enabled {
		return noopStopper{}
	}
	return defaultProfiler.startSpan(name)
}

func (p *Profiler) startSpan(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &span{name: name, start: time.Now(), profiler: p}
	parent := p.spanStack[len(p.spanStack)-1]
	parent.children = append(parent.children, s)
	p.spanStack = append(p.spanStack, s)
	return s
}

func (p *Profiler) endSpan(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Pop back to the span being closed; out-of-order stops close the
	// intervening spans implicitly.
	for i := len(p.spanStack) - 1; i > 0; i-- {
		top := p.spanStack[i]
		p.spanStack = p.spanStack[:i]
		if top == s {
			return
		}
	}
}

// Summarize writes the hierarchical timing report.
func Summarize(w io.Writer) {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	if !defaultProfiler.enabled || defaultProfiler.root == nil {
		return
	}
	if defaultProfiler.root.duration == 0 {
		defaultProfiler.root.duration = time.Since(defaultProfiler.root.start)
	}

	fmt.Fprintln(w, "\n--- Timing Profile ---")
	writeSpan(w, defaultProfiler.root, 0, defaultProfiler.root.duration)
}

func writeSpan(w io.Writer, s *span, depth int, total time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s%-30s %10s %5.1f%%\n",
		strings.Repeat("  ", depth), s.name, s.duration.Round(time.Microsecond), pct)
	for _, child := range s.children {
		writeSpan(w, child, depth+1, total)
	}
}
