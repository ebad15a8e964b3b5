// Package timing provides start/checkpoint elapsed-time measurement.
//
// A Tracker remembers when Start was called and when End last ran. Each End
// reports the total since Start and the time since the previous End.
package timing

import (
	"fmt"
	"io"
	"sync"
	"time"

	"easyinfo/internal/logging"
)

// DefaultMessage prefixes End output when no message is given.
const DefaultMessage = "Total time"

type span struct {
	start time.Time
	last  time.Time // zero until the first End after Start
}

// Tracker is one logical timer plus any number of named ones.
type Tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	out   io.Writer
	born  time.Time
	main  span
	named map[string]*span
}

// NewTracker creates a tracker writing checkpoint lines to out. Until Start is
// called, End measures from the tracker's creation.
func NewTracker(out io.Writer) *Tracker {
	return newTracker(out, time.Now)
}

func newTracker(out io.Writer, now func() time.Time) *Tracker {
	born := now()
	return &Tracker{
		now:   now,
		out:   out,
		born:  born,
		main:  span{start: born},
		named: make(map[string]*span),
	}
}

// SetOutput redirects checkpoint lines.
func (t *Tracker) SetOutput(out io.Writer) {
	t.mu.Lock()
	t.out = out
	t.mu.Unlock()
}

// Start resets the timer: the start time becomes now and the last checkpoint is cleared.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.main = span{start: t.now()}
	logging.TimingDebug("timer started")
}

// End records a checkpoint and returns the time since the previous checkpoint,
// or since Start for the first one. With verbose it prints
// "{msg}: {total} Time since last: {since}" (or "{msg}: {total}" the first time).
func (t *Tracker) End(msg string, verbose bool) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.end(&t.main, msg, verbose)
}

// StartID starts (or restarts) the timer named id.
func (t *Tracker) StartID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.named[id] = &span{start: t.now()}
	logging.TimingDebug("timer %q started", id)
}

// EndID is End for the timer named id. An id that was never started measures
// from the tracker's creation. An empty msg defaults to the id.
func (t *Tracker) EndID(id, msg string, verbose bool) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.named[id]
	if !ok {
		s = &span{start: t.born}
		t.named[id] = s
	}
	if msg == "" {
		msg = id
	}
	return t.end(s, msg, verbose)
}

func (t *Tracker) end(s *span, msg string, verbose bool) time.Duration {
	now := t.now()
	total := now.Sub(s.start)
	if msg == "" {
		msg = DefaultMessage
	}

	since := total
	if !s.last.IsZero() {
		since = now.Sub(s.last)
		if verbose {
			fmt.Fprintf(t.out, "%s: %v Time since last: %v\n", msg, total, since)
		}
	} else if verbose {
		fmt.Fprintf(t.out, "%s: %v\n", msg, total)
	}

	s.last = now
	logging.TimingDebug("%s: total=%v since=%v", msg, total, since)
	return since
}
