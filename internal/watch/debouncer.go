package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single call. The call runs
// once the quiet window has passed without a new trigger, or once MaxDelay
// has passed since the first trigger of the burst, whichever comes first.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	fire     func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	first   time.Time
	stopped bool
}

// NewDebouncer creates a debouncer. A non-positive maxDelay disables the cap.
func NewDebouncer(quiet, maxDelay time.Duration, fire func()) *Debouncer {
	return &Debouncer{quiet: quiet, maxDelay: maxDelay, fire: fire}
}

// Trigger records a change and (re)arms the timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	now := time.Now()
	if d.timer == nil {
		d.first = now
	} else {
		d.timer.Stop()
	}
	wait := d.quiet
	if d.maxDelay > 0 {
		if remaining := d.maxDelay - now.Sub(d.first); remaining < wait {
			wait = max(remaining, 0)
		}
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(wait, func() { d.run(gen) })
}

func (d *Debouncer) run(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fire()
}

// Stop cancels a pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
