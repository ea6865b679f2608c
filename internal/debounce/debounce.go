// Package debounce delays and rate-limits updates coming from the panel.
package debounce

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultQuietPeriod is the wait after the last edit before a value propagates.
const DefaultQuietPeriod = 300 * time.Millisecond

// State is the debouncer's current phase.
type State int

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "pending"
	}
	return "idle"
}

// Debouncer propagates only the last value of a burst, once no new value
// has arrived for the quiet period (trailing edge).
type Debouncer[T any] struct {
	mu     sync.Mutex
	quiet  time.Duration
	fn     func(T)
	state  State
	timer  *time.Timer
	latest T
	// gen identifies the timer that may fire; a stale timer that lost the
	// race with Push or Cancel sees a different value and does nothing.
	gen uint64

	// running counts settled values whose callback has not returned yet.
	running int
	done    *sync.Cond
}

// New returns an idle debouncer calling fn with the settled value.
func New[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	d := &Debouncer[T]{quiet: quiet, fn: fn}
	d.done = sync.NewCond(&d.mu)
	return d
}

// Push records v as the latest value and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.latest = v
	d.state = StatePending
	d.timer = time.AfterFunc(d.quiet, func() {
		d.fire(gen)
	})
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.state != StatePending || d.gen != gen {
		d.mu.Unlock()
		return
	}
	v := d.settle()
	d.running++
	d.mu.Unlock()

	d.run(v)
}

// run calls fn and marks the callback finished. The caller has already
// counted it in running.
func (d *Debouncer[T]) run(v T) {
	defer func() {
		d.mu.Lock()
		d.running--
		if d.running == 0 {
			d.done.Broadcast()
		}
		d.mu.Unlock()
	}()
	d.fn(v)
}

// settle moves pending to idle and returns the value to propagate.
// d.mu must be held.
func (d *Debouncer[T]) settle() T {
	v := d.latest
	var zero T
	d.latest = zero
	d.state = StateIdle
	d.timer = nil
	return v
}

// Flush propagates a pending value immediately. It returns false when idle.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.state != StatePending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	v := d.settle()
	d.running++
	d.mu.Unlock()

	d.run(v)
	return true
}

// Cancel drops a pending value without propagating it.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StatePending {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.settle()
	return true
}

// Wait blocks until no callback is running. A value settled by the timer
// just before Flush found the debouncer idle is propagated by the time
// Wait returns. It must not be called from the callback.
func (d *Debouncer[T]) Wait() {
	d.mu.Lock()
	for d.running > 0 {
		d.done.Wait()
	}
	d.mu.Unlock()
}

func (d *Debouncer[T]) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Debouncer[T]) Pending() bool {
	return d.State() == StatePending
}

// Throttle invokes a callback at most once per interval. Calls inside the
// interval are dropped, not queued.
type Throttle struct {
	limiter *rate.Limiter
	fn      func()
}

func NewThrottle(interval time.Duration, fn func()) *Throttle {
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		fn:      fn,
	}
}

// Call runs the callback if the interval has elapsed and reports whether it ran.
func (t *Throttle) Call() bool {
	if !t.limiter.Allow() {
		return false
	}
	if t.fn != nil {
		t.fn()
	}
	return true
}
