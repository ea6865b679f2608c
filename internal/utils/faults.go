package utils

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

const (
	DefaultFaultWindow = 10 * time.Second
	DefaultFaultCap    = 3
)

type faultRecord struct {
	first time.Time
	count int
}

// FaultReporter logs internal faults, suppressing a message once it has been
// reported cap times within window.
type FaultReporter struct {
	mu         sync.Mutex
	window     time.Duration
	cap        int
	now        func() time.Time
	seen       map[string]*faultRecord
	suppressed int
	logf       func(format string, args ...interface{})
}

func NewFaultReporter(window time.Duration, cap int) *FaultReporter {
	if window <= 0 {
		window = DefaultFaultWindow
	}
	if cap <= 0 {
		cap = DefaultFaultCap
	}
	return &FaultReporter{
		window: window,
		cap:    cap,
		now:    time.Now,
		seen:   make(map[string]*faultRecord),
		logf:   log.Printf,
	}
}

// Report logs err under scope and reports whether it was logged.
func (r *FaultReporter) Report(scope string, err error) bool {
	if err == nil {
		return false
	}
	key := scope + ": " + err.Error()

	r.mu.Lock()
	now := r.now()
	rec, ok := r.seen[key]
	if !ok || now.Sub(rec.first) >= r.window {
		rec = &faultRecord{first: now}
		r.seen[key] = rec
	}
	rec.count++
	if rec.count > r.cap {
		r.suppressed++
		r.mu.Unlock()
		return false
	}
	last := rec.count == r.cap
	r.mu.Unlock()

	r.logf("ERROR: %s", key)
	if last {
		r.logf("WARN: further %q faults suppressed for %s", scope, r.window)
	}
	return true
}

// Suppressed is the number of reports dropped since creation.
func (r *FaultReporter) Suppressed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover converts a panic in the calling goroutine into a reported fault.
// Use it as `defer utils.Recover(reporter, "scope", &err)`.
func Recover(r *FaultReporter, scope string, errp *error) {
	v := recover()
	if v == nil {
		return
	}
	perr := &PanicError{Value: v, Stack: debug.Stack()}
	if r != nil {
		r.Report(scope, perr)
	}
	if errp != nil {
		*errp = perr
	}
}
