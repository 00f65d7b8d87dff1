// Package monitoring reports unexpected errors and panics to an error
// tracker. The process-wide monitor defaults to a no-op and is replaced at
// startup by infra/monitoring.
package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor restores the
// no-op default.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

// Current returns the installed monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	Current().CaptureException(err, tags)
}

// Recover reports a panic of the calling goroutine and re-raises it. It must
// be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		m := Current()
		m.CapturePanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Absorb reports a panic of the calling goroutine and stops it. It must be
// deferred directly.
func Absorb() {
	if r := recover(); r != nil {
		Current().CapturePanic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Current().Flush(d)
}
