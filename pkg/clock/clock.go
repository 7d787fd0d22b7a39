// Package clock provides millisecond wall-clock readings relative to an execution start.
package clock

import (
	"sync"
	"time"
)

// processStart is captured as early as package initialization allows
var processStart = time.Now()

// Clock reports the current time and the start of the current execution, in
// integer milliseconds since the Unix epoch.
type Clock interface {
	NowMs() int64
	StartMs() int64
}

// System is a Clock backed by time.Now
type System struct {
	start int64
}

// New returns a system clock whose execution started at start
func New(start time.Time) System {
	return System{start: toMs(start)}
}

// Process returns a system clock whose execution started with the process
func Process() System {
	return System{start: toMs(processStart)}
}

// ProcessStart returns the instant the process started
func ProcessStart() time.Time {
	return processStart
}

// NowMs returns the current time in milliseconds
func (s System) NowMs() int64 {
	return toMs(time.Now())
}

// StartMs returns the execution start in milliseconds
func (s System) StartMs() int64 {
	return s.start
}

// ExecutionMs returns the time elapsed since the execution started
func ExecutionMs(c Clock) int64 {
	return c.NowMs() - c.StartMs()
}

// toMs rounds to the nearest millisecond
func toMs(t time.Time) int64 {
	return (t.UnixMicro() + 500) / 1000
}

// Manual is a Clock whose readings only change when told to. Safe for concurrent use.
type Manual struct {
	mu    sync.Mutex
	now   int64
	start int64
}

// NewManual returns a manual clock with the given start and current readings
func NewManual(startMs, nowMs int64) *Manual {
	return &Manual{start: startMs, now: nowMs}
}

// NowMs returns the current manual reading
func (m *Manual) NowMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// StartMs returns the manual start reading
func (m *Manual) StartMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start
}

// Set moves the current reading to ms
func (m *Manual) Set(ms int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = ms
}

// Advance moves the current reading forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d.Milliseconds()
}
