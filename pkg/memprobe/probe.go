// Package memprobe reads the peak memory footprint of the current process.
package memprobe

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	errs "reqbench/pkg/errors"
)

// Source names accepted by ForSource
const (
	SourceRusage  = "rusage"
	SourceRuntime = "runtime"
)

// Probe returns the peak resident memory of the process in bytes
type Probe interface {
	PeakBytes() uint64
}

// ForSource returns the probe configured by name. An empty name selects Default.
func ForSource(name string) (Probe, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Default(), nil
	case SourceRusage:
		p, ok := newRusage()
		if !ok {
			return nil, errs.New(errs.ErrorTypeProbe, fmt.Sprintf("getrusage is not available on %s", runtime.GOOS))
		}
		return p, nil
	case SourceRuntime:
		return NewRuntime(), nil
	default:
		return nil, errs.New(errs.ErrorTypeConfig, fmt.Sprintf("unknown memory source %q", name))
	}
}

// Default returns the most accurate probe for the platform
func Default() Probe {
	if p, ok := newRusage(); ok {
		return p
	}
	return NewRuntime()
}

// Runtime tracks the high-water mark of memory obtained from the OS by the Go runtime.
// runtime.ReadMemStats stops the world briefly; it is called once per checkpoint.
type Runtime struct {
	mu   sync.Mutex
	peak uint64
}

// NewRuntime creates a runtime-stats probe
func NewRuntime() *Runtime {
	return &Runtime{}
}

// PeakBytes returns the largest runtime.MemStats.Sys observed so far
func (r *Runtime) PeakBytes() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.mu.Lock()
	defer r.mu.Unlock()
	if m.Sys > r.peak {
		r.peak = m.Sys
	}
	return r.peak
}

// Static always reports the same value
type Static uint64

// PeakBytes returns s
func (s Static) PeakBytes() uint64 {
	return uint64(s)
}

// Sequence reports its values in order and then repeats the last one
type Sequence struct {
	mu     sync.Mutex
	values []uint64
	next   int
}

// NewSequence creates a probe that replays values
func NewSequence(values ...uint64) *Sequence {
	return &Sequence{values: values}
}

// PeakBytes returns the next value of the sequence
func (s *Sequence) PeakBytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return v
}
