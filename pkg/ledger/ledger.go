package ledger

import (
	"strconv"

	"reqbench/pkg/clock"
	"reqbench/pkg/memprobe"
)

// Separator joins a label and its sequence number in an internal key
const Separator = "#"

// DefaultLabelPrefix names checkpoints recorded without a label
const DefaultLabelPrefix = "Check Point "

// Checkpoint is one recorded instant
type Checkpoint struct {
	// Key is the label followed by "#N", unique within the ledger
	Key string
	// Value is the absolute instant in ms until ComputeDeltas runs, the segment duration in ms after
	Value int64
	// Memory is the peak memory reading in bytes at record time
	Memory uint64
	// File and Line locate the caller; empty for checkpoints recorded internally
	File string
	Line int
}

// Ledger is the ordered checkpoint collection of one execution
type Ledger struct {
	clock       clock.Clock
	probe       memprobe.Probe
	checkpoints []Checkpoint
	index       map[string]int
	sequence    int
	peakMemory  uint64
	lastInstant int64
	finalized   bool
}

// New creates an empty ledger reading time from c and memory from p
func New(c clock.Clock, p memprobe.Probe) *Ledger {
	return &Ledger{
		clock: c,
		probe: p,
		index: make(map[string]int),
	}
}

// Record appends a checkpoint and returns its internal key. An empty label is
// replaced by "Check Point N". Recording into a finalized ledger does nothing
// and returns "".
func (l *Ledger) Record(label, file string, line int) string {
	if l.finalized {
		return ""
	}

	n := strconv.Itoa(l.sequence + 1)
	if label == "" {
		label = DefaultLabelPrefix + n
	}
	key := label + Separator + n

	instant := l.clock.NowMs()
	if l.lastInstant == 0 {
		instant = l.clock.StartMs()
	}
	memory := l.probe.PeakBytes()

	l.index[key] = len(l.checkpoints)
	l.checkpoints = append(l.checkpoints, Checkpoint{
		Key:    key,
		Value:  instant,
		Memory: memory,
		File:   file,
		Line:   line,
	})

	l.peakMemory = max(l.peakMemory, memory)
	l.lastInstant = instant
	l.sequence++

	return key
}

// Len returns the number of checkpoints
func (l *Ledger) Len() int {
	return len(l.checkpoints)
}

// Sequence returns how many checkpoints have been recorded
func (l *Ledger) Sequence() int {
	return l.sequence
}

// PeakMemory returns the highest memory reading seen so far
func (l *Ledger) PeakMemory() uint64 {
	return l.peakMemory
}

// LastInstant returns the instant of the latest checkpoint, 0 before the first one
func (l *Ledger) LastInstant() int64 {
	return l.lastInstant
}

// Finalized reports whether ComputeDeltas has run
func (l *Ledger) Finalized() bool {
	return l.finalized
}

// Checkpoints returns a copy of the checkpoints in insertion order
func (l *Ledger) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(l.checkpoints))
	copy(out, l.checkpoints)
	return out
}

// Get returns the checkpoint stored under key
func (l *Ledger) Get(key string) (Checkpoint, bool) {
	i, ok := l.index[key]
	if !ok {
		return Checkpoint{}, false
	}
	return l.checkpoints[i], true
}
