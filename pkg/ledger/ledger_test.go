package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqbench/pkg/clock"
	"reqbench/pkg/memprobe"
)

func newTestLedger(startMs, nowMs int64, probe memprobe.Probe) (*Ledger, *clock.Manual) {
	c := clock.NewManual(startMs, nowMs)
	return New(c, probe), c
}

func TestRecordFirstCheckpointUsesStart(t *testing.T) {
	l, c := newTestLedger(1000, 1040, memprobe.Static(1))

	l.Record("Start", "", 0)
	c.Advance(5 * time.Millisecond)
	l.Record("Init", "", 0)

	cps := l.Checkpoints()
	require.Len(t, cps, 2)
	assert.Equal(t, int64(1000), cps[0].Value)
	assert.Equal(t, int64(1045), cps[1].Value)
	assert.Equal(t, int64(1045), l.LastInstant())
}

func TestRecordKeys(t *testing.T) {
	l, _ := newTestLedger(1000, 1000, memprobe.Static(1))

	assert.Equal(t, "Start#1", l.Record("Start", "", 0))
	assert.Equal(t, "Check Point 2#2", l.Record("", "", 0))
	assert.Equal(t, "dup#3", l.Record("dup", "", 0))
	assert.Equal(t, "dup#4", l.Record("dup", "", 0))
	assert.Equal(t, "tag#7#5", l.Record("tag#7", "", 0))

	assert.Equal(t, 5, l.Len())
	assert.Equal(t, 5, l.Sequence())

	_, ok := l.Get("dup#3")
	assert.True(t, ok)
	_, ok = l.Get("dup")
	assert.False(t, ok)
}

func TestRecordDuplicateLabelsNeverCollide(t *testing.T) {
	l, _ := newTestLedger(1000, 1000, memprobe.Static(1))

	for i := 0; i < 10; i++ {
		l.Record("duplicateTag", "", 0)
	}

	seen := map[string]bool{}
	for _, cp := range l.Checkpoints() {
		assert.False(t, seen[cp.Key], "duplicate key %s", cp.Key)
		seen[cp.Key] = true
	}
	assert.Len(t, seen, 10)
}

func TestRecordTracksPeakMemory(t *testing.T) {
	l, _ := newTestLedger(1000, 1000, memprobe.NewSequence(100, 300, 200))

	l.Record("a", "", 0)
	assert.Equal(t, uint64(100), l.PeakMemory())
	l.Record("b", "", 0)
	assert.Equal(t, uint64(300), l.PeakMemory())
	l.Record("c", "", 0)
	assert.Equal(t, uint64(300), l.PeakMemory())

	cps := l.Checkpoints()
	assert.Equal(t, uint64(200), cps[2].Memory)
}

func TestRecordKeepsSourceLocation(t *testing.T) {
	l, _ := newTestLedger(1000, 1000, memprobe.Static(1))

	l.Record("handler", "/srv/app/handler.go", 42)
	cp, ok := l.Get("handler#1")
	require.True(t, ok)
	assert.Equal(t, "/srv/app/handler.go", cp.File)
	assert.Equal(t, 42, cp.Line)
}

func TestCheckpointsReturnsCopy(t *testing.T) {
	l, _ := newTestLedger(1000, 1000, memprobe.Static(1))
	l.Record("a", "", 0)

	cps := l.Checkpoints()
	cps[0].Value = -1

	cp, _ := l.Get("a#1")
	assert.Equal(t, int64(1000), cp.Value)
}
