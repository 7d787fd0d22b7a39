package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemStart(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_123)
	c := New(start)

	assert.Equal(t, int64(1_700_000_000_123), c.StartMs())
	assert.GreaterOrEqual(t, c.NowMs(), c.StartMs())
}

func TestProcessClockStartsAtProcessStart(t *testing.T) {
	c := Process()

	assert.Equal(t, toMs(ProcessStart()), c.StartMs())
	assert.LessOrEqual(t, c.StartMs(), c.NowMs())
}

func TestExecutionMsIsMonotonic(t *testing.T) {
	c := New(time.Now())

	prev := ExecutionMs(c)
	for i := 0; i < 50; i++ {
		cur := ExecutionMs(c)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestToMsRounds(t *testing.T) {
	assert.Equal(t, int64(10), toMs(time.UnixMicro(10_499)))
	assert.Equal(t, int64(11), toMs(time.UnixMicro(10_500)))
}

func TestManual(t *testing.T) {
	m := NewManual(1000, 1000)
	assert.Equal(t, int64(0), ExecutionMs(m))

	m.Advance(250 * time.Millisecond)
	assert.Equal(t, int64(1250), m.NowMs())
	assert.Equal(t, int64(250), ExecutionMs(m))

	m.Set(5000)
	assert.Equal(t, int64(4000), ExecutionMs(m))
	assert.Equal(t, int64(1000), m.StartMs())
}
