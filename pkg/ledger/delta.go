package ledger

// ComputeDeltas turns the absolute instants of l into segment durations.
//
// Each checkpoint's Value becomes the time until the next checkpoint; the last
// one becomes the time until finalMs. It runs once per ledger: it returns true
// when it rewrote the ledger and false when l is nil, empty, or already
// finalized.
func ComputeDeltas(l *Ledger, finalMs int64) bool {
	if l == nil || l.finalized || len(l.checkpoints) == 0 {
		return false
	}

	cps := l.checkpoints
	prevInstant := cps[0].Value
	for i := 1; i < len(cps); i++ {
		instant := cps[i].Value
		cps[i-1].Value = instant - prevInstant
		prevInstant = instant
	}
	cps[len(cps)-1].Value = finalMs - prevInstant

	l.finalized = true
	return true
}

// TotalMs sums the values of a finalized ledger
func TotalMs(l *Ledger) int64 {
	if l == nil {
		return 0
	}
	var total int64
	for _, cp := range l.checkpoints {
		total += cp.Value
	}
	return total
}
