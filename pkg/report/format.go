package report

import (
	"fmt"
	"math"
	"strings"

	"reqbench/pkg/ledger"
)

var byteSuffixes = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with 1024-based units: 0 B, 500 B, 49 KB, 3 MB.
// The magnitude is rounded to a whole number.
func FormatBytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}

	// integer steps avoid log1024 landing just below a power of 1024
	idx := 0
	div := 1.0
	for v := n; v >= 1024 && idx < len(byteSuffixes)-1; v /= 1024 {
		idx++
		div *= 1024
	}

	value := math.Round(float64(n) / div)
	return fmt.Sprintf("%d %s", int64(value), byteSuffixes[idx])
}

// StripDisambiguator removes the "#N" suffix the ledger appends to every label.
// Only the last separator counts: "myTag#11#22" becomes "myTag#11".
func StripDisambiguator(key string) string {
	i := strings.LastIndex(key, ledger.Separator)
	if i < 0 {
		return key
	}
	return key[:i]
}

// Percent returns duration as a rounded percentage of total. A total of zero
// or less counts as 1 ms.
func Percent(durationMs, totalMs int64) int64 {
	if totalMs <= 0 {
		totalMs = 1
	}
	return int64(math.Round(float64(durationMs) / float64(totalMs) * 100))
}
