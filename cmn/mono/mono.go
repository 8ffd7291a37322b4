// Package mono provides a monotonic clock, matching the teacher's
// cmn/mono package used for budget tracking (work-stealing backoff,
// transport poll intervals) rather than wall-clock timestamps.
package mono

import "time"

// base anchors NanoTime; time.Since reads its monotonic clock component.
var base = time.Now()

// NanoTime returns a monotonic timestamp in nanoseconds. Only valid for
// computing durations relative to another NanoTime call.
func NanoTime() int64 {
	return int64(time.Since(base))
}

// Since returns the duration elapsed since the given NanoTime value.
func Since(t int64) time.Duration {
	return time.Duration(NanoTime() - t)
}
