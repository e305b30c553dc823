package application

import "time"

// Read-error backoff bounds. The delay doubles with every consecutive failed
// read and drops back to readBackoffMin after a good one.
const (
	readBackoffMin = 500 * time.Millisecond
	readBackoffMax = 30 * time.Second
)

// readBackoff tracks consecutive keypad read failures so an unplugged keypad
// does not flood the log.
type readBackoff struct {
	failures int
}

// next records a failure and returns how long to wait before reading again.
func (b *readBackoff) next() time.Duration {
	d := readBackoffMin << min(b.failures, 6)
	b.failures++
	return min(d, readBackoffMax)
}

// reset forgets earlier failures.
func (b *readBackoff) reset() {
	b.failures = 0
}
