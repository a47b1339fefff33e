//go:build !linux

package clock

import "time"

type monotonic struct{}

var start = time.Now()

// Now returns the time elapsed since process start, taken from the
// runtime's monotonic reading.
func (monotonic) Now() Timestamp {
	d := time.Since(start)
	return Timestamp{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}
}
