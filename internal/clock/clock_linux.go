//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

type monotonic struct{}

// Now reads CLOCK_MONOTONIC_RAW, which is not slewed by NTP.
func (monotonic) Now() Timestamp {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return fallbackNow()
	}
	return Timestamp{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
}

var start = time.Now()

func fallbackNow() Timestamp {
	d := time.Since(start)
	return Timestamp{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}
}
