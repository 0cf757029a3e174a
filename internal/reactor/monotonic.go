package reactor

import "golang.org/x/sys/unix"

// nowMonotonicMS mirrors get_monotonic_msec() from
// _examples/original_source/server_common.h: a CLOCK_MONOTONIC reading
// in milliseconds, immune to wall-clock adjustments, which is what
// every idle-timeout and TTL deadline in this package is computed
// against.
func nowMonotonicMS() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return int64(ts.Sec)*1000 + int64(ts.Nsec)/1_000_000
}
