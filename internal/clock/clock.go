// Package clock provides the microsecond timestamp primitive used
// throughout the hot path. Isolated behind a function (rather than a
// bare time.Now() call at each use site) so tests can substitute a
// deterministic source.
package clock

import "time"

// Source yields the current time as microseconds since the Unix epoch.
type Source func() int64

// System is the production clock.
func System() int64 {
	return time.Now().UnixMicro()
}

// NowMicros is a convenience wrapper around System for call sites that
// don't need to inject a Source.
func NowMicros() int64 {
	return System()
}
