// Package schedule provides the two deferral primitives readiness tracking
// needs: running a callback on the next animation frame and running a
// callback after a fixed duration. Both can be cancelled.
//
// Clock implements them with real timers; Manual lets tests and scenario
// replays step time explicitly.
package schedule

import (
	"time"
)

// Handle identifies a scheduled callback so that it can be cancelled.
type Handle uint64

// NoHandle is the zero Handle; it never refers to a scheduled callback and
// cancelling it does nothing.
const NoHandle Handle = 0

// Scheduler schedules deferred callbacks.
type Scheduler interface {
	// NextFrame schedules fn to run on the next animation frame.
	NextFrame(fn func()) Handle

	// After schedules fn to run once d has elapsed.
	After(d time.Duration, fn func()) Handle

	// Cancel prevents the callback for h from running, if it has not run yet.
	Cancel(h Handle)

	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// DefaultFrameInterval approximates one animation frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond
