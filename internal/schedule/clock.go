package schedule

import (
	"sync"
	"time"
)

// Clock is a Scheduler backed by real timers.
// Frames are emulated by a timer of the configured frame interval.
//
// Callbacks run on timer goroutines.
type Clock struct {
	frameInterval time.Duration

	mtx    sync.Mutex
	last   Handle
	timers map[Handle]*time.Timer
}

// NewClock returns a Clock whose frames are frameInterval apart.
// A non-positive interval falls back to DefaultFrameInterval.
func NewClock(frameInterval time.Duration) *Clock {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Clock{
		frameInterval: frameInterval,
		timers:        map[Handle]*time.Timer{},
	}
}

// NextFrame schedules fn to run after one frame interval.
func (c *Clock) NextFrame(fn func()) Handle {
	return c.After(c.frameInterval, fn)
}

// After schedules fn to run after d.
func (c *Clock) After(d time.Duration, fn func()) Handle {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.last++
	h := c.last
	c.timers[h] = time.AfterFunc(d, func() {
		c.mtx.Lock()
		_, pending := c.timers[h]
		delete(c.timers, h)
		c.mtx.Unlock()

		if pending {
			fn()
		}
	})
	return h
}

// Cancel stops the timer for h.
func (c *Clock) Cancel(h Handle) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if t, ok := c.timers[h]; ok {
		t.Stop()
		delete(c.timers, h)
	}
}

// Now returns the wall-clock time.
func (c *Clock) Now() time.Time {
	return time.Now()
}

// Pending returns the number of callbacks that have neither run nor been
// cancelled.
func (c *Clock) Pending() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.timers)
}
