package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler.
// Time only moves when Advance or AdvanceTo is called, and frame callbacks
// only run on Frame (or implicitly while time moves forward).
//
// Callbacks run on the goroutine calling Frame/Advance, without Manual's lock
// held, so they may schedule or cancel further callbacks.
type Manual struct {
	mtx    sync.Mutex
	now    time.Time
	last   Handle
	frames []pending
	timers []pending
}

type pending struct {
	handle Handle
	due    time.Time
	fn     func()
}

// NewManual returns a Manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// NextFrame queues fn for the next Frame.
func (m *Manual) NextFrame(fn func()) Handle {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.last++
	m.frames = append(m.frames, pending{handle: m.last, due: m.now, fn: fn})
	return m.last
}

// After queues fn to run once time has been advanced by at least d.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.last++
	m.timers = append(m.timers, pending{handle: m.last, due: m.now.Add(d), fn: fn})
	return m.last
}

// Cancel removes the callback for h from the queues.
func (m *Manual) Cancel(h Handle) {
	if h == NoHandle {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.frames = remove(m.frames, h)
	m.timers = remove(m.timers, h)
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.now
}

// Frame runs every frame callback that was queued before the call.
// Callbacks queued while the frame runs wait for the next Frame.
func (m *Manual) Frame() {
	m.mtx.Lock()
	batch := make([]Handle, len(m.frames))
	for i, p := range m.frames {
		batch[i] = p.handle
	}
	m.mtx.Unlock()

	for _, h := range batch {
		m.mtx.Lock()
		var fn func()
		for i, p := range m.frames {
			if p.handle == h {
				fn = p.fn
				m.frames = append(m.frames[:i:i], m.frames[i+1:]...)
				break
			}
		}
		m.mtx.Unlock()

		// cancelled by an earlier callback of this batch
		if fn == nil {
			continue
		}
		fn()
	}
}

// Advance moves time forward by d; see AdvanceTo.
func (m *Manual) Advance(d time.Duration) {
	m.AdvanceTo(m.Now().Add(d))
}

// AdvanceTo moves time forward to t.
// Pending frames are flushed first, then every timer due at or before t runs
// in due order with the clock set to its due time. Frames queued by those
// timers are flushed before the next timer runs.
// Advancing to the current time or backwards does nothing; in particular no
// frame passes.
func (m *Manual) AdvanceTo(t time.Time) {
	if !t.After(m.Now()) {
		return
	}

	for {
		m.Frame()

		m.mtx.Lock()
		if len(m.timers) == 0 {
			m.mtx.Unlock()
			break
		}
		sort.SliceStable(m.timers, func(i, j int) bool { return m.timers[i].due.Before(m.timers[j].due) })
		next := m.timers[0]
		if next.due.After(t) {
			m.mtx.Unlock()
			break
		}
		m.timers = m.timers[1:]
		if next.due.After(m.now) {
			m.now = next.due
		}
		m.mtx.Unlock()

		next.fn()
	}

	m.mtx.Lock()
	if t.After(m.now) {
		m.now = t
	}
	m.mtx.Unlock()
}

// Pending returns the number of queued frame and timer callbacks.
func (m *Manual) Pending() (frames, timers int) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.frames), len(m.timers)
}

func remove(ps []pending, h Handle) []pending {
	for i, p := range ps {
		if p.handle == h {
			return append(ps[:i:i], ps[i+1:]...)
		}
	}
	return ps
}
