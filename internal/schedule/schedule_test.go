package schedule_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ja-he/editgate/internal/schedule"
)

var start = time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

func TestManualFrames(t *testing.T) {

	t.Run("runs queued frames once", func(t *testing.T) {
		m := schedule.NewManual(start)
		n := 0
		m.NextFrame(func() { n++ })
		m.NextFrame(func() { n++ })
		m.Frame()
		m.Frame()
		if n != 2 {
			t.Error("expected both frame callbacks to run exactly once, got", n)
		}
	})

	t.Run("frames queued during a frame wait", func(t *testing.T) {
		m := schedule.NewManual(start)
		order := []string{}
		m.NextFrame(func() {
			order = append(order, "first")
			m.NextFrame(func() { order = append(order, "second") })
		})
		m.Frame()
		if len(order) != 1 {
			t.Fatal("nested frame ran within the same frame:", order)
		}
		m.Frame()
		if len(order) != 2 || order[1] != "second" {
			t.Error("nested frame did not run on the following frame:", order)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		m := schedule.NewManual(start)
		ran := false
		h := m.NextFrame(func() { ran = true })
		m.Cancel(h)
		m.Frame()
		if ran {
			t.Error("cancelled frame ran")
		}
	})

	t.Run("cancel within batch", func(t *testing.T) {
		m := schedule.NewManual(start)
		ran := false
		var second schedule.Handle
		m.NextFrame(func() { m.Cancel(second) })
		second = m.NextFrame(func() { ran = true })
		m.Frame()
		if ran {
			t.Error("frame cancelled by an earlier frame of the same batch ran")
		}
	})

	t.Run("cancel NoHandle", func(t *testing.T) {
		m := schedule.NewManual(start)
		m.Cancel(schedule.NoHandle)
		if f, tm := m.Pending(); f != 0 || tm != 0 {
			t.Error("unexpected pending callbacks")
		}
	})
}

func TestManualTimers(t *testing.T) {

	t.Run("due order and clock", func(t *testing.T) {
		m := schedule.NewManual(start)
		seen := []time.Duration{}
		m.After(2*time.Second, func() { seen = append(seen, m.Now().Sub(start)) })
		m.After(1*time.Second, func() { seen = append(seen, m.Now().Sub(start)) })

		m.Advance(500 * time.Millisecond)
		if len(seen) != 0 {
			t.Fatal("timers ran early:", seen)
		}

		m.Advance(5 * time.Second)
		if len(seen) != 2 || seen[0] != time.Second || seen[1] != 2*time.Second {
			t.Error("timers did not run in due order at their due times:", seen)
		}
		if m.Now() != start.Add(5500*time.Millisecond) {
			t.Error("clock not at advance target:", m.Now())
		}
	})

	t.Run("timer scheduled by timer", func(t *testing.T) {
		m := schedule.NewManual(start)
		n := 0
		var rearm func()
		rearm = func() {
			n++
			m.After(time.Second, rearm)
		}
		m.After(time.Second, rearm)
		m.Advance(3500 * time.Millisecond)
		if n != 3 {
			t.Error("expected three firings of the re-arming timer, got", n)
		}
	})

	t.Run("frames flushed while advancing", func(t *testing.T) {
		m := schedule.NewManual(start)
		ran := false
		m.After(time.Second, func() {
			m.NextFrame(func() { ran = true })
		})
		m.Advance(2 * time.Second)
		if !ran {
			t.Error("frame queued by timer was not flushed")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		m := schedule.NewManual(start)
		ran := false
		h := m.After(time.Second, func() { ran = true })
		m.Cancel(h)
		m.Advance(time.Minute)
		if ran {
			t.Error("cancelled timer ran")
		}
	})

	t.Run("no frame without time passing", func(t *testing.T) {
		m := schedule.NewManual(start)
		ran := false
		m.NextFrame(func() { ran = true })
		m.AdvanceTo(start)
		m.Advance(0)
		if ran {
			t.Error("frame flushed although time did not move")
		}
		m.Advance(time.Millisecond)
		if !ran {
			t.Error("frame not flushed when time moved")
		}
	})

	t.Run("backwards ignored", func(t *testing.T) {
		m := schedule.NewManual(start)
		m.AdvanceTo(start.Add(-time.Hour))
		if m.Now() != start {
			t.Error("clock moved backwards")
		}
	})
}

func TestClock(t *testing.T) {

	t.Run("after", func(t *testing.T) {
		c := schedule.NewClock(time.Millisecond)
		var wg sync.WaitGroup
		wg.Add(2)
		c.After(time.Millisecond, wg.Done)
		c.NextFrame(wg.Done)
		wg.Wait()
		if c.Pending() != 0 {
			t.Error("fired timers still pending")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		c := schedule.NewClock(0)
		ran := make(chan struct{}, 1)
		h := c.After(20*time.Millisecond, func() { ran <- struct{}{} })
		c.Cancel(h)
		select {
		case <-ran:
			t.Error("cancelled timer ran")
		case <-time.After(60 * time.Millisecond):
		}
		if c.Pending() != 0 {
			t.Error("cancelled timer still pending")
		}
	})
}
