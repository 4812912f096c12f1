package readiness_test

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/readiness"
	"github.com/ja-he/editgate/internal/schedule"
)

var start = time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	reg     *readiness.Registry
	clock   *schedule.Manual
	notices []notice.Notice
}

func newHarness() *harness {
	h := &harness{clock: schedule.NewManual(start)}
	logger := zerolog.New(io.Discard)
	h.reg = readiness.NewRegistry(
		readiness.WithScheduler(h.clock),
		readiness.WithLogger(&logger),
		readiness.WithPresenter(notice.PresenterFunc(func(n notice.Notice) { h.notices = append(h.notices, n) })),
	)
	return h
}

// makeInteractive brings the instance into the interactive state.
func (h *harness) makeInteractive(id string) {
	h.reg.Init(id)
	h.reg.SetContainerMounted(id, true)
	h.reg.SetDataLoaded(id, true)
	h.reg.UpdateAnchorCount(id, 3)
}

func (h *harness) state(t *testing.T, id string) readiness.State {
	t.Helper()
	s, ok := h.reg.Snapshot(id)
	if !ok {
		t.Fatalf("no state for instance '%s'", id)
	}
	return s
}

func TestInteractiveNeedsAnchors(t *testing.T) {
	h := newHarness()

	h.reg.Init("e1")
	h.reg.SetContainerMounted("e1", true)
	h.reg.UpdateAnchorCount("e1", 0)
	h.reg.SetDataLoaded("e1", true)

	if h.reg.IsInteractive("e1") {
		t.Fatal("interactive without anchors")
	}
	if !h.reg.IsHydrating("e1") {
		t.Error("not hydrating before first becoming interactive")
	}

	h.reg.UpdateAnchorCount("e1", 3)
	if !h.reg.IsInteractive("e1") {
		t.Error("not interactive with all preconditions met")
	}
	if h.reg.IsHydrating("e1") {
		t.Error("still hydrating after becoming interactive")
	}
}

func TestSubscribeReplaysAndNotifiesUpgrade(t *testing.T) {
	h := newHarness()

	got := []bool{}
	h.reg.Subscribe("e1", func(interactive bool) { got = append(got, interactive) })
	if len(got) != 1 || got[0] {
		t.Fatal("expected immediate callback with false, got", got)
	}

	h.reg.Init("e1")
	h.reg.SetContainerMounted("e1", true)
	h.reg.UpdateAnchorCount("e1", 0)
	h.reg.SetDataLoaded("e1", true)
	h.reg.UpdateAnchorCount("e1", 3)

	if len(got) != 2 || !got[1] {
		t.Error("expected exactly one further callback with true, got", got)
	}
}

func TestMonotonicUpgrade(t *testing.T) {
	h := newHarness()

	// a messy sequence ending with all preconditions met
	h.reg.UpdateAnchorCount("e1", 2)
	h.reg.SetDataLoaded("e1", true)
	h.reg.SetContainerMounted("e1", true)
	h.reg.UpdateAnchorCount("e1", 0)
	h.reg.SetContainerMounted("e1", false)
	h.reg.SetDataLoaded("e1", false)
	h.reg.SetContainerMounted("e1", true)
	h.reg.SetDataLoaded("e1", true)
	h.reg.UpdateAnchorCount("e1", 5)

	for i := 0; i < 5; i++ {
		h.clock.Frame()
		h.clock.Advance(time.Second)
		if !h.reg.IsInteractive("e1") {
			t.Fatal("lost interactive state without any signal change, iteration", i)
		}
	}
	if h.reg.IsHydrating("e1") {
		t.Error("hydrating while preconditions are sustained")
	}
}

func TestHysteresis(t *testing.T) {

	t.Run("momentary unmount", func(t *testing.T) {
		h := newHarness()
		h.makeInteractive("e1")

		h.reg.SetContainerMounted("e1", false)
		if h.reg.IsInteractive("e1") {
			t.Error("interactive should reflect the latest computation immediately")
		}
		if h.reg.IsHydrating("e1") {
			t.Error("hydrating flag flipped synchronously")
		}
		h.reg.SetContainerMounted("e1", true)
		h.clock.Frame()

		if h.reg.IsHydrating("e1") {
			t.Error("hydrating flag flickered on a restored dip")
		}
		if !h.reg.IsInteractive("e1") {
			t.Error("not interactive again after restore")
		}
	})

	t.Run("momentary loss of both", func(t *testing.T) {
		h := newHarness()
		h.makeInteractive("e1")

		h.reg.SetContainerMounted("e1", false)
		h.reg.UpdateAnchorCount("e1", 0)
		if h.reg.IsHydrating("e1") {
			t.Error("hydrating flag flipped synchronously")
		}
		h.reg.UpdateAnchorCount("e1", 4)
		h.clock.Frame()

		if h.reg.IsHydrating("e1") {
			t.Error("hydrating although anchors were restored before the frame")
		}
	})

	t.Run("sustained loss of both", func(t *testing.T) {
		h := newHarness()
		h.makeInteractive("e1")

		h.reg.SetContainerMounted("e1", false)
		h.reg.UpdateAnchorCount("e1", 0)
		h.clock.Frame()

		if !h.reg.IsHydrating("e1") {
			t.Error("not hydrating after container and anchors stayed gone for a frame")
		}
		if h.reg.IsInteractive("e1") {
			t.Error("interactive without container")
		}
	})

	t.Run("sustained unmount with anchors", func(t *testing.T) {
		h := newHarness()
		h.makeInteractive("e1")

		h.reg.SetContainerMounted("e1", false)
		h.clock.Frame()

		if h.reg.IsHydrating("e1") {
			t.Error("hydrating although anchors are still present")
		}
		if h.reg.IsInteractive("e1") {
			t.Error("interactive without container")
		}
	})
}

func TestIdempotence(t *testing.T) {
	h := newHarness()
	h.reg.Init("e1")
	h.reg.SetDataLoaded("e1", true)
	h.reg.UpdateAnchorCount("e1", 1)

	h.reg.SetContainerMounted("e1", true)
	h.reg.SetContainerMounted("e1", true)

	s := h.state(t, "e1")
	if len(s.Transitions) != 1 {
		t.Fatal("expected exactly one transition, got", s.Transitions)
	}
	if tr := s.Transitions[0]; tr.From || !tr.To || tr.Reason != readiness.ReasonProviderMount {
		t.Error("unexpected transition:", tr)
	}
	if s.MountCount != 1 {
		t.Error("expected mount count 1, got", s.MountCount)
	}

	t.Run("data and anchors", func(t *testing.T) {
		h.reg.SetDataLoaded("e1", true)
		h.reg.UpdateAnchorCount("e1", 1)
		if n := len(h.state(t, "e1").Transitions); n != 1 {
			t.Error("repeated identical signals added transitions, now", n)
		}
	})
}

func TestWatchdog(t *testing.T) {

	t.Run("forced correction", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")
		h.reg.SetContainerMounted("e1", true)

		h.clock.Advance(readiness.DefaultWatchdogTimeout - time.Millisecond)
		if h.state(t, "e1").DataLoaded {
			t.Fatal("watchdog fired early")
		}

		h.clock.Advance(time.Millisecond)
		s := h.state(t, "e1")
		if !s.DataLoaded {
			t.Error("data not forced to loaded")
		}
		if s.LastEvaluationReason != readiness.ReasonWatchdogForced {
			t.Error("expected re-evaluation with reason watchdog-forced, got", s.LastEvaluationReason)
		}

		// anchors arriving later are enough now
		h.reg.UpdateAnchorCount("e1", 2)
		if !h.reg.IsInteractive("e1") {
			t.Error("not interactive after anchors arrived")
		}
	})

	t.Run("forced correction with anchors", func(t *testing.T) {
		h := newHarness()
		h.reg.SetContainerMounted("e1", true)
		h.reg.UpdateAnchorCount("e1", 2)

		h.clock.Advance(readiness.DefaultWatchdogTimeout)
		s := h.state(t, "e1")
		if !s.Interactive {
			t.Fatal("not interactive after forced data load")
		}
		last := s.Transitions[len(s.Transitions)-1]
		if last.Reason != readiness.ReasonWatchdogForced || !last.To {
			t.Error("unexpected last transition:", last)
		}
		if len(h.notices) != 0 {
			t.Error("zero-anchors notice shown although anchors exist:", h.notices)
		}
	})

	t.Run("unmounted is not forced", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")
		h.clock.Advance(readiness.DefaultWatchdogTimeout)
		if h.state(t, "e1").DataLoaded {
			t.Error("data forced although container never mounted")
		}
	})

	t.Run("zero anchors notice once", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")

		h.clock.Advance(10 * readiness.DefaultWatchdogTimeout)
		if len(h.notices) != 1 {
			t.Fatal("expected exactly one notice, got", h.notices)
		}
		n := h.notices[0]
		if n.Instance != "e1" || n.Message != readiness.ZeroAnchorsMessage || n.Duration != readiness.DefaultNoticeDuration {
			t.Error("unexpected notice:", n)
		}
		if !h.state(t, "e1").HasShownZeroAnchorsWarning {
			t.Error("warning not marked as shown")
		}
	})

	t.Run("armed iff not interactive", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")
		if !h.state(t, "e1").WatchdogArmed {
			t.Error("watchdog not armed after init")
		}

		h.clock.Advance(readiness.DefaultWatchdogTimeout)
		if !h.state(t, "e1").WatchdogArmed {
			t.Error("watchdog not re-armed after expiry while still not interactive")
		}

		h.reg.SetContainerMounted("e1", true)
		h.reg.SetDataLoaded("e1", true)
		h.reg.UpdateAnchorCount("e1", 1)
		if h.state(t, "e1").WatchdogArmed {
			t.Error("watchdog armed while interactive")
		}
		if _, timers := h.clock.Pending(); timers != 0 {
			t.Error("expected no pending timers while interactive, got", timers)
		}

		h.reg.UpdateAnchorCount("e1", 0)
		if !h.state(t, "e1").WatchdogArmed {
			t.Error("watchdog not armed after losing interactivity")
		}
		if _, timers := h.clock.Pending(); timers != 1 {
			t.Error("expected exactly one watchdog timer, got", timers)
		}
	})

	t.Run("start time per cycle", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")
		if got := h.state(t, "e1").WatchdogStartTime; !got.Equal(start) {
			t.Fatal("unexpected start time after init:", got)
		}

		h.clock.Advance(readiness.DefaultWatchdogTimeout + 300*time.Millisecond)
		want := start.Add(readiness.DefaultWatchdogTimeout)
		if got := h.state(t, "e1").WatchdogStartTime; !got.Equal(want) {
			t.Error("start time not moved on re-arm, got", got, "expected", want)
		}
	})

	t.Run("restarted after late unload", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")
		h.clock.Advance(readiness.DefaultWatchdogTimeout)

		// mounted long after the first expiry, data never arrives
		h.reg.SetContainerMounted("e1", true)
		h.reg.UpdateAnchorCount("e1", 1)
		h.clock.Advance(readiness.DefaultWatchdogTimeout)

		if !h.reg.IsInteractive("e1") {
			t.Error("re-armed watchdog did not unstick the instance")
		}
	})

	t.Run("custom timeout", func(t *testing.T) {
		clock := schedule.NewManual(start)
		logger := zerolog.New(io.Discard)
		reg := readiness.NewRegistry(
			readiness.WithScheduler(clock),
			readiness.WithLogger(&logger),
			readiness.WithWatchdogTimeout(100*time.Millisecond),
		)
		reg.SetContainerMounted("e1", true)
		clock.Advance(100 * time.Millisecond)
		s, _ := reg.Snapshot("e1")
		if !s.DataLoaded {
			t.Error("custom watchdog timeout not honored")
		}
	})
}

func TestSubscribers(t *testing.T) {

	t.Run("order and panics", func(t *testing.T) {
		h := newHarness()
		order := []string{}
		h.reg.Subscribe("e1", func(v bool) { order = append(order, "a") })
		h.reg.Subscribe("e1", func(v bool) {
			if v {
				panic("subscriber failure")
			}
		})
		h.reg.Subscribe("e1", func(v bool) { order = append(order, "c") })
		order = order[:0]

		h.makeInteractive("e1")

		if len(order) != 2 || order[0] != "a" || order[1] != "c" {
			t.Error("subscribers not notified in order around a panicking one:", order)
		}
		if !h.reg.IsInteractive("e1") {
			t.Error("panicking subscriber corrupted state")
		}
	})

	t.Run("unsubscribe", func(t *testing.T) {
		h := newHarness()
		n := 0
		unsub := h.reg.Subscribe("e1", func(bool) { n++ })
		unsub()
		unsub()
		h.makeInteractive("e1")
		if n != 1 {
			t.Error("unsubscribed callback called again, calls:", n)
		}
	})

	t.Run("late subscriber replay", func(t *testing.T) {
		h := newHarness()
		h.makeInteractive("e1")
		got := []bool{}
		h.reg.Subscribe("e1", func(v bool) { got = append(got, v) })
		if len(got) != 1 || !got[0] {
			t.Error("late subscriber did not get current state:", got)
		}
	})

	t.Run("reentrant", func(t *testing.T) {
		h := newHarness()
		seen := false
		h.reg.Subscribe("e1", func(v bool) {
			// must not deadlock
			seen = h.reg.IsInteractive("e1") == v
		})
		h.makeInteractive("e1")
		if !seen {
			t.Error("reentrant read did not observe the notified value")
		}
	})

	t.Run("reentrant change delivered after current callback", func(t *testing.T) {
		h := newHarness()
		h.makeInteractive("e1")

		got := []string{}
		h.reg.Subscribe("e1", func(v bool) {
			got = append(got, fmt.Sprint("a:", v))
			if !v {
				h.reg.UpdateAnchorCount("e1", 3)
			}
		})
		h.reg.Subscribe("e1", func(v bool) { got = append(got, fmt.Sprint("b:", v)) })
		got = got[:0]

		h.reg.UpdateAnchorCount("e1", 0)

		want := "a:false b:false a:true b:true"
		if strings.Join(got, " ") != want {
			t.Errorf("unexpected delivery order: %s, expected %s", strings.Join(got, " "), want)
		}
	})

	t.Run("concurrent changes delivered in order", func(t *testing.T) {
		h := newHarness()
		h.reg.Init("e1")
		h.reg.SetContainerMounted("e1", true)
		h.reg.SetDataLoaded("e1", true)

		entered := make(chan struct{})
		release := make(chan struct{})
		h.reg.Subscribe("e1", func(v bool) {
			if v {
				close(entered)
				<-release
			}
		})

		var mtx sync.Mutex
		seen := []bool{}
		h.reg.Subscribe("e1", func(v bool) {
			mtx.Lock()
			defer mtx.Unlock()
			seen = append(seen, v)
		})

		done := make(chan struct{})
		go func() {
			h.reg.UpdateAnchorCount("e1", 3)
			close(done)
		}()

		<-entered
		// the upgrade is still being delivered on the other goroutine
		h.reg.UpdateAnchorCount("e1", 0)
		close(release)
		<-done

		mtx.Lock()
		defer mtx.Unlock()
		if len(seen) != 3 || seen[0] || !seen[1] || seen[2] {
			t.Error("notifications out of order:", seen)
		}
		if seen[len(seen)-1] != h.reg.IsInteractive("e1") {
			t.Error("last notified value does not match state:", seen)
		}
	})

	t.Run("hydration complete", func(t *testing.T) {
		h := newHarness()
		n := 0
		h.reg.OnHydrationComplete("e1", func() { n++ })
		if n != 0 {
			t.Fatal("hydration complete called while not interactive")
		}
		h.makeInteractive("e1")
		h.reg.UpdateAnchorCount("e1", 0)
		h.reg.UpdateAnchorCount("e1", 1)
		if n != 2 {
			t.Error("expected two completions, got", n)
		}
	})
}

func TestForceInteractive(t *testing.T) {
	h := newHarness()
	got := []bool{}
	h.reg.Subscribe("e1", func(v bool) { got = append(got, v) })

	h.reg.ForceInteractive("e1", true)
	if h.reg.IsInteractive("e1") || len(got) != 1 {
		t.Fatal("forcing an unknown instance had an effect")
	}

	h.reg.Init("e1")
	h.reg.ForceInteractive("e1", true)
	if !h.reg.IsInteractive("e1") || h.reg.IsHydrating("e1") {
		t.Error("force did not set the flags")
	}
	if len(got) != 2 || !got[1] {
		t.Error("subscribers not notified of forced state:", got)
	}
	s := h.state(t, "e1")
	if s.WatchdogArmed {
		t.Error("watchdog armed while forced interactive")
	}
	if last := s.Transitions[len(s.Transitions)-1]; last.Reason != readiness.ReasonForced {
		t.Error("forced transition not recorded:", last)
	}

	h.reg.ForceInteractive("e1", true)
	if len(got) != 2 {
		t.Error("repeated force notified again")
	}

	h.reg.ForceInteractive("e1", false)
	if h.reg.IsInteractive("e1") || !h.reg.IsHydrating("e1") {
		t.Error("force false did not reset the flags")
	}
	if !h.state(t, "e1").WatchdogArmed {
		t.Error("watchdog not armed after forcing non-interactive")
	}
}

func TestTeardown(t *testing.T) {
	h := newHarness()
	n := 0
	h.reg.Subscribe("e1", func(bool) { n++ })
	h.makeInteractive("e1")
	h.reg.SetContainerMounted("e1", false)
	h.reg.UpdateAnchorCount("e1", 0)

	h.reg.Teardown("e1")

	if frames, timers := h.clock.Pending(); frames != 0 || timers != 0 {
		t.Error("pending callbacks survived teardown:", frames, timers)
	}
	if _, ok := h.reg.Snapshot("e1"); ok {
		t.Error("state survived teardown")
	}
	if h.reg.IsInteractive("e1") || !h.reg.IsHydrating("e1") {
		t.Error("unknown instance does not read as not ready")
	}

	before := n
	h.makeInteractive("e1")
	if n != before {
		t.Error("subscriber survived teardown")
	}
}

func TestDefaultInstanceAndIsolation(t *testing.T) {
	h := newHarness()
	h.makeInteractive("")

	if !h.reg.IsInteractive(readiness.DefaultInstance) {
		t.Error("empty id does not map to the default instance")
	}
	if h.reg.IsInteractive("other") {
		t.Error("instances share state")
	}
	h.reg.Init("other")
	ids := h.reg.Instances()
	if len(ids) != 2 || ids[0] != readiness.DefaultInstance || ids[1] != "other" {
		t.Error("unexpected instances:", ids)
	}
}

func TestAnchorStability(t *testing.T) {
	h := newHarness()
	h.reg.UpdateAnchorCount("e1", 3)
	if h.state(t, "e1").AnchorCountStable {
		t.Fatal("changed count reported stable")
	}

	h.reg.UpdateAnchorCount("e1", 3)
	if !h.state(t, "e1").StabilityCheckPending {
		t.Fatal("no stability check scheduled for unchanged count")
	}
	h.clock.Frame()
	if !h.state(t, "e1").AnchorCountStable {
		t.Error("unchanged count not marked stable after a frame")
	}

	h.reg.UpdateAnchorCount("e1", 4)
	s := h.state(t, "e1")
	if s.AnchorCountStable || s.LastAnchorCount != 4 {
		t.Error("stability not reset on change:", s.AnchorCountStable, s.LastAnchorCount)
	}
}

func TestRecordMount(t *testing.T) {
	h := newHarness()
	h.reg.RecordMount("e1")
	h.reg.RecordMount("e1")

	s := h.state(t, "e1")
	if !s.ProviderMounted {
		t.Error("record mount did not mark container mounted")
	}
	if s.MountCount != 2 {
		t.Error("expected mount count 2, got", s.MountCount)
	}
}
