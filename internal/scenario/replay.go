package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/readiness"
	"github.com/ja-he/editgate/internal/schedule"
	"github.com/ja-he/editgate/internal/selection"
)

// Signals is the part of a readiness registry that scenario steps drive.
type Signals interface {
	Init(id string)
	SetContainerMounted(id string, mounted bool)
	RecordMount(id string)
	SetDataLoaded(id string, loaded bool)
	UpdateAnchorCount(id string, count int)
	ForceInteractive(id string, interactive bool)
	Teardown(id string)
}

// Framer flushes one animation frame.
type Framer interface {
	Frame()
}

// Apply applies a single event.
// Frame steps need a Framer; with a nil Framer (real-time replay, where
// frames pass on their own) they do nothing.
func Apply(signals Signals, framer Framer, ev Event) {
	id := ev.Instance
	step := ev.Step
	switch step.Op {
	case OpInit:
		signals.Init(id)
	case OpMount:
		signals.SetContainerMounted(id, *step.Value)
	case OpRecordMount:
		signals.RecordMount(id)
	case OpData:
		signals.SetDataLoaded(id, *step.Value)
	case OpAnchors:
		signals.UpdateAnchorCount(id, step.Count)
	case OpForce:
		signals.ForceInteractive(id, *step.Value)
	case OpTeardown:
		signals.Teardown(id)
	case OpFrame:
		if framer != nil {
			framer.Frame()
		}
	}
}

func (s Step) String() string {
	switch s.Op {
	case OpMount, OpData, OpForce:
		return fmt.Sprintf("%s %t", s.Op, *s.Value)
	case OpAnchors:
		return fmt.Sprintf("%s %d", s.Op, s.Count)
	default:
		return string(s.Op)
	}
}

// Options configure a replay.
type Options struct {
	WatchdogTimeout time.Duration
	NoticeDuration  time.Duration

	// Settle is how long to keep the clock running after the last step;
	// zero means one watchdog timeout.
	Settle time.Duration

	Logger *zerolog.Logger
}

// Replay runs the scenario on a fresh registry with a deterministic clock
// and returns the transcript: applied steps, interactive notifications,
// changes of the legacy hydrating flag, notices, the final state of every
// instance and the resolved surface of every selection.
//
// Steps sharing a time form one synchronous tick: no frame passes between
// them unless a frame step says so.
func Replay(f *File, opts Options) []string {
	logger := opts.Logger
	if logger == nil {
		logger = &log.Logger
	}

	epoch := time.Unix(0, 0).UTC()
	clock := schedule.NewManual(epoch)
	t := transcript{clock: clock, epoch: epoch}

	var reg *readiness.Registry
	hydrating := map[string]bool{}
	for _, inst := range f.Instances {
		hydrating[inst.ID] = true
	}
	checkHydrating := func() {
		for _, inst := range f.Instances {
			if h := reg.IsHydrating(inst.ID); h != hydrating[inst.ID] {
				hydrating[inst.ID] = h
				t.add(inst.ID, "hydrating=%t", h)
			}
		}
	}

	reg = readiness.NewRegistry(
		readiness.WithScheduler(observed{Scheduler: clock, after: checkHydrating}),
		readiness.WithWatchdogTimeout(opts.WatchdogTimeout),
		readiness.WithNoticeDuration(opts.NoticeDuration),
		readiness.WithLogger(logger),
		readiness.WithPresenter(notice.PresenterFunc(func(n notice.Notice) {
			t.add(n.Instance, "notice %q for %s", n.Message, n.Duration)
		})),
	)

	subscribe := func(id string) {
		first := true
		reg.Subscribe(id, func(interactive bool) {
			if first {
				first = false
				t.add(id, "subscribed interactive=%t", interactive)
				return
			}
			t.add(id, "interactive=%t", interactive)
		})
	}
	for _, inst := range f.Instances {
		subscribe(inst.ID)
	}

	for _, ev := range f.Timeline() {
		clock.AdvanceTo(epoch.Add(ev.At))
		t.add(ev.Instance, "> %s", ev.Step)
		Apply(reg, clock, ev)
		checkHydrating()
		if ev.Step.Op == OpTeardown {
			subscribe(ev.Instance)
		}
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = opts.WatchdogTimeout
		if settle <= 0 {
			settle = readiness.DefaultWatchdogTimeout
		}
	}
	clock.Advance(settle)

	for _, inst := range f.Instances {
		t.final(reg, inst.ID)
	}

	resolver := selection.Resolver{Logger: logger}
	for i, def := range f.Selections {
		snap, err := def.Snapshot()
		if err != nil {
			t.add(fmt.Sprintf("selection[%d]", i), "invalid: %s", err.Error())
			continue
		}
		target := resolver.TargetOf(snap)
		t.add(fmt.Sprintf("selection[%d]", i), "surface=%s target=%s", target.Surface, target.TargetID)
	}

	return t.lines
}

// observed calls after once each scheduled callback has run.
type observed struct {
	schedule.Scheduler
	after func()
}

func (o observed) NextFrame(fn func()) schedule.Handle {
	return o.Scheduler.NextFrame(func() {
		fn()
		o.after()
	})
}

func (o observed) After(d time.Duration, fn func()) schedule.Handle {
	return o.Scheduler.After(d, func() {
		fn()
		o.after()
	})
}

type transcript struct {
	clock *schedule.Manual
	epoch time.Time
	lines []string
}

func (t *transcript) add(subject string, format string, args ...any) {
	t.addAt(t.clock.Now(), subject, format, args...)
}

func (t *transcript) addAt(at time.Time, subject string, format string, args ...any) {
	ms := at.Sub(t.epoch).Milliseconds()
	t.lines = append(t.lines, fmt.Sprintf("%7dms  %-12s %s", ms, subject, fmt.Sprintf(format, args...)))
}

func (t *transcript) final(reg *readiness.Registry, id string) {
	s, ok := reg.Snapshot(id)
	if !ok {
		t.add(id, "final: torn down")
		return
	}
	t.add(id, "final: interactive=%t hydrating=%t mounted=%t data=%t anchors=%d mounts=%d",
		s.Interactive, s.LegacyHydrating, s.ProviderMounted, s.DataLoaded, s.CurrentAnchorCount, s.MountCount)
	for _, tr := range s.Transitions {
		t.addAt(tr.At, id, "transition %t->%t (%s)", tr.From, tr.To, tr.Reason)
	}
}

// Text joins transcript lines into a newline-terminated text.
func Text(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
