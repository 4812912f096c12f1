package readiness

import (
	"github.com/ja-he/editgate/internal/schedule"
)

// SetContainerMounted records whether the hosting container is attached.
// The first mount observed also counts towards the mount count.
// Repeating the current value does nothing.
func (r *Registry) SetContainerMounted(id string, mounted bool) {
	var fx effects

	r.mtx.Lock()
	r.setContainerMounted(r.ensure(key(id)), mounted, &fx)
	r.unlockAndDispatch(&fx)
}

func (r *Registry) setContainerMounted(inst *instance, mounted bool, fx *effects) {
	s := &inst.state
	if s.ProviderMounted == mounted {
		return
	}
	s.ProviderMounted = mounted
	if mounted && s.MountCount == 0 {
		s.MountCount++
	}

	r.logger.Debug().
		Str("instance", inst.id).
		Bool("mounted", mounted).
		Int("mount-count", s.MountCount).
		Msg("container mount changed")

	r.reevaluate(inst, ReasonProviderMount, fx)
}

// RecordMount records a container (re)mount.
// It always bumps the mount count and implies SetContainerMounted(id, true).
func (r *Registry) RecordMount(id string) {
	var fx effects

	r.mtx.Lock()
	inst := r.ensure(key(id))
	inst.state.MountCount++
	r.logger.Debug().Str("instance", inst.id).Int("mount-count", inst.state.MountCount).Msg("mount recorded")
	r.setContainerMounted(inst, true, &fx)
	r.unlockAndDispatch(&fx)
}

// SetDataLoaded records whether the document content has resolved.
// Repeating the current value does nothing.
func (r *Registry) SetDataLoaded(id string, loaded bool) {
	var fx effects

	r.mtx.Lock()
	inst := r.ensure(key(id))
	if inst.state.DataLoaded != loaded {
		inst.state.DataLoaded = loaded
		r.logger.Debug().Str("instance", inst.id).Bool("loaded", loaded).Msg("data load changed")
		r.reevaluate(inst, ReasonDataLoad, &fx)
	}
	r.unlockAndDispatch(&fx)
}

// UpdateAnchorCount records the number of addressable editable regions
// currently rendered. Negative counts are treated as zero.
// A changed count is re-evaluated immediately.
func (r *Registry) UpdateAnchorCount(id string, count int) {
	if count < 0 {
		count = 0
	}

	var fx effects

	r.mtx.Lock()
	inst := r.ensure(key(id))
	s := &inst.state
	previous := s.CurrentAnchorCount
	s.CurrentAnchorCount = count

	if count == s.LastAnchorCount {
		if inst.stabilityCheck == schedule.NoHandle && !s.AnchorCountStable {
			var h schedule.Handle
			h = r.scheduler.NextFrame(func() { r.anchorCountSettled(inst, &h) })
			inst.stabilityCheck = h
		}
	} else {
		r.scheduler.Cancel(inst.stabilityCheck)
		inst.stabilityCheck = schedule.NoHandle
		s.LastAnchorCount = count
		s.AnchorCountStable = false
	}

	if previous != count {
		r.reevaluate(inst, ReasonAnchorUpdate, &fx)
	}
	r.unlockAndDispatch(&fx)
}

func (r *Registry) anchorCountSettled(inst *instance, h *schedule.Handle) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !r.current(inst) || inst.stabilityCheck != *h {
		return
	}
	inst.stabilityCheck = schedule.NoHandle
	inst.state.AnchorCountStable = true
}

// ForceInteractive sets the interactive and legacy hydrating flags directly,
// bypassing the readiness criteria, and notifies subscribers.
// It is an escape hatch for operators and tests. Unknown instances and
// values equal to the current one are ignored.
func (r *Registry) ForceInteractive(id string, interactive bool) {
	var fx effects

	r.mtx.Lock()
	inst, ok := r.instances[key(id)]
	switch {
	case !ok:
		r.logger.Warn().Str("instance", key(id)).Msg("ignoring forced interactive state for unknown instance")
	case inst.state.Interactive != interactive:
		s := &inst.state
		now := r.scheduler.Now()
		s.Transitions = append(s.Transitions, Transition{At: now, From: s.Interactive, To: interactive, Reason: ReasonForced})
		s.LastStateChange = now
		s.LastEvaluationReason = ReasonForced
		s.Interactive = interactive
		s.LegacyHydrating = !interactive

		r.scheduler.Cancel(inst.hydrationCheck)
		inst.hydrationCheck = schedule.NoHandle
		if interactive {
			r.disarmWatchdog(inst)
		} else {
			r.armWatchdog(inst)
		}

		r.logger.Warn().Str("instance", inst.id).Bool("interactive", interactive).Msg("interactive state forced")
		fx.notify(inst.id, interactive, r.subscribersOf(inst.id))
	}
	r.unlockAndDispatch(&fx)
}

// reevaluate derives the interactive flag from the current signals and
// applies a transition if it changed.
// Must be called with r.mtx held.
func (r *Registry) reevaluate(inst *instance, reason string, fx *effects) {
	s := &inst.state
	s.LastEvaluationReason = reason

	shouldBeInteractive := s.ProviderMounted && s.CurrentAnchorCount > 0 && s.DataLoaded
	if shouldBeInteractive == s.Interactive {
		return
	}

	now := r.scheduler.Now()
	s.Transitions = append(s.Transitions, Transition{At: now, From: s.Interactive, To: shouldBeInteractive, Reason: reason})
	s.LastStateChange = now
	s.Interactive = shouldBeInteractive

	r.logger.Debug().
		Str("instance", inst.id).
		Str("reason", reason).
		Bool("interactive", shouldBeInteractive).
		Bool("provider-mounted", s.ProviderMounted).
		Int("anchors", s.CurrentAnchorCount).
		Bool("data-loaded", s.DataLoaded).
		Msg("readiness transition")

	if shouldBeInteractive {
		s.LegacyHydrating = false
		r.scheduler.Cancel(inst.hydrationCheck)
		inst.hydrationCheck = schedule.NoHandle
		r.disarmWatchdog(inst)
	} else {
		// the legacy flag is only re-armed if the loss persists for a frame
		if inst.hydrationCheck == schedule.NoHandle {
			var h schedule.Handle
			h = r.scheduler.NextFrame(func() { r.confirmHydrating(inst, &h) })
			inst.hydrationCheck = h
		}
		r.armWatchdog(inst)
	}

	fx.notify(inst.id, shouldBeInteractive, r.subscribersOf(inst.id))
}

func (r *Registry) confirmHydrating(inst *instance, h *schedule.Handle) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !r.current(inst) || inst.hydrationCheck != *h {
		return
	}
	inst.hydrationCheck = schedule.NoHandle

	s := &inst.state
	if !s.ProviderMounted && s.CurrentAnchorCount == 0 && !s.Interactive {
		s.LegacyHydrating = true
		r.logger.Debug().Str("instance", inst.id).Msg("container and anchors gone for a frame, hydrating again")
		return
	}
	r.logger.Debug().
		Str("instance", inst.id).
		Bool("provider-mounted", s.ProviderMounted).
		Int("anchors", s.CurrentAnchorCount).
		Bool("interactive", s.Interactive).
		Msg("readiness loss was transient, not hydrating")
}
