package readiness

import (
	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/schedule"
)

// armWatchdog starts the watchdog for a new non-interactive period, unless
// one is already running.
// Must be called with r.mtx held.
func (r *Registry) armWatchdog(inst *instance) {
	if inst.watchdog != schedule.NoHandle {
		return
	}
	r.startWatchdogTimer(inst)
}

// startWatchdogTimer starts one timer cycle; WatchdogStartTime is the start
// of the current cycle.
// Must be called with r.mtx held.
func (r *Registry) startWatchdogTimer(inst *instance) {
	inst.state.WatchdogStartTime = r.scheduler.Now()
	var h schedule.Handle
	h = r.scheduler.After(r.watchdogTimeout, func() { r.watchdogExpired(inst, &h) })
	inst.watchdog = h
}

// Must be called with r.mtx held.
func (r *Registry) disarmWatchdog(inst *instance) {
	r.scheduler.Cancel(inst.watchdog)
	inst.watchdog = schedule.NoHandle
}

func (r *Registry) watchdogExpired(inst *instance, h *schedule.Handle) {
	var fx effects

	r.mtx.Lock()
	if !r.current(inst) || inst.watchdog != *h {
		r.mtx.Unlock()
		return
	}
	inst.watchdog = schedule.NoHandle

	s := &inst.state
	elapsed := r.scheduler.Now().Sub(s.WatchdogStartTime)

	if s.CurrentAnchorCount == 0 && !s.HasShownZeroAnchorsWarning {
		s.HasShownZeroAnchorsWarning = true
		r.logger.Warn().
			Str("instance", inst.id).
			Dur("elapsed", elapsed).
			Bool("provider-mounted", s.ProviderMounted).
			Int("anchors", s.CurrentAnchorCount).
			Bool("data-loaded", s.DataLoaded).
			Msg("watchdog: no anchors registered, editor not ready")
		fx.notices = append(fx.notices, notice.Notice{
			Instance: inst.id,
			Message:  ZeroAnchorsMessage,
			Duration: r.noticeDuration,
		})
		fx.presenter = r.presenter
	}

	// a mounted container whose data never reported completion would
	// otherwise keep the editor unusable forever
	if s.ProviderMounted && !s.DataLoaded {
		r.logger.Warn().
			Str("instance", inst.id).
			Dur("elapsed", elapsed).
			Msg("watchdog: container mounted but data never loaded, forcing data loaded")
		s.DataLoaded = true
		r.reevaluate(inst, ReasonWatchdogForced, &fx)
	}

	if !s.Interactive && inst.watchdog == schedule.NoHandle {
		r.startWatchdogTimer(inst)
	}
	r.unlockAndDispatch(&fx)
}
