package readiness

import (
	"time"

	"github.com/ja-he/editgate/internal/schedule"
)

// Reasons recorded with transitions and evaluations.
const (
	ReasonProviderMount  = "provider-mount"
	ReasonDataLoad       = "data-load"
	ReasonAnchorUpdate   = "anchor-update"
	ReasonWatchdogForced = "watchdog-forced"
	ReasonForced         = "forced"
)

// A Transition is an entry in an instance's audit trail: the interactive
// flag changed from From to To at time At, because of Reason.
type Transition struct {
	At     time.Time
	From   bool
	To     bool
	Reason string
}

// State is the readiness state of one editor instance.
//
// Interactive is the authoritative decision. LegacyHydrating is a coarse
// compatibility flag which lags behind Interactive by one frame when
// downgrading.
type State struct {
	LegacyHydrating bool
	MountCount      int
	ProviderMounted bool
	DataLoaded      bool

	CurrentAnchorCount int

	// Informational anchor-count stability detection. Not used for the
	// interactive decision.
	LastAnchorCount       int
	AnchorCountStable     bool
	StabilityCheckPending bool

	Interactive bool

	// WatchdogStartTime is the start of the running timer cycle; it moves
	// on with every re-arm after an expiry.
	WatchdogArmed              bool
	WatchdogStartTime          time.Time
	HasShownZeroAnchorsWarning bool

	// LastEvaluationReason is the reason of the most recent re-evaluation,
	// whether or not it led to a transition.
	LastEvaluationReason string
	LastStateChange      time.Time
	Transitions          []Transition
}

type instance struct {
	id    string
	state State

	watchdog       schedule.Handle
	hydrationCheck schedule.Handle
	stabilityCheck schedule.Handle
}

func (inst *instance) snapshot() State {
	s := inst.state
	s.WatchdogArmed = inst.watchdog != schedule.NoHandle
	s.StabilityCheckPending = inst.stabilityCheck != schedule.NoHandle
	s.Transitions = make([]Transition, len(inst.state.Transitions))
	copy(s.Transitions, inst.state.Transitions)
	return s
}
