// Package readiness tracks whether editor instances are safe to interact
// with.
//
// Each instance ingests three independent signals (container mounted, data
// loaded, number of addressable anchors) and derives a single interactive
// flag from them. Upgrades take effect immediately; downgrades of the legacy
// hydrating flag are confirmed one animation frame later so coarse loading
// UI does not flicker. A watchdog reports instances that stay without
// anchors and unsticks instances whose data never reports as loaded.
//
// Instances are independent and live in a Registry, keyed by id.
package readiness

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/schedule"
)

// DefaultInstance is the id used when an operation is given an empty id.
const DefaultInstance = "default"

// Defaults for registry options.
const (
	DefaultWatchdogTimeout = 2000 * time.Millisecond
	DefaultNoticeDuration  = 5 * time.Second
)

// ZeroAnchorsMessage is the notice shown when the watchdog finds no anchors.
const ZeroAnchorsMessage = "No anchors registered yet, editor not ready"

// Registry holds the readiness state and subscribers of any number of
// independent editor instances.
//
// A Registry is safe for concurrent use. Subscriber callbacks and notices are
// delivered after internal locks are released, so callbacks may call back
// into the registry. They are delivered from a single queue in the order the
// causing changes were applied, even when several goroutines change the
// registry; an operation may therefore return before its callbacks ran if
// another goroutine is busy delivering.
type Registry struct {
	scheduler       schedule.Scheduler
	watchdogTimeout time.Duration
	noticeDuration  time.Duration
	presenter       notice.Presenter
	logger          *zerolog.Logger

	mtx         sync.Mutex
	instances   map[string]*instance
	subscribers map[string]*subscriberList

	queue       []func()
	dispatching bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithScheduler sets the scheduler for frame checks and the watchdog.
func WithScheduler(s schedule.Scheduler) Option {
	return func(r *Registry) { r.scheduler = s }
}

// WithWatchdogTimeout sets the watchdog timeout. Non-positive values are
// ignored.
func WithWatchdogTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.watchdogTimeout = d
		}
	}
}

// WithNoticeDuration sets how long the zero-anchors notice stays visible.
func WithNoticeDuration(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.noticeDuration = d
		}
	}
}

// WithPresenter sets the collaborator presenting the zero-anchors notice.
func WithPresenter(p notice.Presenter) Option {
	return func(r *Registry) { r.presenter = p }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry returns an empty registry.
//
// Defaults: real-time scheduler, 2s watchdog, 5s notices presented as log
// entries, global logger.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		watchdogTimeout: DefaultWatchdogTimeout,
		noticeDuration:  DefaultNoticeDuration,
		logger:          &log.Logger,
		instances:       map[string]*instance{},
		subscribers:     map[string]*subscriberList{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.scheduler == nil {
		r.scheduler = schedule.NewClock(schedule.DefaultFrameInterval)
	}
	if r.presenter == nil {
		r.presenter = notice.LogPresenter{Logger: r.logger}
	}
	return r
}

func key(id string) string {
	if id == "" {
		return DefaultInstance
	}
	return id
}

// Init creates the instance if it does not exist yet and arms its watchdog.
func (r *Registry) Init(id string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.ensure(key(id))
}

// ensure returns the instance for id, creating it if needed.
// Must be called with r.mtx held.
func (r *Registry) ensure(id string) *instance {
	if inst, ok := r.instances[id]; ok {
		return inst
	}

	now := r.scheduler.Now()
	inst := &instance{
		id: id,
		state: State{
			LegacyHydrating: true,
			LastStateChange: now,
		},
	}
	r.instances[id] = inst
	r.armWatchdog(inst)

	r.logger.Debug().Str("instance", id).Msg("readiness tracking started")
	return inst
}

// current reports whether inst is still the registered instance for its id.
// Scheduled callbacks use this to turn into no-ops after teardown.
// Must be called with r.mtx held.
func (r *Registry) current(inst *instance) bool {
	return r.instances[inst.id] == inst
}

// Teardown cancels all pending callbacks of the instance and removes it and
// its subscribers.
func (r *Registry) Teardown(id string) {
	id = key(id)

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if inst, ok := r.instances[id]; ok {
		r.scheduler.Cancel(inst.watchdog)
		r.scheduler.Cancel(inst.hydrationCheck)
		r.scheduler.Cancel(inst.stabilityCheck)
		inst.watchdog = schedule.NoHandle
		inst.hydrationCheck = schedule.NoHandle
		inst.stabilityCheck = schedule.NoHandle
	}
	delete(r.instances, id)
	delete(r.subscribers, id)

	r.logger.Debug().Str("instance", id).Msg("readiness tracking torn down")
}

// IsInteractive reports whether the instance is interactive.
// Unknown instances are not interactive.
func (r *Registry) IsInteractive(id string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	inst, ok := r.instances[key(id)]
	return ok && inst.state.Interactive
}

// IsHydrating returns the legacy hydrating flag.
// Unknown instances are hydrating.
func (r *Registry) IsHydrating(id string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	inst, ok := r.instances[key(id)]
	if !ok {
		return true
	}
	return inst.state.LegacyHydrating
}

// Snapshot returns a copy of the instance's state.
// The second return value is false for unknown instances.
func (r *Registry) Snapshot(id string) (State, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	inst, ok := r.instances[key(id)]
	if !ok {
		return State{}, false
	}
	return inst.snapshot(), true
}

// Instances returns the ids of all known instances, sorted.
func (r *Registry) Instances() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
