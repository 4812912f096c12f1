package readiness

import (
	"github.com/rs/zerolog"

	"github.com/ja-he/editgate/internal/notice"
)

type subscriber struct {
	id int
	fn func(interactive bool)
}

// subscriberList is the ordered set of subscribers of one instance.
type subscriberList struct {
	last    int
	entries []subscriber
}

// Subscribe registers fn to be called with the instance's interactive flag,
// once immediately and then every time the flag changes.
// Callbacks of one instance are called in subscription order. When called
// from within a callback, the initial call happens after that callback
// returns.
//
// The returned function unsubscribes fn; calling it more than once, or after
// the instance was torn down, does nothing.
func (r *Registry) Subscribe(id string, fn func(interactive bool)) (unsubscribe func()) {
	id = key(id)

	r.mtx.Lock()
	list, ok := r.subscribers[id]
	if !ok {
		list = &subscriberList{}
		r.subscribers[id] = list
	}
	list.last++
	sub := subscriber{id: list.last, fn: fn}
	list.entries = append(list.entries, sub)

	current := false
	if inst, ok := r.instances[id]; ok {
		current = inst.state.Interactive
	}
	var fx effects
	fx.notify(id, current, []subscriber{sub})
	r.unlockAndDispatch(&fx)

	return func() {
		r.mtx.Lock()
		defer r.mtx.Unlock()

		if r.subscribers[id] != list {
			return
		}
		for i := range list.entries {
			if list.entries[i].id == sub.id {
				list.entries = append(list.entries[:i:i], list.entries[i+1:]...)
				return
			}
		}
	}
}

// OnHydrationComplete calls fn whenever the instance becomes interactive,
// including immediately if it already is.
func (r *Registry) OnHydrationComplete(id string, fn func()) (unsubscribe func()) {
	return r.Subscribe(id, func(interactive bool) {
		if interactive {
			fn()
		}
	})
}

// subscribersOf returns a copy of the instance's subscribers.
// Must be called with r.mtx held.
func (r *Registry) subscribersOf(id string) []subscriber {
	list, ok := r.subscribers[id]
	if !ok || len(list.entries) == 0 {
		return nil
	}
	result := make([]subscriber, len(list.entries))
	copy(result, list.entries)
	return result
}

// effects collects the callbacks a locked operation wants to run once the
// lock is released.
type effects struct {
	notifications []notification

	presenter notice.Presenter
	notices   []notice.Notice
}

type notification struct {
	instance    string
	interactive bool
	subscribers []subscriber
}

func (fx *effects) notify(instance string, interactive bool, subscribers []subscriber) {
	fx.notifications = append(fx.notifications, notification{
		instance:    instance,
		interactive: interactive,
		subscribers: subscribers,
	})
}

// calls turns the collected effects into queue entries, notices first.
func (fx *effects) calls(logger *zerolog.Logger) []func() {
	var result []func()
	for _, n := range fx.notices {
		n := n
		presenter := fx.presenter
		result = append(result, func() { present(logger, presenter, n) })
	}
	for _, n := range fx.notifications {
		for _, sub := range n.subscribers {
			n, sub := n, sub
			result = append(result, func() { deliver(logger, n.instance, n.interactive, sub) })
		}
	}
	return result
}

// unlockAndDispatch queues the effects, releases r.mtx and delivers queued
// effects in order until the queue is empty.
// Only one goroutine delivers at a time; if another one already is, or the
// caller is itself a callback being delivered, the effects are only queued
// and the delivering goroutine picks them up.
// Must be called with r.mtx held.
func (r *Registry) unlockAndDispatch(fx *effects) {
	r.queue = append(r.queue, fx.calls(r.logger)...)
	if r.dispatching {
		r.mtx.Unlock()
		return
	}

	r.dispatching = true
	for len(r.queue) > 0 {
		call := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		r.mtx.Unlock()

		call()

		r.mtx.Lock()
	}
	r.queue = nil
	r.dispatching = false
	r.mtx.Unlock()
}

// deliver calls a single subscriber; a panicking subscriber is logged and
// does not affect the others.
func deliver(logger *zerolog.Logger, instance string, interactive bool, sub subscriber) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error().
				Str("instance", instance).
				Int("subscriber", sub.id).
				Interface("panic", p).
				Msg("readiness subscriber panicked")
		}
	}()
	sub.fn(interactive)
}

func present(logger *zerolog.Logger, presenter notice.Presenter, n notice.Notice) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error().Str("instance", n.Instance).Interface("panic", p).Msg("notice presenter panicked")
		}
	}()
	presenter.Present(n)
}
