// Package notice implements transient, auto-dismissing user-facing notices.
package notice

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ja-he/editgate/internal/schedule"
)

// Notice is a short message shown to the user for a fixed duration.
type Notice struct {
	Instance string
	Message  string
	Duration time.Duration
}

// Presenter presents notices. Presentation is fire-and-forget.
type Presenter interface {
	Present(n Notice)
}

// PresenterFunc adapts a function to a Presenter.
type PresenterFunc func(Notice)

// Present calls f(n).
func (f PresenterFunc) Present(n Notice) { f(n) }

// LogPresenter presents notices as warn-level log entries.
// A nil Logger means the global logger.
type LogPresenter struct {
	Logger *zerolog.Logger
}

// Present logs the notice.
func (p LogPresenter) Present(n Notice) {
	logger := p.Logger
	if logger == nil {
		logger = &log.Logger
	}
	logger.Warn().
		Str("instance", n.Instance).
		Dur("duration", n.Duration).
		Msg(n.Message)
}

// Board keeps the currently visible notices and dismisses each one once its
// duration has passed.
type Board struct {
	scheduler schedule.Scheduler
	onChange  func()

	mtx    sync.Mutex
	last   int
	active []shown
}

type shown struct {
	id      int
	notice  Notice
	expires time.Time
}

// NewBoard returns a Board using the given scheduler for dismissal.
// onChange, if non-nil, is called after a notice is shown or dismissed.
func NewBoard(scheduler schedule.Scheduler, onChange func()) *Board {
	return &Board{scheduler: scheduler, onChange: onChange}
}

// Present shows n until n.Duration has passed.
// Notices without a positive duration are dropped.
func (b *Board) Present(n Notice) {
	if n.Duration <= 0 {
		return
	}

	b.mtx.Lock()
	b.last++
	id := b.last
	b.active = append(b.active, shown{id: id, notice: n, expires: b.scheduler.Now().Add(n.Duration)})
	b.mtx.Unlock()

	b.scheduler.After(n.Duration, func() { b.dismiss(id) })
	b.changed()
}

// Active returns the notices currently shown, oldest first.
func (b *Board) Active() []Notice {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	result := make([]Notice, len(b.active))
	for i := range b.active {
		result[i] = b.active[i].notice
	}
	return result
}

func (b *Board) dismiss(id int) {
	b.mtx.Lock()
	found := false
	for i := range b.active {
		if b.active[i].id == id {
			b.active = append(b.active[:i:i], b.active[i+1:]...)
			found = true
			break
		}
	}
	b.mtx.Unlock()

	if found {
		b.changed()
	}
}

func (b *Board) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}

// Fanout presents every notice to each of the given presenters in order.
type Fanout []Presenter

// Present presents n to all presenters.
func (f Fanout) Present(n Notice) {
	for _, p := range f {
		p.Present(n)
	}
}
