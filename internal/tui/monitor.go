// Package tui implements a terminal monitor for editor readiness.
//
// The monitor lists every tracked editor instance with its signals and
// watchdog progress, resolves a set of selection snapshots, shows active
// notices and the most recent log entries.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/ja-he/editgate/internal/config"
	"github.com/ja-he/editgate/internal/control/action"
	"github.com/ja-he/editgate/internal/input"
	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/potatolog"
	"github.com/ja-he/editgate/internal/readiness"
	"github.com/ja-he/editgate/internal/selection"
	"github.com/ja-he/editgate/internal/styling"
)

// RefreshInterval is how often the monitor redraws without any input, so
// watchdog progress stays current.
const RefreshInterval = 100 * time.Millisecond

type monitorEvent int

const (
	monitorEventExit monitorEvent = iota
	monitorEventRender
)

// MonitorParams are the parts a Monitor shows.
type MonitorParams struct {
	Registry        *readiness.Registry
	Board           *notice.Board
	Logs            potatolog.LogReader
	Selections      []selection.Snapshot
	WatchdogTimeout time.Duration
	Now             func() time.Time

	// Keys maps key sequences to action names; nil means the default mapping.
	Keys map[string]string
}

// Monitor renders the readiness registry to a screen and applies key input.
type Monitor struct {
	screen *ScreenHandler
	styles *styling.Stylesheet
	params MonitorParams

	keys *input.Tree
	help string

	mtx    sync.Mutex
	cursor int
	exit   bool

	// only show log entries of the selected instance
	filterLog bool

	events chan monitorEvent
}

// NewMonitor returns a monitor drawing to the given screen.
// It fails if the key mapping is invalid.
func NewMonitor(screen *ScreenHandler, styles *styling.Stylesheet, params MonitorParams) (*Monitor, error) {
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.WatchdogTimeout <= 0 {
		params.WatchdogTimeout = readiness.DefaultWatchdogTimeout
	}
	if params.Keys == nil {
		params.Keys = config.Default(config.Dark).Keys
	}

	m := &Monitor{
		screen: screen,
		styles: styles,
		params: params,
		events: make(chan monitorEvent, 32),
	}

	keys, err := input.ConstructNamedInputTree(params.Keys, m.actions())
	if err != nil {
		return nil, fmt.Errorf("invalid key mapping (%w)", err)
	}
	m.keys = keys
	m.help = formatHelp(keys.GetHelp())

	return m, nil
}

// formatHelp renders help entries on one line, grouping the key sequences of
// each explanation.
func formatHelp(help input.Help) string {
	byExplanation := map[string][]string{}
	for keyspec, explanation := range help {
		byExplanation[explanation] = append(byExplanation[explanation], keyspec)
	}
	explanations := make([]string, 0, len(byExplanation))
	for explanation := range byExplanation {
		explanations = append(explanations, explanation)
	}
	sort.Strings(explanations)

	parts := make([]string, 0, len(explanations))
	for _, explanation := range explanations {
		keyspecs := byExplanation[explanation]
		sort.Strings(keyspecs)
		parts = append(parts, fmt.Sprintf("%s %s", strings.Join(keyspecs, "/"), explanation))
	}
	return strings.Join(parts, "  ")
}

// RequestRender asks the running monitor to redraw. It never blocks.
func (m *Monitor) RequestRender() {
	select {
	case m.events <- monitorEventRender:
	default:
	}
}

// Selected returns the id of the instance under the cursor, if any.
func (m *Monitor) Selected() (string, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.selected()
}

func (m *Monitor) selected() (string, bool) {
	ids := m.params.Registry.Instances()
	if len(ids) == 0 {
		return "", false
	}
	if m.cursor >= len(ids) {
		m.cursor = len(ids) - 1
	}
	return ids[m.cursor], true
}

// ProcessKey applies a key event and reports whether the monitor should exit.
func (m *Monitor) ProcessKey(e *tcell.EventKey) (exit bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	key := input.KeyFromTcellEvent(e)
	if !m.keys.ProcessInput(key) {
		log.Debug().Str("key", key.ToDebugString()).Msg("could not apply key input")
	}
	return m.exit
}

// actions returns the monitor's actions by name.
// They run from ProcessKey, i.e. with m.mtx held.
func (m *Monitor) actions() action.Named {
	reg := m.params.Registry
	return action.Named{
		"quit": action.NewSimple(func() string { return "quit" }, func() {
			m.exit = true
		}),
		"next": action.NewSimple(func() string { return "next instance" }, func() {
			if m.cursor < len(reg.Instances())-1 {
				m.cursor++
			}
		}),
		"previous": action.NewSimple(func() string { return "previous instance" }, func() {
			if m.cursor > 0 {
				m.cursor--
			}
		}),
		"toggle-force": action.NewSimple(func() string { return "force/unforce interactive" }, func() {
			if id, ok := m.selected(); ok {
				interactive := !reg.IsInteractive(id)
				log.Info().Str("instance", id).Bool("interactive", interactive).Msg("forcing interactivity from monitor")
				reg.ForceInteractive(id, interactive)
			}
		}),
		"filter-log": action.NewSimple(func() string { return "filter log by instance" }, func() {
			m.filterLog = !m.filterLog
		}),
		"teardown": action.NewSimple(func() string { return "tear down" }, func() {
			if id, ok := m.selected(); ok {
				log.Info().Str("instance", id).Msg("tearing down from monitor")
				reg.Teardown(id)
			}
		}),
	}
}

// Draw renders the current state and shows it.
func (m *Monitor) Draw() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	s := m.screen
	st := m.styles
	_, _, w, h := s.Dimensions()

	s.Clear()
	s.DrawBox(0, 0, w, h, st.Normal)

	now := m.params.Now()
	s.DrawBox(0, 0, w, 1, st.Title)
	s.DrawText(1, 0, w-2, 1, st.Title, fmt.Sprintf("editgate monitor  %s", now.Format("15:04:05.000")))

	row := 2
	s.DrawText(1, row, w-2, 1, st.Normal.Bolded(), instanceHeader())
	row++

	ids := m.params.Registry.Instances()
	if m.cursor >= len(ids) && len(ids) > 0 {
		m.cursor = len(ids) - 1
	}
	for i, id := range ids {
		if row >= h {
			break
		}
		state, ok := m.params.Registry.Snapshot(id)
		if !ok {
			continue
		}
		m.drawInstance(row, w, i == m.cursor, id, state, now)
		row++
	}
	if len(ids) == 0 && row < h {
		s.DrawText(1, row, w-2, 1, st.Normal.DefaultDimmed(), "no instances")
		row++
	}

	row++
	if len(m.params.Selections) > 0 && row < h {
		s.DrawText(1, row, w-2, 1, st.Normal.Bolded(), "SELECTIONS")
		row++
		for i, snap := range m.params.Selections {
			if row >= h {
				break
			}
			target := selection.TargetOf(snap)
			s.DrawText(1, row, 14, 1, st.Normal, fmt.Sprintf("selection[%d]", i))
			style := st.Surface
			if target.Surface == selection.SurfaceNone {
				style = st.Normal.DefaultDimmed()
			}
			s.DrawText(16, row, w-17, 1, style, fmt.Sprintf("%-8s %s", target.Surface, target.TargetID))
			row++
		}
		row++
	}

	if m.params.Board != nil {
		for _, n := range m.params.Board.Active() {
			if row >= h {
				break
			}
			s.DrawBox(0, row, w, 1, st.Notice)
			s.DrawText(1, row, w-2, 1, st.Notice, fmt.Sprintf("[%s] %s", n.Instance, n.Message))
			row++
		}
		row++
	}

	if m.params.Logs != nil && row < h-1 {
		m.drawLog(row, w, h-row-1)
	}

	s.DrawBox(0, h-1, w, 1, st.Title)
	s.DrawText(1, h-1, w-2, 1, st.Title, m.help)

	s.Show()
}

func instanceHeader() string {
	return fmt.Sprintf("%-16s %-12s %-9s %-7s %-5s %-7s %-6s %-14s %s",
		"INSTANCE", "STATE", "HYDRATING", "MOUNTED", "DATA", "ANCHORS", "MOUNTS", "WATCHDOG", "LAST REASON")
}

func (m *Monitor) drawInstance(row, w int, selected bool, id string, state readiness.State, now time.Time) {
	s := m.screen
	st := m.styles

	base := st.Normal
	if selected {
		base = st.Selected
	}
	s.DrawBox(0, row, w, 1, base)

	col := 1
	cell := func(width int, style styling.DrawStyling, text string) {
		s.DrawText(col, row, width, 1, style, text)
		col += width + 1
	}

	cell(16, base, id)
	if state.Interactive {
		cell(12, st.Interactive, "interactive")
	} else {
		cell(12, st.NotReady, "not ready")
	}
	if state.LegacyHydrating {
		cell(9, st.Hydrating, "yes")
	} else {
		cell(9, base, "no")
	}
	cell(7, base, yesNo(state.ProviderMounted))
	cell(5, base, yesNo(state.DataLoaded))
	anchors := fmt.Sprint(state.CurrentAnchorCount)
	if !state.AnchorCountStable {
		anchors += "~"
	}
	cell(7, base, anchors)
	cell(6, base, fmt.Sprint(state.MountCount))

	if state.WatchdogArmed {
		elapsed := now.Sub(state.WatchdogStartTime)
		if elapsed > m.params.WatchdogTimeout {
			elapsed = m.params.WatchdogTimeout
		}
		progress := float64(elapsed) / float64(m.params.WatchdogTimeout)
		cell(14, base.BlendedBG(st.Notice, progress), fmt.Sprintf("%5dms/%dms", elapsed.Milliseconds(), m.params.WatchdogTimeout.Milliseconds()))
	} else {
		cell(14, base.DefaultDimmed(), "-")
	}

	reason := state.LastEvaluationReason
	if n := len(state.Transitions); n > 0 {
		reason = fmt.Sprintf("%s (%d transitions)", reason, n)
	}
	cell(w-col-1, base, reason)
}

func (m *Monitor) drawLog(row, w, h int) {
	s := m.screen
	st := m.styles

	title := "LOG"
	var entries []potatolog.LogEntry
	if id, ok := m.selected(); ok && m.filterLog {
		title = fmt.Sprintf("LOG [%s]", id)
		entries = m.params.Logs.ForInstance(id)
	} else {
		entries = m.params.Logs.Get()
	}

	s.DrawText(1, row, w-2, 1, st.LogDefault.Bolded(), title)
	row++
	h--

	if len(entries) > h {
		entries = entries[len(entries)-h:]
	}
	for _, entry := range entries {
		style := st.LogDefault
		switch entry["level"] {
		case "warn":
			style = st.LogWarn
		case "error", "fatal", "panic":
			style = st.LogError
		}
		s.DrawText(1, row, w-2, 1, style, formatLogEntry(entry))
		row++
	}
}

func formatLogEntry(entry potatolog.LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5v", entry["level"])
	if instance, ok := entry["instance"]; ok {
		fmt.Fprintf(&b, " [%v]", instance)
	}
	fmt.Fprintf(&b, " %v", entry["message"])
	return b.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Run draws and processes input until the user exits.
// It finalizes the screen before returning.
func (m *Monitor) Run() {
	log.Info().Msg("editgate monitor started")

	var wg sync.WaitGroup

	// render loop, renders or exits when prompted accordingly
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer m.screen.Fini()
		m.Draw()
		for ev := range m.events {
			switch ev {
			case monitorEventRender:
				if emptyRenderEvents(m.events) {
					return
				}
				m.Draw()
			case monitorEventExit:
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.RequestRender()
			case <-done:
				return
			}
		}
	}()

	// input loop; PollEvent returns nil once the screen is finalized
	go func() {
		for {
			ev := m.screen.GetEventPollable().PollEvent()
			switch e := ev.(type) {
			case nil:
				return
			case *tcell.EventKey:
				if m.ProcessKey(e) {
					close(done)
					m.events <- monitorEventExit
					return
				}
			case *tcell.EventResize:
				m.screen.NeedsSync()
			}
			m.RequestRender()
		}
	}()

	wg.Wait()
}

// emptyRenderEvents drains buffered events and reports whether an exit event
// was among them.
func emptyRenderEvents(c chan monitorEvent) bool {
	for {
		select {
		case ev := <-c:
			if ev == monitorEventExit {
				return true
			}
		default:
			return false
		}
	}
}
