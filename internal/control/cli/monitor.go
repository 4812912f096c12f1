package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ja-he/editgate/internal/notice"
	"github.com/ja-he/editgate/internal/potatolog"
	"github.com/ja-he/editgate/internal/readiness"
	"github.com/ja-he/editgate/internal/scenario"
	"github.com/ja-he/editgate/internal/schedule"
	"github.com/ja-he/editgate/internal/selection"
	"github.com/ja-he/editgate/internal/styling"
	"github.com/ja-he/editgate/internal/tui"
)

// MonitorCommand is the `monitor` command.
type MonitorCommand struct {
	Scenario      string `short:"s" long:"scenario" value-name:"<file>" description:"Scenario file to replay in real time (otherwise only the default instance is tracked)"`
	Theme         string `short:"t" long:"theme" choice:"light" choice:"dark" description:"Select a 'dark' or a 'light' default theme (note: only sets defaults, which are individually overridden by settings in config.yaml)"`
	LogOutputFile string `short:"l" long:"log-output-file" description:"specify a log output file (otherwise logs dropped)"`
	LogPretty     bool   `short:"p" long:"log-pretty" description:"prettify logs to file"`
}

// Execute executes the monitor command.
func (command *MonitorCommand) Execute(args []string) error {
	// set up stderr logger until TUI set up
	stderrLogger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var logWriter io.Writer = potatolog.GlobalMemoryLogReaderWriter
	if command.LogOutputFile != "" {
		file, err := os.OpenFile(command.LogOutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("could not open log output file '%s' (%w)", command.LogOutputFile, err)
		}
		defer file.Close()
		var fileLogger io.Writer = file
		if command.LogPretty {
			fileLogger = zerolog.ConsoleWriter{Out: file, NoColor: true}
		}
		logWriter = zerolog.MultiLevelWriter(fileLogger, potatolog.GlobalMemoryLogReaderWriter)
	}
	tuiLogger := zerolog.New(logWriter).With().Timestamp().Logger()

	// temporarily log to both (in case the TUI doesn't get set we want the info
	// on the stderr logger, otherwise the TUI logger is relevant)
	log.Logger = log.Output(zerolog.MultiLevelWriter(stderrLogger, tuiLogger))

	cfg, timings, err := loadConfig(parseTheme(command.Theme))
	if err != nil {
		return err
	}
	stylesheet, err := styling.NewStylesheetFromConfig(cfg.Stylesheet)
	if err != nil {
		return fmt.Errorf("invalid stylesheet (%w)", err)
	}

	f := &scenario.File{Instances: []scenario.Instance{{
		ID:    cfg.Readiness.MonitorInstance,
		Steps: []scenario.Step{{Op: scenario.OpInit}},
	}}}
	if command.Scenario != "" {
		f, err = readScenario(command.Scenario)
		if err != nil {
			return err
		}
	}
	var selections []selection.Snapshot
	for _, def := range f.Selections {
		snap, err := def.Snapshot()
		if err != nil {
			return err
		}
		selections = append(selections, snap)
	}

	screen, err := tui.NewTUIScreenHandler()
	if err != nil {
		return err
	}

	clock := schedule.NewClock(timings.FrameInterval)
	var monitor *tui.Monitor
	board := notice.NewBoard(clock, func() { monitor.RequestRender() })
	registry := readiness.NewRegistry(
		readiness.WithScheduler(clock),
		readiness.WithWatchdogTimeout(timings.WatchdogTimeout),
		readiness.WithNoticeDuration(timings.NoticeDuration),
		readiness.WithPresenter(notice.Fanout{board, notice.LogPresenter{}}),
	)
	monitor, err = tui.NewMonitor(screen, stylesheet, tui.MonitorParams{
		Registry:        registry,
		Board:           board,
		Logs:            potatolog.GlobalMemoryLogReaderWriter,
		Selections:      selections,
		WatchdogTimeout: timings.WatchdogTimeout,
		Now:             clock.Now,
		Keys:            cfg.Keys,
	})
	if err != nil {
		screen.Fini()
		return err
	}

	for _, inst := range f.Instances {
		id := inst.ID
		registry.Subscribe(id, func(interactive bool) {
			log.Info().Str("instance", id).Bool("interactive", interactive).Msg("interactivity notification")
			monitor.RequestRender()
		})
	}

	// now that the screen is initialized, we'll always want the TUI logger, so
	// we're making it the global logger
	log.Logger = tuiLogger

	stop := make(chan struct{})
	go replayRealTime(f.Timeline(), registry, monitor, stop)

	monitor.Run()
	close(stop)
	return nil
}

// replayRealTime applies the events at their offsets from now until all are
// applied or stop is closed.
func replayRealTime(events []scenario.Event, registry *readiness.Registry, monitor *tui.Monitor, stop <-chan struct{}) {
	start := time.Now()
	for _, ev := range events {
		timer := time.NewTimer(time.Until(start.Add(ev.At)))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
		log.Debug().Str("instance", ev.Instance).Str("step", ev.Step.String()).Msg("applying step")
		scenario.Apply(registry, nil, ev)
		monitor.RequestRender()
	}
	log.Info().Int("steps", len(events)).Msg("scenario replayed")
}
