package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ja-he/editgate/internal/config"
	"github.com/ja-he/editgate/internal/scenario"
)

// SimulateCommand is the `simulate` command.
type SimulateCommand struct {
	Scenario string `short:"s" long:"scenario" required:"true" value-name:"<file>" description:"Scenario file to replay"`
	Expect   string `short:"e" long:"expect" value-name:"<file>" description:"Compare the transcript against this file instead of printing it"`
	Update   bool   `short:"u" long:"update" description:"Write the transcript to the --expect file"`
	Verbose  bool   `long:"verbose" description:"Log registry decisions at debug level"`
}

// Execute executes the simulate command.
func (command *SimulateCommand) Execute(args []string) error {
	return command.Run(os.Stdout)
}

// Run replays the scenario and writes the transcript, or the comparison
// result when an expected transcript is given, to out.
// A mismatch is an error.
func (command *SimulateCommand) Run(out io.Writer) error {
	_, timings, err := loadConfig(config.Dark)
	if err != nil {
		return err
	}

	f, err := readScenario(command.Scenario)
	if err != nil {
		return err
	}

	logger := log.Logger.Level(zerolog.WarnLevel)
	if command.Verbose {
		logger = log.Logger.Level(zerolog.DebugLevel)
	}

	got := scenario.Text(scenario.Replay(f, scenario.Options{
		WatchdogTimeout: timings.WatchdogTimeout,
		NoticeDuration:  timings.NoticeDuration,
		Logger:          &logger,
	}))

	switch {
	case command.Expect == "":
		_, err := fmt.Fprint(out, got)
		return err

	case command.Update:
		if err := os.WriteFile(command.Expect, []byte(got), 0644); err != nil {
			return fmt.Errorf("could not write transcript (%w)", err)
		}
		log.Info().Str("file", command.Expect).Msg("wrote transcript")
		return nil
	}

	want, err := os.ReadFile(command.Expect)
	if err != nil {
		return fmt.Errorf("could not read expected transcript (%w)", err)
	}
	if string(want) == got {
		_, err := fmt.Fprintf(out, "transcript matches '%s'\n", command.Expect)
		return err
	}

	fmt.Fprint(out, transcriptDiff(string(want), got))
	return fmt.Errorf("transcript differs from '%s'", command.Expect)
}

// transcriptDiff renders a line diff of two transcripts: lines only in want
// are prefixed '- ', lines only in got '+ '.
func transcriptDiff(want, got string) string {
	d := dmp.New()
	a, b, lines := d.DiffLinesToChars(want, got)
	diffs := d.DiffCharsToLines(d.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, df := range diffs {
		prefix := "  "
		switch df.Type {
		case dmp.DiffDelete:
			prefix = "- "
		case dmp.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(df.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
