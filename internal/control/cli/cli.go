// Package cli provides the command-line interface for editgate.
package cli

import (
	"fmt"
	"os"

	"github.com/ja-he/editgate/internal/config"
	"github.com/ja-he/editgate/internal/scenario"
)

// CommandLineOpts are the top-level options and commands for `go-flags`.
type CommandLineOpts struct {
	Version bool `short:"v" long:"version" description:"Show the program version"`

	SimulateCommand SimulateCommand `command:"simulate" description:"Replay a scenario with a deterministic clock and print the transcript"`
	MonitorCommand  MonitorCommand  `command:"monitor" description:"Replay a scenario in real time in a terminal monitor"`
	ResolveCommand  ResolveCommand  `command:"resolve" description:"Resolve the active toolbar surface for a selection"`
	VersionCommand  VersionCommand  `command:"version" subcommands-optional:"true" description:"Show the program version"`
}

// Opts are the parsed command line options.
var Opts CommandLineOpts

func parseTheme(theme string) config.ColorschemeType {
	switch theme {
	case "light":
		return config.Light
	default:
		return config.Dark
	}
}

// loadConfig reads the configuration from the editgate home directory and
// parses its timings.
func loadConfig(theme config.ColorschemeType) (config.Config, config.Timings, error) {
	c, err := config.Load(config.HomeDir(), theme)
	if err != nil {
		return c, config.Timings{}, fmt.Errorf("could not load config (%w)", err)
	}
	timings, err := c.Readiness.Timings()
	if err != nil {
		return c, timings, fmt.Errorf("could not load config (%w)", err)
	}
	return c, timings, nil
}

func readScenario(path string) (*scenario.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open scenario (%w)", err)
	}
	defer file.Close()

	f, err := scenario.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("could not read scenario '%s' (%w)", path, err)
	}
	return f, nil
}
