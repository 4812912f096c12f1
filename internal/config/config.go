// Package config reads the editgate configuration.
package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the configuration data as present in a config file at
// '${EDITGATE_HOME}/config.yaml'.
type Config struct {
	Readiness  Readiness  `yaml:"readiness"`
	Stylesheet Stylesheet `yaml:"stylesheet"`

	// Keys maps monitor key sequences (e.g. "q", "<esc>", "<c-f>") to the
	// names of monitor actions.
	Keys map[string]string `yaml:"keys"`
}

// Readiness configures the readiness tracker.
// Values may be overridden by environment variables.
//
// For the duration format see time.ParseDuration.
type Readiness struct {
	WatchdogTimeout string `yaml:"watchdog-timeout" env:"EDITGATE_WATCHDOG_TIMEOUT"`
	FrameInterval   string `yaml:"frame-interval" env:"EDITGATE_FRAME_INTERVAL"`
	NoticeDuration  string `yaml:"notice-duration" env:"EDITGATE_NOTICE_DURATION"`
	// MonitorInstance is the instance the monitor tracks when it is started
	// without a scenario.
	MonitorInstance string `yaml:"monitor-instance" env:"EDITGATE_MONITOR_INSTANCE"`
}

// Timings are the parsed durations of a Readiness config.
type Timings struct {
	WatchdogTimeout time.Duration
	FrameInterval   time.Duration
	NoticeDuration  time.Duration
}

// Timings parses the configured durations.
func (r Readiness) Timings() (Timings, error) {
	var t Timings
	var err error
	if t.WatchdogTimeout, err = parsePositiveDuration("watchdog-timeout", r.WatchdogTimeout); err != nil {
		return t, err
	}
	if t.FrameInterval, err = parsePositiveDuration("frame-interval", r.FrameInterval); err != nil {
		return t, err
	}
	if t.NoticeDuration, err = parsePositiveDuration("notice-duration", r.NoticeDuration); err != nil {
		return t, err
	}
	return t, nil
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s' (%w)", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s '%s' (must be positive)", name, value)
	}
	return d, nil
}

// A Stylesheet is the stylesheet contents defined in a config file.
type Stylesheet struct {
	Normal      Styling `yaml:"normal"`
	Title       Styling `yaml:"title"`
	Selected    Styling `yaml:"selected"`
	Interactive Styling `yaml:"interactive"`
	NotReady    Styling `yaml:"not-ready"`
	Hydrating   Styling `yaml:"hydrating"`
	Notice      Styling `yaml:"notice"`
	Surface     Styling `yaml:"surface"`
	LogDefault  Styling `yaml:"log-default"`
	LogWarn     Styling `yaml:"log-warn"`
	LogError    Styling `yaml:"log-error"`
}

// A Styling is a styling as defined in a config file.
// It must contain fore- and background colors and can optionally specify font
// style (bold, italic, underlined).
type Styling struct {
	Fg    string     `yaml:"fg"`
	Bg    string     `yaml:"bg"`
	Style *FontStyle `yaml:"style"`
}

// A FontStyle can be any combination of bold, italic, and underlined.
type FontStyle struct {
	Bold       bool `yaml:"bold,omitempty"`
	Italic     bool `yaml:"italic,omitempty"`
	Underlined bool `yaml:"underlined,omitempty"`
}

// ParseConfigAugmentDefaults parses the configuration specified in
// YAML-formatted data and uses it to augment a given default configuration.
func ParseConfigAugmentDefaults(defaultTheme ColorschemeType, yamlData []byte) (Config, error) {
	defaultConfig := Default(defaultTheme)

	parsedConfig := Config{}
	err := yaml.Unmarshal(yamlData, &parsedConfig)
	if err != nil {
		return defaultConfig, fmt.Errorf("error unmarshaling yaml (%w)", err)
	}

	return defaultConfig.augmentWith(parsedConfig), nil
}

// ApplyEnv overrides values of the given config with those set in the
// environment.
func ApplyEnv(c *Config) error {
	if err := env.Parse(&c.Readiness); err != nil {
		return fmt.Errorf("could not parse environment (%w)", err)
	}
	return nil
}

// HomeDir returns the editgate home directory: $EDITGATE_HOME if set,
// otherwise '$HOME/.config/editgate'.
func HomeDir() string {
	home := os.Getenv("EDITGATE_HOME")
	if home == "" {
		return path.Join(os.Getenv("HOME"), ".config", "editgate")
	}
	return strings.TrimRight(home, "/")
}

// Load reads '<dir>/config.yaml' (a missing file means defaults), augments
// the defaults for the given theme with it and applies the environment.
func Load(dir string, theme ColorschemeType) (Config, error) {
	file := path.Join(dir, "config.yaml")
	yamlData, err := os.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return Default(theme), fmt.Errorf("can't read config file '%s' (%w)", file, err)
	}

	c, err := ParseConfigAugmentDefaults(theme, yamlData)
	if err != nil {
		return c, fmt.Errorf("can't parse config file '%s' (%w)", file, err)
	}
	if err := ApplyEnv(&c); err != nil {
		return c, err
	}
	if _, err := c.Readiness.Timings(); err != nil {
		return c, err
	}
	return c, nil
}

func (base Config) augmentWith(augment Config) Config {
	result := base

	result.Readiness = base.Readiness.augmentWith(augment.Readiness)
	result.Stylesheet = base.Stylesheet.augmentWith(augment.Stylesheet)

	result.Keys = make(map[string]string, len(base.Keys)+len(augment.Keys))
	for keyspec, action := range base.Keys {
		result.Keys[keyspec] = action
	}
	for keyspec, action := range augment.Keys {
		if action == "" {
			delete(result.Keys, keyspec)
			continue
		}
		result.Keys[keyspec] = action
	}

	return result
}

func (base Readiness) augmentWith(augment Readiness) Readiness {
	result := base

	overwriteIfDefined(&result.WatchdogTimeout, augment.WatchdogTimeout)
	overwriteIfDefined(&result.FrameInterval, augment.FrameInterval)
	overwriteIfDefined(&result.NoticeDuration, augment.NoticeDuration)
	overwriteIfDefined(&result.MonitorInstance, augment.MonitorInstance)

	return result
}

func overwriteIfDefined(s *string, augment string) {
	if augment != "" {
		*s = augment
	}
}

func (base Stylesheet) augmentWith(augment Stylesheet) Stylesheet {
	result := base

	result.Normal.overwriteIfDefined(augment.Normal)
	result.Title.overwriteIfDefined(augment.Title)
	result.Selected.overwriteIfDefined(augment.Selected)
	result.Interactive.overwriteIfDefined(augment.Interactive)
	result.NotReady.overwriteIfDefined(augment.NotReady)
	result.Hydrating.overwriteIfDefined(augment.Hydrating)
	result.Notice.overwriteIfDefined(augment.Notice)
	result.Surface.overwriteIfDefined(augment.Surface)
	result.LogDefault.overwriteIfDefined(augment.LogDefault)
	result.LogWarn.overwriteIfDefined(augment.LogWarn)
	result.LogError.overwriteIfDefined(augment.LogError)

	return result
}

func (s *Styling) overwriteIfDefined(augment Styling) {
	if augment.Fg != "" && augment.Bg != "" {
		s.Fg = augment.Fg
		s.Bg = augment.Bg
	}
	if augment.Style != nil {
		style := *augment.Style
		s.Style = &style
	}
}

// A ColorschemeType can either be light or dark.
type ColorschemeType = int

const (
	_ ColorschemeType = iota
	Dark
	Light
)
