// Package scenario describes timed sequences of readiness signals and
// selection snapshots, and replays them against a readiness registry.
package scenario

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ja-he/editgate/internal/selection"
)

// Op is a scenario step operation.
type Op string

// Step operations.
const (
	OpInit        Op = "init"
	OpMount       Op = "mount"
	OpRecordMount Op = "record-mount"
	OpData        Op = "data"
	OpAnchors     Op = "anchors"
	OpFrame       Op = "frame"
	OpForce       Op = "force"
	OpTeardown    Op = "teardown"
)

// File is a scenario file.
type File struct {
	Instances  []Instance     `yaml:"instances"`
	Selections []SelectionDef `yaml:"selections"`
}

// Instance is the sequence of steps for one editor instance.
type Instance struct {
	ID    string `yaml:"id"`
	Steps []Step `yaml:"steps"`
}

// Step is a single signal, applied at an offset from the scenario start.
// Value is used by mount, data and force; Count by anchors.
type Step struct {
	At    Duration `yaml:"at"`
	Op    Op       `yaml:"op"`
	Value *bool    `yaml:"value"`
	Count int      `yaml:"count"`
}

// SelectionDef is a selection snapshot in its textual form.
type SelectionDef struct {
	Mode        string `yaml:"mode"`
	TextEditing bool   `yaml:"text_editing"`
	TextTarget  string `yaml:"text_target"`
	Element     string `yaml:"element"`
	Container   string `yaml:"container"`
}

// Duration is a time.Duration that reads from YAML in time.ParseDuration
// format.
type Duration time.Duration

// UnmarshalYAML parses a duration string such as '1500ms'.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration '%s' (%w)", value.Line, s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: negative duration '%s'", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// Parse reads a scenario from YAML and validates it.
// Instances without an id get a generated one.
func Parse(r io.Reader) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	f := &File{}
	if err := decoder.Decode(f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not decode scenario (%w)", err)
	}

	seen := map[string]bool{}
	for i := range f.Instances {
		inst := &f.Instances[i]
		if inst.ID == "" {
			inst.ID = uuid.New().String()
		}
		if seen[inst.ID] {
			return nil, fmt.Errorf("duplicate instance id '%s'", inst.ID)
		}
		seen[inst.ID] = true

		for j, step := range inst.Steps {
			if err := step.validate(); err != nil {
				return nil, fmt.Errorf("instance '%s', step %d: %w", inst.ID, j, err)
			}
		}
	}
	for i, def := range f.Selections {
		if _, err := def.Snapshot(); err != nil {
			return nil, fmt.Errorf("selection %d: %w", i, err)
		}
	}

	return f, nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpInit, OpRecordMount, OpFrame, OpTeardown:
	case OpMount, OpData, OpForce:
		if s.Value == nil {
			return fmt.Errorf("op '%s' needs a value", s.Op)
		}
	case OpAnchors:
		if s.Count < 0 {
			return fmt.Errorf("negative anchor count %d", s.Count)
		}
	default:
		return fmt.Errorf("unknown op '%s'", s.Op)
	}
	return nil
}

// Snapshot converts the definition to a selection snapshot.
func (def SelectionDef) Snapshot() (selection.Snapshot, error) {
	mode, err := selection.ParseMode(def.Mode)
	if err != nil {
		return selection.Snapshot{}, err
	}
	s := selection.Snapshot{
		Mode:          mode,
		IsTextEditing: def.TextEditing,
		Container:     def.Container,
	}
	if def.TextTarget != "" {
		target, err := selection.ParseFieldRef(def.TextTarget)
		if err != nil {
			return s, err
		}
		s.TextTarget = &target
	}
	if def.Element != "" {
		element, err := selection.ParseElementRef(def.Element)
		if err != nil {
			return s, err
		}
		s.Element = &element
	}
	return s, nil
}

// Event is a step of an instance placed on the scenario's timeline.
type Event struct {
	At       time.Duration
	Instance string
	Step     Step
}

// Timeline returns all steps of all instances ordered by time.
// Steps at the same time keep the order of the file.
func (f *File) Timeline() []Event {
	var events []Event
	for _, inst := range f.Instances {
		for _, step := range inst.Steps {
			events = append(events, Event{At: time.Duration(step.At), Instance: inst.ID, Step: step})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })
	return events
}

// Duration returns the time of the last step.
func (f *File) Duration() time.Duration {
	var last time.Duration
	for _, ev := range f.Timeline() {
		if ev.At > last {
			last = ev.At
		}
	}
	return last
}
