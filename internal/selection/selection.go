// Package selection decides which interaction surface owns focus in the
// editor, and therefore which contextual toolbar is authoritative.
//
// The host's selection state is loosely correlated (text editing may be on
// while an element is also selected, an element may survive a container
// click). Snapshot captures it as-is; Selection collapses it into exactly
// one surface by a fixed precedence: text editing, then element, then
// container.
package selection

import (
	"fmt"
)

// Mode is the editor mode.
type Mode string

// Editor modes.
const (
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
)

// Surface is the interaction surface that owns the contextual toolbar.
type Surface string

// Surfaces. SurfaceNone means no toolbar is shown.
const (
	SurfaceNone    Surface = ""
	SurfaceText    Surface = "text"
	SurfaceElement Surface = "element"
	SurfaceSection Surface = "section"
)

func (s Surface) String() string {
	if s == SurfaceNone {
		return "none"
	}
	return string(s)
}

// FieldRef addresses a field within a container.
type FieldRef struct {
	ContainerID string
	FieldKey    string
}

// ID returns the composite id 'container.field'.
func (f FieldRef) ID() string {
	return f.ContainerID + "." + f.FieldKey
}

func (f FieldRef) String() string { return f.ID() }

// ElementRef addresses a selected element.
type ElementRef struct {
	FieldRef
	Kind string
}

func (e ElementRef) String() string {
	if e.Kind == "" {
		return e.ID()
	}
	return fmt.Sprintf("%s:%s", e.ID(), e.Kind)
}

// Selection is one of TextEditing, ElementSelected, ContainerSelected, None.
type Selection interface {
	Surface() Surface
	isSelection()
}

// TextEditing is inline text editing of a field.
type TextEditing struct{ Target FieldRef }

// ElementSelected is a selected element.
type ElementSelected struct{ Element ElementRef }

// ContainerSelected is a selected container (section).
type ContainerSelected struct{ ContainerID string }

// None is the absence of a selection.
type None struct{}

func (TextEditing) Surface() Surface       { return SurfaceText }
func (ElementSelected) Surface() Surface   { return SurfaceElement }
func (ContainerSelected) Surface() Surface { return SurfaceSection }
func (None) Surface() Surface              { return SurfaceNone }

func (TextEditing) isSelection()       {}
func (ElementSelected) isSelection()   {}
func (ContainerSelected) isSelection() {}
func (None) isSelection()              {}

// State is an editor mode together with the selection in effect.
type State struct {
	Mode      Mode
	Selection Selection
}

// Active returns the selection that owns focus: the selection in edit mode,
// None otherwise.
func (s State) Active() Selection {
	if s.Mode != ModeEdit || s.Selection == nil {
		return None{}
	}
	return s.Selection
}

// Snapshot is the host's selection-related state at one instant.
// Fields may conflict; see Selection.
type Snapshot struct {
	Mode          Mode
	IsTextEditing bool
	TextTarget    *FieldRef
	Element       *ElementRef
	Container     string
}

// Selection collapses the snapshot into the one selection that wins:
// text editing (only if it has a target), else the element, else the
// container, else None. The mode is not considered.
func (s Snapshot) Selection() Selection {
	switch {
	case s.IsTextEditing && s.TextTarget != nil:
		return TextEditing{Target: *s.TextTarget}
	case s.Element != nil:
		return ElementSelected{Element: *s.Element}
	case s.Container != "":
		return ContainerSelected{ContainerID: s.Container}
	default:
		return None{}
	}
}

// State returns the snapshot's mode and winning selection.
func (s Snapshot) State() State {
	return State{Mode: s.Mode, Selection: s.Selection()}
}
