package selection

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Resolve returns the surface that owns focus for the snapshot.
// Outside edit mode no surface does.
func Resolve(s Snapshot) Surface {
	return s.State().Active().Surface()
}

// IsActive reports whether surface is the one Resolve picks.
// Toolbars use it to gate their own visibility.
func IsActive(surface Surface, s Snapshot) bool {
	return Resolve(s) == surface
}

// Target is the addressing tuple used to position the active toolbar.
type Target struct {
	Surface     Surface
	TargetID    string
	ContainerID string
	FieldKey    string
}

// TargetOf returns the positioning target of the active surface.
// For text and element surfaces TargetID is 'container.field', for sections
// it is the container id; without an active surface all fields are empty.
func TargetOf(s Snapshot) Target {
	switch sel := s.State().Active().(type) {
	case TextEditing:
		return Target{Surface: SurfaceText, TargetID: sel.Target.ID(), ContainerID: sel.Target.ContainerID, FieldKey: sel.Target.FieldKey}
	case ElementSelected:
		return Target{Surface: SurfaceElement, TargetID: sel.Element.ID(), ContainerID: sel.Element.ContainerID, FieldKey: sel.Element.FieldKey}
	case ContainerSelected:
		return Target{Surface: SurfaceSection, TargetID: sel.ContainerID, ContainerID: sel.ContainerID}
	default:
		return Target{}
	}
}

// Flags are convenience booleans for toolbar hosts.
//
// The Can* flags look at the raw snapshot, regardless of precedence and mode:
// whether the respective toolbar would have what it needs.
type Flags struct {
	Active Surface

	TextActive    bool
	ElementActive bool
	SectionActive bool
	HasActive     bool

	CanShowText    bool
	CanShowElement bool
	CanShowSection bool
}

// FlagsOf computes the flags for the snapshot.
func FlagsOf(s Snapshot) Flags {
	active := Resolve(s)
	return Flags{
		Active:         active,
		TextActive:     active == SurfaceText,
		ElementActive:  active == SurfaceElement,
		SectionActive:  active == SurfaceSection,
		HasActive:      active != SurfaceNone,
		CanShowText:    s.IsTextEditing && s.TextTarget != nil,
		CanShowElement: s.Element != nil && !s.IsTextEditing,
		CanShowSection: s.Container != "" && s.Element == nil && !s.IsTextEditing,
	}
}

// Conflicts describing snapshots with more than one candidate surface.
const (
	ConflictTextOverElement    = "text-editing-over-element"
	ConflictTextOverContainer  = "text-editing-over-container"
	ConflictTextWithoutTarget  = "text-editing-without-target"
	ConflictElementOverSection = "element-over-container"
	ConflictStaleElement       = "element-outside-selected-container"
)

// Conflicts lists the ways in which the snapshot's fields disagree.
// An empty result means at most one candidate surface was set.
func Conflicts(s Snapshot) []string {
	var result []string
	textEditing := s.IsTextEditing && s.TextTarget != nil
	if s.IsTextEditing && s.TextTarget == nil {
		result = append(result, ConflictTextWithoutTarget)
	}
	if textEditing && s.Element != nil {
		result = append(result, ConflictTextOverElement)
	}
	if textEditing && s.Container != "" {
		result = append(result, ConflictTextOverContainer)
	}
	if !textEditing && s.Element != nil && s.Container != "" {
		result = append(result, ConflictElementOverSection)
	}
	if s.Element != nil && s.Container != "" && s.Element.ContainerID != s.Container {
		result = append(result, ConflictStaleElement)
	}
	return result
}

// Resolver wraps Resolve, TargetOf and IsActive with diagnostic logging of
// each decision and its inputs. The zero value logs to the global logger.
type Resolver struct {
	Logger *zerolog.Logger
}

func (r Resolver) logger() *zerolog.Logger {
	if r.Logger == nil {
		return &log.Logger
	}
	return r.Logger
}

// Resolve resolves the snapshot and logs the decision.
// A stale element outside the selected container is logged as a warning,
// since it usually indicates an integration bug in the host.
func (r Resolver) Resolve(s Snapshot) Surface {
	surface := Resolve(s)
	conflicts := Conflicts(s)

	ev := r.logger().Debug()
	for _, c := range conflicts {
		if c == ConflictStaleElement {
			ev = r.logger().Warn()
			break
		}
	}
	ev.Str("mode", string(s.Mode)).
		Bool("text-editing", s.IsTextEditing).
		Str("text-target", refString(s.TextTarget)).
		Str("element", elementString(s.Element)).
		Str("container", s.Container).
		Strs("conflicts", conflicts).
		Str("surface", surface.String()).
		Msg("resolved active surface")

	return surface
}

// TargetOf returns the positioning target for the snapshot.
func (r Resolver) TargetOf(s Snapshot) Target {
	r.Resolve(s)
	return TargetOf(s)
}

// IsActive reports whether surface is active for the snapshot.
func (r Resolver) IsActive(surface Surface, s Snapshot) bool {
	return r.Resolve(s) == surface
}

func refString(f *FieldRef) string {
	if f == nil {
		return ""
	}
	return f.ID()
}

func elementString(e *ElementRef) string {
	if e == nil {
		return ""
	}
	return e.String()
}
