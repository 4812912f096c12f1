package selection

import (
	"fmt"
	"strings"
)

// ParseMode parses 'edit' or 'preview'. The empty string is edit mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeEdit:
		return ModeEdit, nil
	case ModePreview:
		return ModePreview, nil
	default:
		return "", fmt.Errorf("unknown mode '%s' (expected 'edit' or 'preview')", s)
	}
}

// ParseFieldRef parses 'container.field'.
// The container id may not contain dots; the field key may.
func ParseFieldRef(s string) (FieldRef, error) {
	container, field, ok := strings.Cut(s, ".")
	if !ok || container == "" || field == "" {
		return FieldRef{}, fmt.Errorf("malformed field reference '%s' (expected '<container>.<field>')", s)
	}
	return FieldRef{ContainerID: container, FieldKey: field}, nil
}

// ParseElementRef parses 'container.field' or 'container.field:kind'.
func ParseElementRef(s string) (ElementRef, error) {
	ref, kind, _ := strings.Cut(s, ":")
	field, err := ParseFieldRef(ref)
	if err != nil {
		return ElementRef{}, err
	}
	return ElementRef{FieldRef: field, Kind: kind}, nil
}
