package styling

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ja-he/editgate/internal/config"
)

// DrawStyling is style information used for rendering text: foreground and
// background color as well as modifiers such as bold.
// It can be converted to a tcell.Style via AsTcell.
type DrawStyling interface {
	AsTcell() tcell.Style

	DefaultDimmed() DrawStyling
	LightenedBG(percentage int) DrawStyling
	DarkenedBG(percentage int) DrawStyling
	BlendedBG(other DrawStyling, t float64) DrawStyling

	Bolded() DrawStyling
	Reversed() DrawStyling

	Colors() (fg, bg colorful.Color)
	ToString() string
}

// FallbackStyling is a DrawStyling that holds non-renderer-specific colors.
type FallbackStyling struct {
	fg colorful.Color
	bg colorful.Color

	bold, italic, underlined bool
}

// AsTcell returns this styling as a tcell.Style.
func (s *FallbackStyling) AsTcell() tcell.Style {
	return tcell.StyleDefault.
		Foreground(colorfulColorToTcellColor(s.fg)).
		Background(colorfulColorToTcellColor(s.bg)).
		Bold(s.bold).
		Italic(s.italic).
		Underline(s.underlined)
}

// DefaultDimmed returns a copy of this styling with both colors lightened by
// a default value.
func (s *FallbackStyling) DefaultDimmed() DrawStyling {
	result := s.clone()
	result.fg = lightenColorfulColor(result.fg, 50)
	result.bg = lightenColorfulColor(result.bg, 50)
	return result
}

// LightenedBG returns a copy of this styling with the background color
// lightened by the requested percentage.
func (s *FallbackStyling) LightenedBG(percentage int) DrawStyling {
	result := s.clone()
	result.bg = lightenColorfulColor(result.bg, percentage)
	return result
}

// DarkenedBG returns a copy of this styling with the background color darkened
// by the requested percentage.
func (s *FallbackStyling) DarkenedBG(percentage int) DrawStyling {
	result := s.clone()
	result.bg = darkenColorfulColor(result.bg, percentage)
	return result
}

// BlendedBG returns a copy of this styling whose background is blended
// towards the background of other; t=0 keeps this one, t=1 takes other's.
// t is clamped to [0,1].
func (s *FallbackStyling) BlendedBG(other DrawStyling, t float64) DrawStyling {
	_, otherBG := other.Colors()
	result := s.clone()
	result.bg = blendColorfulColors(s.bg, otherBG, t)
	return result
}

// Bolded returns a copy of this styling which is guaranteed to be bolded.
func (s *FallbackStyling) Bolded() DrawStyling {
	result := s.clone()
	result.bold = true
	return result
}

// Reversed returns a copy of this styling with fore- and background swapped.
func (s *FallbackStyling) Reversed() DrawStyling {
	result := s.clone()
	result.fg, result.bg = s.bg, s.fg
	return result
}

// Colors returns the fore- and background color.
func (s *FallbackStyling) Colors() (fg, bg colorful.Color) {
	return s.fg, s.bg
}

// ToString returns a string representation of this styling, e.g., for logging
// purposes.
func (s *FallbackStyling) ToString() string {
	return fmt.Sprintf(
		"[fg:'%s' bg:'%s' (b:%t i:%t u:%t)]",
		s.fg.Hex(),
		s.bg.Hex(),
		s.bold,
		s.italic,
		s.underlined,
	)
}

func (s *FallbackStyling) clone() *FallbackStyling {
	newS := *s
	return &newS
}

// StyleFromHex constructs and returns a styling from two hexadecimally
// formatted strings for the foreground and background color.
// Strings have to have hexadecimal or HTML color notation and lead with a '#'.
//
// Examples:
//   - '#ff0000'
//   - '#fff'
//   - '#BEEF42'
func StyleFromHex(fg, bg string) (*FallbackStyling, error) {
	fgColor, err := colorful.Hex(fg)
	if err != nil {
		return nil, fmt.Errorf("invalid foreground color '%s' (%w)", fg, err)
	}
	bgColor, err := colorful.Hex(bg)
	if err != nil {
		return nil, fmt.Errorf("invalid background color '%s' (%w)", bg, err)
	}
	return &FallbackStyling{fg: fgColor, bg: bgColor}, nil
}

// StyleFromConfig constructs a styling from a config styling.
func StyleFromConfig(c config.Styling) (*FallbackStyling, error) {
	s, err := StyleFromHex(c.Fg, c.Bg)
	if err != nil {
		return nil, err
	}
	if c.Style != nil {
		s.bold = c.Style.Bold
		s.italic = c.Style.Italic
		s.underlined = c.Style.Underlined
	}
	return s, nil
}
