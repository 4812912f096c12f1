package styling

import (
	"fmt"

	"github.com/ja-he/editgate/internal/config"
)

// Stylesheet represents all styles used by the monitor for rendering.
type Stylesheet struct {
	Normal      DrawStyling
	Title       DrawStyling
	Selected    DrawStyling
	Interactive DrawStyling
	NotReady    DrawStyling
	Hydrating   DrawStyling
	Notice      DrawStyling
	Surface     DrawStyling

	LogDefault DrawStyling
	LogWarn    DrawStyling
	LogError   DrawStyling
}

// NewStylesheetFromConfig constructs a new stylesheet from a given config
// stylesheet.
func NewStylesheetFromConfig(c config.Stylesheet) (*Stylesheet, error) {
	stylesheet := Stylesheet{}

	for _, entry := range []struct {
		name   string
		target *DrawStyling
		source config.Styling
	}{
		{"normal", &stylesheet.Normal, c.Normal},
		{"title", &stylesheet.Title, c.Title},
		{"selected", &stylesheet.Selected, c.Selected},
		{"interactive", &stylesheet.Interactive, c.Interactive},
		{"not-ready", &stylesheet.NotReady, c.NotReady},
		{"hydrating", &stylesheet.Hydrating, c.Hydrating},
		{"notice", &stylesheet.Notice, c.Notice},
		{"surface", &stylesheet.Surface, c.Surface},
		{"log-default", &stylesheet.LogDefault, c.LogDefault},
		{"log-warn", &stylesheet.LogWarn, c.LogWarn},
		{"log-error", &stylesheet.LogError, c.LogError},
	} {
		s, err := StyleFromConfig(entry.source)
		if err != nil {
			return nil, fmt.Errorf("stylesheet entry '%s': %w", entry.name, err)
		}
		*entry.target = s
	}

	return &stylesheet, nil
}
