package config

// Default returns the default configuration with the colorscheme for the
// given type (light or dark).
func Default(colorschemeType ColorschemeType) Config {
	return Config{
		Readiness: Readiness{
			WatchdogTimeout: "2000ms",
			FrameInterval:   "16ms",
			NoticeDuration:  "5s",
			MonitorInstance: "editor",
		},
		Stylesheet: defaultStylesheet(colorschemeType),
		Keys: map[string]string{
			"q":      "quit",
			"<esc>":  "quit",
			"j":      "next",
			"<down>": "next",
			"k":      "previous",
			"<up>":   "previous",
			"f":      "toggle-force",
			"t":      "teardown",
			"l":      "filter-log",
		},
	}
}

func defaultStylesheet(colorschemeType ColorschemeType) Stylesheet {
	if colorschemeType == Light {
		return Stylesheet{
			Normal:      Styling{Fg: "#000000", Bg: "#ffffff", Style: &FontStyle{}},
			Title:       Styling{Fg: "#000000", Bg: "#f0f0f0", Style: &FontStyle{Bold: true}},
			Selected:    Styling{Fg: "#000000", Bg: "#cccccc", Style: &FontStyle{}},
			Interactive: Styling{Fg: "#3a751a", Bg: "#c2edab", Style: &FontStyle{Bold: true}},
			NotReady:    Styling{Fg: "#882222", Bg: "#ffaaaa", Style: &FontStyle{Bold: true}},
			Hydrating:   Styling{Fg: "#0065a3", Bg: "#ccebff", Style: &FontStyle{}},
			Notice:      Styling{Fg: "#92400e", Bg: "#fbbf24", Style: &FontStyle{Bold: true}},
			Surface:     Styling{Fg: "#a3008b", Bg: "#ffccf7", Style: &FontStyle{}},
			LogDefault:  Styling{Fg: "#000000", Bg: "#ffffff", Style: &FontStyle{}},
			LogWarn:     Styling{Fg: "#cc8f00", Bg: "#fff0cc", Style: &FontStyle{Bold: true}},
			LogError:    Styling{Fg: "#882222", Bg: "#ffaaaa", Style: &FontStyle{Bold: true}},
		}
	}
	return Stylesheet{
		Normal:      Styling{Fg: "#ffffff", Bg: "#000000", Style: &FontStyle{}},
		Title:       Styling{Fg: "#f0f0f0", Bg: "#202020", Style: &FontStyle{Bold: true}},
		Selected:    Styling{Fg: "#ffffff", Bg: "#404040", Style: &FontStyle{}},
		Interactive: Styling{Fg: "#c2edab", Bg: "#3a751a", Style: &FontStyle{Bold: true}},
		NotReady:    Styling{Fg: "#ffaaaa", Bg: "#882222", Style: &FontStyle{Bold: true}},
		Hydrating:   Styling{Fg: "#ccebff", Bg: "#0065a3", Style: &FontStyle{}},
		Notice:      Styling{Fg: "#92400e", Bg: "#fbbf24", Style: &FontStyle{Bold: true}},
		Surface:     Styling{Fg: "#ffccf7", Bg: "#a3008b", Style: &FontStyle{}},
		LogDefault:  Styling{Fg: "#ffffff", Bg: "#000000", Style: &FontStyle{}},
		LogWarn:     Styling{Fg: "#fff0cc", Bg: "#cc8f00", Style: &FontStyle{Bold: true}},
		LogError:    Styling{Fg: "#ffaaaa", Bg: "#882222", Style: &FontStyle{Bold: true}},
	}
}
