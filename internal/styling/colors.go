package styling

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

func colorfulColorToTcellColor(color colorful.Color) tcell.Color {
	r, g, b := color.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func lightenColorfulColor(color colorful.Color, percentage int) colorful.Color {
	hue, sat, ltn := color.Hsl()
	scalar := float64(percentage) / 100.0
	return colorful.Hsl(hue, sat, ltn+((1.0-ltn)*scalar))
}

func darkenColorfulColor(color colorful.Color, percentage int) colorful.Color {
	hue, sat, ltn := color.Hsl()
	scalar := float64(percentage) / 100.0
	return colorful.Hsl(hue, sat, ltn-(ltn*scalar))
}

func blendColorfulColors(a, b colorful.Color, t float64) colorful.Color {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return a.BlendLab(b, t).Clamped()
}
