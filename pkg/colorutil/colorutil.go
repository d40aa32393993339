// Package colorutil provides the overlay colors used to draw regions.
package colorutil

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.RGBA{R: 229, G: 57, B: 53, A: 255}
	Blue   = color.RGBA{R: 30, G: 136, B: 229, A: 255}
	Yellow = color.RGBA{R: 255, G: 179, B: 0, A: 255}
)

// goldenAngle spreads successive hues as far apart as possible.
const goldenAngle = 137.50776405

// Palette returns n distinct, deterministic colors for numbering regions.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		h := math.Mod(float64(i)*goldenAngle, 360)
		out[i] = RGBA(colorful.Hsv(h, 0.75, 0.9))
	}
	return out
}

// RGBA converts a colorful color to an opaque color.RGBA.
func RGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// WithAlpha returns c with alpha a, premultiplied.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 255) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: a}
}

// Blend mixes two colors in Lab space; t=0 gives a, t=1 gives b.
func Blend(a, b color.RGBA, t float64) color.RGBA {
	ca, _ := colorful.MakeColor(a)
	cb, _ := colorful.MakeColor(b)
	return RGBA(ca.BlendLab(cb, t))
}
