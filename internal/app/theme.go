package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Overlay colors shared by the canvas and the preview renderer.
var (
	RegionColor  = color.NRGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF}
	ActiveColor  = color.NRGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF}
	PendingColor = color.NRGBA{R: 0xFF, G: 0xB3, B: 0x00, A: 0xFF}
)

// CropperTheme is the default theme with a dark canvas-friendly accent.
type CropperTheme struct{}

var _ fyne.Theme = (*CropperTheme)(nil)

func (t *CropperTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return ActiveColor
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0x60}
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *CropperTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *CropperTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *CropperTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
