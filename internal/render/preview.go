package render

import (
	"fmt"
	"image"

	"panel-cropper/pkg/colorutil"
	"panel-cropper/pkg/geometry"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Preview draws the page with each rectangle outlined in its own color and
// labelled with its 1-based reading-order number.
func Preview(img image.Image, rects []geometry.Rect) (image.Image, error) {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	sorted := make([]geometry.Rect, len(rects))
	for i, r := range rects {
		sorted[i] = r.Normalize()
	}
	geometry.SortReadingOrder(sorted)

	// Scale strokes and labels with the page so they stay readable.
	unit := float64(min(b.Dx(), b.Dy())) / 400
	if unit < 1 {
		unit = 1
	}
	face, err := labelFace(14 * unit)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	palette := colorutil.Palette(len(sorted))
	for i, r := range sorted {
		col := palette[i]
		x, y := r.X1-float64(b.Min.X), r.Y1-float64(b.Min.Y)

		dc.SetColor(colorutil.WithAlpha(col, 48))
		dc.DrawRectangle(x, y, r.Width(), r.Height())
		dc.Fill()

		dc.SetColor(col)
		dc.SetLineWidth(2 * unit)
		dc.DrawRectangle(x, y, r.Width(), r.Height())
		dc.Stroke()

		label := fmt.Sprintf("%d", i+1)
		w, h := dc.MeasureString(label)
		pad := 3 * unit
		dc.SetColor(colorutil.Blend(col, colorutil.Black, 0.35))
		dc.DrawRectangle(x, y, w+2*pad, h+2*pad)
		dc.Fill()
		dc.SetColor(colorutil.White)
		dc.DrawStringAnchored(label, x+pad, y+pad, 0, 1)
	}
	return dc.Image(), nil
}

// SavePreview writes Preview output as PNG.
func SavePreview(path string, img image.Image, rects []geometry.Rect) error {
	out, err := Preview(img, rects)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, out)
}

func labelFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
