// Package render rasterizes pages with their region overlays: the live
// canvas frame and annotated previews.
package render

import (
	"image"
	"image/color"
	"math"

	"panel-cropper/internal/interact"
	"panel-cropper/internal/viewport"
	"panel-cropper/pkg/colorutil"
	"panel-cropper/pkg/geometry"

	"golang.org/x/image/draw"
)

// Style controls overlay appearance on the canvas.
type Style struct {
	Background color.RGBA
	Region     color.RGBA
	Active     color.RGBA
	Pending    color.RGBA
	LineWidth  int
	HandleSize int
}

// DefaultStyle returns the canvas colors.
func DefaultStyle() Style {
	return Style{
		Background: color.RGBA{R: 48, G: 48, B: 48, A: 255},
		Region:     colorutil.Red,
		Active:     colorutil.Blue,
		Pending:    colorutil.Yellow,
		LineWidth:  2,
		HandleSize: 8,
	}
}

// View draws the visible part of img at the viewport's zoom and pan into a
// w x h frame, then the scene on top.
func View(w, h int, img image.Image, vp viewport.Viewport, scene interact.Scene, style Style) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)
	if img == nil {
		return out
	}

	drawImage(out, img, vp)

	for _, it := range scene.Items {
		col := style.Region
		if it.Active {
			col = style.Active
		}
		r := vp.ToViewRect(it.Rect).Normalize()
		strokeRect(out, r, col, style.LineWidth)
		if it.Active && scene.ShowHandles {
			drawHandles(out, r, col, style.HandleSize)
		}
	}
	if scene.Pending != nil {
		dashedRect(out, vp.ToViewRect(*scene.Pending).Normalize(), style.Pending)
	}
	return out
}

// drawImage scales the part of img that lands inside out.
func drawImage(out *image.RGBA, img image.Image, vp viewport.Viewport) {
	dst := vp.ImageRect().Intersect(geometry.RectFromImage(out.Bounds()))
	if dst.Empty() {
		return
	}
	src := vp.ToContentRect(dst).Intersect(geometry.RectFromImage(img.Bounds()))
	if src.Empty() {
		return
	}

	dr := dst.Image()
	sr := src.Image()
	scaler := draw.Scaler(draw.ApproxBiLinear)
	if vp.Zoom >= 2 {
		scaler = draw.NearestNeighbor
	}
	scaler.Scale(out, dr, img, sr, draw.Src, nil)
}

// strokeRect draws a rectangle outline of the given thickness, clipped to out.
func strokeRect(out *image.RGBA, r geometry.Rect, col color.RGBA, width int) {
	if width < 1 {
		width = 1
	}
	x1, y1 := int(math.Round(r.X1)), int(math.Round(r.Y1))
	x2, y2 := int(math.Round(r.X2)), int(math.Round(r.Y2))
	fill(out, image.Rect(x1, y1, x2+1, y1+width), col)
	fill(out, image.Rect(x1, y2-width+1, x2+1, y2+1), col)
	fill(out, image.Rect(x1, y1, x1+width, y2+1), col)
	fill(out, image.Rect(x2-width+1, y1, x2+1, y2+1), col)
}

// drawHandles draws the eight resize grips of r.
func drawHandles(out *image.RGBA, r geometry.Rect, col color.RGBA, size int) {
	half := size / 2
	cx, cy := (r.X1+r.X2)/2, (r.Y1+r.Y2)/2
	for _, p := range []geometry.Point2D{
		{X: r.X1, Y: r.Y1}, {X: cx, Y: r.Y1}, {X: r.X2, Y: r.Y1},
		{X: r.X1, Y: cy}, {X: r.X2, Y: cy},
		{X: r.X1, Y: r.Y2}, {X: cx, Y: r.Y2}, {X: r.X2, Y: r.Y2},
	} {
		x, y := int(math.Round(p.X)), int(math.Round(p.Y))
		grip := image.Rect(x-half, y-half, x+half+1, y+half+1)
		fill(out, grip, colorutil.White)
		fill(out, grip.Inset(1), col)
	}
}

// dashedRect draws the outline of a rectangle being created.
func dashedRect(out *image.RGBA, r geometry.Rect, col color.RGBA) {
	x1, y1 := int(math.Round(r.X1)), int(math.Round(r.Y1))
	x2, y2 := int(math.Round(r.X2)), int(math.Round(r.Y2))
	b := out.Bounds()
	set := func(x, y int) {
		if (x+y)%8 < 4 && image.Pt(x, y).In(b) {
			out.SetRGBA(x, y, col)
		}
	}
	for x := x1; x <= x2; x++ {
		set(x, y1)
		set(x, y2)
	}
	for y := y1; y <= y2; y++ {
		set(x1, y)
		set(x2, y)
	}
}

func fill(out *image.RGBA, r image.Rectangle, col color.RGBA) {
	r = r.Intersect(out.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(out, r, image.NewUniform(col), image.Point{}, draw.Src)
}
