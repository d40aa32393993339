// Package viewport maps between content space (pixels of the original
// page image) and view space (pixels on screen after zoom and pan).
package viewport

import (
	"math"

	"panel-cropper/pkg/geometry"
)

const (
	MinZoom  = 0.1
	MaxZoom  = 10.0
	ZoomStep = 1.1
)

// Viewport holds the current zoom and pan together with the sizes needed
// to clamp them. The zero value is not usable; call New.
type Viewport struct {
	Zoom float64
	PanX float64
	PanY float64

	image   geometry.Size
	display geometry.Size
}

// New returns an identity viewport.
func New() *Viewport {
	return &Viewport{Zoom: 1}
}

// Transform returns the content-to-view transform.
func (v *Viewport) Transform() geometry.AffineTransform {
	return geometry.Translation(v.PanX, v.PanY).Compose(geometry.Scale(v.Zoom, v.Zoom))
}

// ToView maps a content point to view space.
func (v *Viewport) ToView(p geometry.Point2D) geometry.Point2D {
	return v.Transform().Apply(p)
}

// ToContent maps a view point to content space.
func (v *Viewport) ToContent(p geometry.Point2D) geometry.Point2D {
	inv, ok := v.Transform().Inverse()
	if !ok {
		return p
	}
	return inv.Apply(p)
}

// ToViewRect maps a content rectangle to view space.
func (v *Viewport) ToViewRect(r geometry.Rect) geometry.Rect {
	return v.Transform().ApplyRect(r)
}

// ToContentRect maps a view rectangle to content space.
func (v *Viewport) ToContentRect(r geometry.Rect) geometry.Rect {
	return geometry.Rect{
		X1: v.ToContent(r.TopLeft()).X,
		Y1: v.ToContent(r.TopLeft()).Y,
		X2: v.ToContent(r.BottomRight()).X,
		Y2: v.ToContent(r.BottomRight()).Y,
	}
}

// ToContentDelta converts a view-space displacement into content space.
func (v *Viewport) ToContentDelta(dx, dy float64) (float64, float64) {
	return dx / v.Zoom, dy / v.Zoom
}

// ImageSize returns the content size the viewport clamps against.
func (v *Viewport) ImageSize() geometry.Size { return v.image }

// DisplaySize returns the display size the viewport clamps against.
func (v *Viewport) DisplaySize() geometry.Size { return v.display }

// SetImage records a new content size and fits it to the display.
func (v *Viewport) SetImage(size geometry.Size) {
	v.image = size
	v.Fit()
}

// Resize records a new display size and re-applies the fit-to-view policy.
func (v *Viewport) Resize(display geometry.Size) {
	v.display = display
	v.Fit()
}

// Fit scales the image to fit inside the display and centers it.
func (v *Viewport) Fit() {
	if v.image.Empty() || v.display.Empty() {
		v.Zoom = 1
		v.PanX, v.PanY = 0, 0
		return
	}
	v.Zoom = clampZoom(math.Min(v.display.Width/v.image.Width, v.display.Height/v.image.Height))
	v.Clamp()
}

// SetZoom sets an absolute zoom anchored at the display center.
func (v *Viewport) SetZoom(zoom float64) {
	v.ZoomAt(zoom/v.Zoom, geometry.Point2D{X: v.display.Width / 2, Y: v.display.Height / 2})
}

// ZoomAt multiplies the zoom by factor keeping the content point under
// anchor (view space) fixed, then clamps pan.
func (v *Viewport) ZoomAt(factor float64, anchor geometry.Point2D) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	content := v.ToContent(anchor)
	v.Zoom = clampZoom(v.Zoom * factor)
	v.PanX = anchor.X - content.X*v.Zoom
	v.PanY = anchor.Y - content.Y*v.Zoom
	v.Clamp()
}

// ZoomIn zooms one step in around anchor.
func (v *Viewport) ZoomIn(anchor geometry.Point2D) { v.ZoomAt(ZoomStep, anchor) }

// ZoomOut zooms one step out around anchor.
func (v *Viewport) ZoomOut(anchor geometry.Point2D) { v.ZoomAt(1/ZoomStep, anchor) }

// PanBy moves the image by a view-space displacement, then clamps.
func (v *Viewport) PanBy(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
	v.Clamp()
}

// Clamp keeps the rendered image from receding past the display edges when
// it is larger than the display, and centers it along any axis where it is
// smaller.
func (v *Viewport) Clamp() {
	if v.image.Empty() || v.display.Empty() {
		return
	}
	v.PanX = clampAxis(v.PanX, v.image.Width*v.Zoom, v.display.Width)
	v.PanY = clampAxis(v.PanY, v.image.Height*v.Zoom, v.display.Height)
}

// ImageRect returns the rendered image bounds in view space.
func (v *Viewport) ImageRect() geometry.Rect {
	return v.ToViewRect(geometry.NewRect(0, 0, v.image.Width, v.image.Height))
}

func clampAxis(pan, rendered, display float64) float64 {
	if rendered <= display {
		return (display - rendered) / 2
	}
	return math.Min(0, math.Max(display-rendered, pan))
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
