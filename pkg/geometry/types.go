// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
	"sort"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Rect is an axis-aligned rectangle given by two corners.
// A finalized Rect satisfies X1 <= X2 and Y1 <= Y2; rectangles being
// dragged may be inverted until Normalize is called.
type Rect struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
}

// NewRect creates a new Rect from two corners.
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RectFromImage converts an integer image rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return Rect{
		X1: float64(r.Min.X),
		Y1: float64(r.Min.Y),
		X2: float64(r.Max.X),
		Y2: float64(r.Max.Y),
	}
}

// Normalize returns the rectangle with corners ordered so X1 <= X2 and Y1 <= Y2.
func (r Rect) Normalize() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// IsNormalized reports whether the corners are ordered.
func (r Rect) IsNormalized() bool {
	return r.X1 <= r.X2 && r.Y1 <= r.Y2
}

// Width returns X2 - X1 (negative while inverted).
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns Y2 - Y1 (negative while inverted).
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Area returns the area of the normalized rectangle.
func (r Rect) Area() float64 {
	n := r.Normalize()
	return n.Width() * n.Height()
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	n := r.Normalize()
	return n.Width() <= 0 || n.Height() <= 0
}

// Contains returns true if the point is inside the rectangle (edges included).
func (r Rect) Contains(p Point2D) bool {
	n := r.Normalize()
	return p.X >= n.X1 && p.X <= n.X2 && p.Y >= n.Y1 && p.Y <= n.Y2
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// TopLeft returns the (X1, Y1) corner.
func (r Rect) TopLeft() Point2D {
	return Point2D{X: r.X1, Y: r.Y1}
}

// BottomRight returns the (X2, Y2) corner.
func (r Rect) BottomRight() Point2D {
	return Point2D{X: r.X2, Y: r.Y2}
}

// Translate returns the rectangle moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Intersect returns the overlap of two normalized rectangles.
// The result is Empty when they do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	a, b := r.Normalize(), other.Normalize()
	out := Rect{
		X1: math.Max(a.X1, b.X1),
		Y1: math.Max(a.Y1, b.Y1),
		X2: math.Min(a.X2, b.X2),
		Y2: math.Min(a.Y2, b.Y2),
	}
	if out.X2 < out.X1 {
		out.X2 = out.X1
	}
	if out.Y2 < out.Y1 {
		out.Y2 = out.Y1
	}
	return out
}

// Image rounds the normalized rectangle to integer pixel coordinates.
func (r Rect) Image() image.Rectangle {
	n := r.Normalize()
	return image.Rect(
		int(math.Round(n.X1)), int(math.Round(n.Y1)),
		int(math.Round(n.X2)), int(math.Round(n.Y2)),
	)
}

// SortReadingOrder sorts rectangles top-to-bottom, then left-to-right.
func SortReadingOrder(rects []Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		if rects[i].Y1 != rects[j].Y1 {
			return rects[i].Y1 < rects[j].Y1
		}
		return rects[i].X1 < rects[j].X1
	})
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// ApplyRect transforms both corners of a rectangle.
// Only meaningful for transforms without rotation or shear.
func (t AffineTransform) ApplyRect(r Rect) Rect {
	p1 := t.Apply(r.TopLeft())
	p2 := t.Apply(r.BottomRight())
	return Rect{X1: p1.X, Y1: p1.Y, X2: p2.X, Y2: p2.Y}
}

// Compose returns this transform composed with another (this * other).
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// SizeOf returns the size of an image rectangle.
func SizeOf(r image.Rectangle) Size {
	return Size{Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}
