package interact

import (
	"math"

	"panel-cropper/pkg/geometry"
)

// Handle identifies what a pointer press grabbed.
type Handle int

const (
	HandleNone Handle = iota
	HandleMove
	HandleN
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

func (h Handle) String() string {
	switch h {
	case HandleMove:
		return "move"
	case HandleN:
		return "n"
	case HandleS:
		return "s"
	case HandleE:
		return "e"
	case HandleW:
		return "w"
	case HandleNE:
		return "ne"
	case HandleNW:
		return "nw"
	case HandleSE:
		return "se"
	case HandleSW:
		return "sw"
	default:
		return "none"
	}
}

// IsResize reports whether the handle is one of the eight resize directions.
func (h Handle) IsResize() bool {
	return h >= HandleN && h <= HandleSW
}

// handleAt tests the resize handles of a view-space rectangle.
// Corners take priority over edges.
func handleAt(vr geometry.Rect, p geometry.Point2D, size float64) Handle {
	vr = vr.Normalize()
	nearX1 := math.Abs(p.X-vr.X1) < size
	nearX2 := math.Abs(p.X-vr.X2) < size
	nearY1 := math.Abs(p.Y-vr.Y1) < size
	nearY2 := math.Abs(p.Y-vr.Y2) < size

	switch {
	case nearX1 && nearY1:
		return HandleNW
	case nearX2 && nearY1:
		return HandleNE
	case nearX1 && nearY2:
		return HandleSW
	case nearX2 && nearY2:
		return HandleSE
	}

	insideX := p.X > vr.X1 && p.X < vr.X2
	insideY := p.Y > vr.Y1 && p.Y < vr.Y2
	switch {
	case nearY1 && insideX:
		return HandleN
	case nearY2 && insideX:
		return HandleS
	case nearX1 && insideY:
		return HandleW
	case nearX2 && insideY:
		return HandleE
	}
	return HandleNone
}

// resize moves only the edges named by h; the opposite edges stay fixed.
// The result may be inverted until normalized.
func resize(r geometry.Rect, h Handle, dx, dy float64) geometry.Rect {
	switch h {
	case HandleN, HandleNE, HandleNW:
		r.Y1 += dy
	case HandleS, HandleSE, HandleSW:
		r.Y2 += dy
	}
	switch h {
	case HandleW, HandleNW, HandleSW:
		r.X1 += dx
	case HandleE, HandleNE, HandleSE:
		r.X2 += dx
	}
	return r
}
