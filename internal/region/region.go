// Package region holds the editable panel rectangles of one page and the
// subset of them that is selected.
package region

import (
	"panel-cropper/pkg/geometry"

	"github.com/google/uuid"
)

// Region is a rectangle with a stable identity. The identity survives
// moves, resizes and undo/redo.
type Region struct {
	ID   string        `json:"id"`
	Rect geometry.Rect `json:"rect"`
}

// New creates a region with a fresh identity.
func New(r geometry.Rect) Region {
	return Region{ID: uuid.NewString(), Rect: r}
}

// FromRects wraps detector output into regions with fresh identities.
func FromRects(rects []geometry.Rect) []Region {
	out := make([]Region, len(rects))
	for i, r := range rects {
		out[i] = New(r)
	}
	return out
}

// Rects returns the rectangles of regions in the same order.
func Rects(regions []Region) []geometry.Rect {
	out := make([]geometry.Rect, len(regions))
	for i, r := range regions {
		out[i] = r.Rect
	}
	return out
}

// Clone returns an independent copy of a region list.
func Clone(regions []Region) []Region {
	if regions == nil {
		return nil
	}
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}
