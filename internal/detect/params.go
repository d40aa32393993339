package detect

import "math"

// Params controls which contours survive as panel candidates.
type Params struct {
	// MinAreaPercent is the smallest accepted contour area as a percentage
	// of the page area.
	MinAreaPercent float64 `yaml:"min_area_percent" json:"min_area_percent"`
	// MinSolidity is contour area divided by convex hull area (0-1).
	MinSolidity float64 `yaml:"min_solidity" json:"min_solidity"`
	// MaxAspectRatio rejects slivers wider or taller than this ratio.
	MaxAspectRatio float64 `yaml:"max_aspect_ratio" json:"max_aspect_ratio"`
	// ClosingKernelSize is the side of the square closing element.
	// Forced odd and >= 1 by Kernel.
	ClosingKernelSize int `yaml:"closing_kernel_size" json:"closing_kernel_size"`
}

const (
	// BinaryThreshold separates the near-white page background from ink.
	BinaryThreshold = 240

	MaxAreaPercent = 5.0
	MaxKernelSize  = 15
)

// DefaultParams returns the defaults tuned for white-gutter comic pages.
func DefaultParams() Params {
	return Params{
		MinAreaPercent:    0.1,
		MinSolidity:       0.85,
		MaxAspectRatio:    25,
		ClosingKernelSize: 3,
	}
}

// Kernel returns the closing kernel size rounded up to the next odd value,
// within [1, MaxKernelSize].
func (p Params) Kernel() int {
	k := p.ClosingKernelSize
	if k < 1 {
		return 1
	}
	if k > MaxKernelSize {
		return MaxKernelSize
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// Normalize returns a copy with every field forced into its valid range.
// Invalid values are corrected rather than rejected.
func (p Params) Normalize() Params {
	p.MinAreaPercent = clampFloat(p.MinAreaPercent, 0, MaxAreaPercent)
	p.MinSolidity = clampFloat(p.MinSolidity, 0, 1)
	if p.MaxAspectRatio < 1 || math.IsNaN(p.MaxAspectRatio) {
		p.MaxAspectRatio = 1
	}
	p.ClosingKernelSize = p.Kernel()
	return p
}

// WithMinArea returns a copy of params with a new minimum area percentage.
func (p Params) WithMinArea(percent float64) Params {
	p.MinAreaPercent = percent
	return p.Normalize()
}

// WithSolidity returns a copy of params with a new solidity floor.
func (p Params) WithSolidity(s float64) Params {
	p.MinSolidity = s
	return p.Normalize()
}

// WithKernel returns a copy of params with a new closing kernel size.
func (p Params) WithKernel(k int) Params {
	p.ClosingKernelSize = k
	return p.Normalize()
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
