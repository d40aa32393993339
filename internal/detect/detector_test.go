package detect

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"panel-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPage returns a white page with solid dark bordered panels.
func newPage(w, h int, panels []image.Rectangle, border int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	ink := image.NewUniform(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	for _, p := range panels {
		draw.Draw(img, image.Rect(p.Min.X, p.Min.Y, p.Max.X, p.Min.Y+border), ink, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(p.Min.X, p.Max.Y-border, p.Max.X, p.Max.Y), ink, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(p.Min.X, p.Min.Y, p.Min.X+border, p.Max.Y), ink, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(p.Max.X-border, p.Min.Y, p.Max.X, p.Max.Y), ink, image.Point{}, draw.Src)
	}
	return img
}

var threePanels = []image.Rectangle{
	image.Rect(60, 980, 940, 1340),
	image.Rect(60, 40, 940, 460),
	image.Rect(60, 520, 940, 920),
}

func TestDetectThreePanels(t *testing.T) {
	page := newPage(1000, 1400, threePanels, 4)

	rects, err := New(nil).Detect(page, DefaultParams())
	require.NoError(t, err)
	require.Len(t, rects, 3)

	want := []geometry.Rect{
		geometry.RectFromImage(threePanels[1]),
		geometry.RectFromImage(threePanels[2]),
		geometry.RectFromImage(threePanels[0]),
	}
	assert.Equal(t, want, rects)
}

func TestDetectDeterministic(t *testing.T) {
	page := newPage(600, 800, []image.Rectangle{
		image.Rect(20, 20, 290, 380),
		image.Rect(310, 20, 580, 380),
		image.Rect(20, 400, 580, 780),
	}, 3)
	d := New(nil)
	params := DefaultParams()

	first, err := d.Detect(page, params)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := d.Detect(page, params)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// Same top edge: left panel first.
	require.Len(t, first, 3)
	assert.Less(t, first[0].X1, first[1].X1)
}

func TestSolidityFilterIsMonotonic(t *testing.T) {
	page := newPage(800, 800, []image.Rectangle{
		image.Rect(40, 40, 380, 380),
		image.Rect(420, 40, 760, 380),
	}, 4)

	// A filled L shape has solidity well below 1.
	ink := image.NewUniform(color.Black)
	draw.Draw(page, image.Rect(40, 420, 400, 500), ink, image.Point{}, draw.Src)
	draw.Draw(page, image.Rect(40, 420, 120, 760), ink, image.Point{}, draw.Src)

	d := New(nil)
	prev := -1
	for _, s := range []float64{0, 0.2, 0.4, 0.6, 0.85, 0.95, 1} {
		rects, err := d.Detect(page, DefaultParams().WithSolidity(s))
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(rects), prev, "solidity %v", s)
		}
		prev = len(rects)
	}

	loose, err := d.Detect(page, DefaultParams().WithSolidity(0))
	require.NoError(t, err)
	strict, err := d.Detect(page, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, loose, 3)
	assert.Len(t, strict, 2)
}

func TestDetectFilters(t *testing.T) {
	t.Run("blank page", func(t *testing.T) {
		page := newPage(300, 300, nil, 0)
		rects, stats, err := New(nil).DetectWithStats(page, DefaultParams())
		require.NoError(t, err)
		assert.Empty(t, rects)
		assert.Zero(t, stats.Contours)
	})

	t.Run("small specks", func(t *testing.T) {
		page := newPage(1000, 1000, []image.Rectangle{image.Rect(10, 10, 30, 30)}, 2)
		rects, stats, err := New(nil).DetectWithStats(page, DefaultParams())
		require.NoError(t, err)
		assert.Empty(t, rects)
		assert.Equal(t, 1, stats.TooSmall)
	})

	t.Run("sliver", func(t *testing.T) {
		page := image.NewRGBA(image.Rect(0, 0, 1000, 400))
		draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(page, image.Rect(10, 100, 990, 130), image.NewUniform(color.Black), image.Point{}, draw.Src)

		params := DefaultParams()
		params.MaxAspectRatio = 10
		rects, stats, err := New(nil).DetectWithStats(page, params)
		require.NoError(t, err)
		assert.Empty(t, rects)
		assert.Equal(t, 1, stats.BadAspectRatio)
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := New(nil).Detect(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultParams())
		assert.ErrorIs(t, err, ErrEmptyImage)
	})
}

func TestParamsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults unchanged", DefaultParams(), DefaultParams()},
		{"even kernel rounds up", Params{0.1, 0.85, 25, 4}, Params{0.1, 0.85, 25, 5}},
		{"zero kernel", Params{0.1, 0.85, 25, 0}, Params{0.1, 0.85, 25, 1}},
		{"huge kernel", Params{0.1, 0.85, 25, 40}, Params{0.1, 0.85, 25, MaxKernelSize}},
		{"out of range", Params{9, 1.5, 0.2, -3}, Params{MaxAreaPercent, 1, 1, 1}},
		{"negative", Params{-1, -0.5, 25, 7}, Params{0, 0, 25, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
