// Package detect finds rectangular comic panels on a page image using a
// threshold, morphological closing and contour filtering pipeline.
package detect

import (
	"fmt"
	"image"
	"log/slog"

	pageimage "panel-cropper/internal/image"
	"panel-cropper/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = pageimage.ErrEmpty

// Stats counts what happened to each contour during filtering.
type Stats struct {
	Contours       int `json:"contours"`
	Degenerate     int `json:"degenerate"`
	TooSmall       int `json:"too_small"`
	LowSolidity    int `json:"low_solidity"`
	BadAspectRatio int `json:"bad_aspect_ratio"`
	Accepted       int `json:"accepted"`
}

func (s Stats) String() string {
	return fmt.Sprintf("contours=%d accepted=%d degenerate=%d small=%d solidity=%d aspect=%d",
		s.Contours, s.Accepted, s.Degenerate, s.TooSmall, s.LowSolidity, s.BadAspectRatio)
}

// Detector runs the panel detection pipeline. It holds no per-page state and
// is safe for concurrent use.
type Detector struct {
	logger *slog.Logger
}

// New creates a detector. A nil logger discards output.
func New(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{logger: logger}
}

// Detect returns candidate panel rectangles in reading order.
// A page with no qualifying contours yields an empty slice and no error.
func (d *Detector) Detect(img image.Image, params Params) ([]geometry.Rect, error) {
	rects, _, err := d.DetectWithStats(img, params)
	return rects, err
}

// DetectWithStats is Detect plus filtering counters.
func (d *Detector) DetectWithStats(img image.Image, params Params) ([]geometry.Rect, Stats, error) {
	mat, err := pageimage.ToMat(img)
	if err != nil {
		mat.Close()
		return nil, Stats{}, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	return d.DetectMat(mat, params)
}

// DetectMat runs the pipeline on a BGR (or single channel) Mat.
func (d *Detector) DetectMat(src gocv.Mat, params Params) ([]geometry.Rect, Stats, error) {
	if src.Empty() {
		return nil, Stats{}, ErrEmptyImage
	}
	params = params.Normalize()

	gray := gocv.NewMat()
	defer gray.Close()
	if src.Channels() == 1 {
		src.CopyTo(&gray)
	} else {
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	}

	// Ink becomes foreground, near-white background becomes 0.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, BinaryThreshold, 255, gocv.ThresholdBinaryInv)

	k := params.Kernel()
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(binary, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	imageArea := float64(src.Cols() * src.Rows())
	minArea := params.MinAreaPercent / 100 * imageArea

	var stats Stats
	stats.Contours = contours.Size()
	rects := make([]geometry.Rect, 0, contours.Size())

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		bbox := gocv.BoundingRect(contour)
		w, h := bbox.Dx(), bbox.Dy()
		if w == 0 || h == 0 {
			stats.Degenerate++
			continue
		}

		hullArea := geometry.PolygonArea(geometry.ConvexHull(geometry.PointsFromImage(contour.ToPoints())))
		if hullArea == 0 {
			stats.Degenerate++
			continue
		}

		if area < minArea {
			stats.TooSmall++
			continue
		}

		if area/hullArea < params.MinSolidity {
			stats.LowSolidity++
			continue
		}

		ar := float64(w) / float64(h)
		if ar > params.MaxAspectRatio || ar < 1/params.MaxAspectRatio {
			stats.BadAspectRatio++
			continue
		}

		rects = append(rects, geometry.RectFromImage(bbox))
	}

	geometry.SortReadingOrder(rects)
	stats.Accepted = len(rects)

	d.logger.Debug("panel detection",
		"width", src.Cols(), "height", src.Rows(),
		"kernel", k, "stats", stats.String())

	return rects, stats, nil
}
