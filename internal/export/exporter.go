// Package export crops approved regions out of the original page image and
// writes them as numbered files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"

	"panel-cropper/pkg/geometry"

	"github.com/dustin/go-humanize"
)

// ErrNoOutputDir is returned when exporting before an output directory is set.
// It is recoverable: set Dir and retry.
var ErrNoOutputDir = errors.New("no output directory selected")

// Result describes one export action.
type Result struct {
	Files   []string          // Written paths, in numbering order
	Crops   []image.Rectangle // Source pixels of each file
	Skipped int               // Regions that clamped to zero area
	Bytes   int64             // Total bytes written
}

func (r Result) String() string {
	s := fmt.Sprintf("saved %d panel(s), %s", len(r.Files), humanize.Bytes(uint64(r.Bytes)))
	if r.Skipped > 0 {
		s += fmt.Sprintf(", skipped %d empty", r.Skipped)
	}
	return s
}

// Exporter writes crops into Dir using a session-wide Counter.
type Exporter struct {
	Dir     string
	Format  Format
	Counter *Counter

	logger *slog.Logger
}

// New creates an exporter. A nil counter starts at 1.
func New(dir string, format Format, counter *Counter, logger *slog.Logger) *Exporter {
	if counter == nil {
		counter = NewCounter(1)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{Dir: dir, Format: format, Counter: counter, logger: logger}
}

// Plan sorts regions into reading order and clamps them to bounds.
// Regions left with no area are dropped and counted.
func Plan(bounds image.Rectangle, rects []geometry.Rect) (crops []image.Rectangle, skipped int) {
	sorted := make([]geometry.Rect, len(rects))
	for i, r := range rects {
		sorted[i] = r.Normalize()
	}
	geometry.SortReadingOrder(sorted)

	limit := geometry.RectFromImage(bounds)
	for _, r := range sorted {
		crop := r.Intersect(limit).Image().Intersect(bounds)
		if crop.Dx() <= 0 || crop.Dy() <= 0 {
			skipped++
			continue
		}
		crops = append(crops, crop)
	}
	return crops, skipped
}

// ExportPage crops every region from img and writes one file per region.
// The counter advances once per written file. On a write error the files
// already written stay on disk and are reported in the result.
func (e *Exporter) ExportPage(img image.Image, rects []geometry.Rect) (Result, error) {
	var res Result
	if e.Dir == "" {
		return res, ErrNoOutputDir
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	crops, skipped := Plan(img.Bounds(), rects)
	res.Skipped = skipped

	for _, crop := range crops {
		data, err := encode(Crop(img, crop), e.Format)
		if err != nil {
			return res, fmt.Errorf("failed to encode panel: %w", err)
		}

		n := e.Counter.Peek()
		path := filepath.Join(e.Dir, FileName(n, e.Format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return res, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
		}
		e.Counter.Advance()

		res.Files = append(res.Files, path)
		res.Crops = append(res.Crops, crop)
		res.Bytes += int64(len(data))
		e.logger.Debug("panel saved", "path", path, "rect", crop.String())
	}

	e.logger.Info("page exported", "dir", e.Dir, "files", len(res.Files),
		"skipped", res.Skipped, "size", humanize.Bytes(uint64(res.Bytes)))
	return res, nil
}

// Crop copies the pixels of img inside r at full resolution, re-based at (0,0).
func Crop(img image.Image, r image.Rectangle) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
