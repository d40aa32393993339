// Package batch runs panel detection over every page up front and then
// steps through the pages one at a time for approval.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"panel-cropper/internal/detect"
	"panel-cropper/internal/source"
	"panel-cropper/pkg/geometry"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ErrNotReviewing is returned by review operations on a finished job.
var ErrNotReviewing = errors.New("batch review is not in progress")

// State is the phase of a batch job.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateReviewing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateReviewing:
		return "reviewing"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// Detector finds candidate rectangles on one page.
type Detector interface {
	Detect(img image.Image, params detect.Params) ([]geometry.Rect, error)
}

// Options tune the detection phase.
type Options struct {
	// Workers bounds concurrent page detections (<= 0 means 1).
	Workers int
	// Progress is called after each page with the number finished so far.
	// Calls are serialized.
	Progress func(done, total int)
	Logger   *slog.Logger
}

// Job is the state of one batch review: the cached candidates of every
// page and the review cursor.
type Job struct {
	names      []string
	candidates [][]geometry.Rect
	errs       []error
	params     detect.Params
	cursor     int
	state      State
}

// Detect runs det over every page of src with params fixed for the whole
// job. Pages that fail to load or detect are recorded and skipped during
// review. Only context cancellation aborts the run.
func Detect(ctx context.Context, src source.Source, det Detector, params detect.Params, opts Options) (*Job, error) {
	n := src.Len()
	if n == 0 {
		return nil, source.ErrNoPages
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	job := &Job{
		names:      make([]string, n),
		candidates: make([][]geometry.Rect, n),
		errs:       make([]error, n),
		params:     params.Normalize(),
		state:      StateDetecting,
	}

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if opts.Progress != nil {
			opts.Progress(done, n)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		job.names[i] = src.Name(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer report()

			page, err := src.Load(i)
			if err != nil {
				job.errs[i] = err
				logger.Warn("page skipped", "page", i+1, "name", job.names[i], "error", err)
				return nil
			}
			rects, err := det.Detect(page.Image, job.params)
			if err != nil {
				job.errs[i] = fmt.Errorf("detection failed: %w", err)
				logger.Warn("page skipped", "page", i+1, "name", job.names[i], "error", err)
				return nil
			}
			job.candidates[i] = rects
			logger.Debug("page detected", "page", i+1, "candidates", len(rects))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	job.state = StateReviewing
	job.cursor = job.nextReviewable(0)
	if job.cursor >= n {
		job.state = StateDone
	}
	return job, nil
}

// State returns the job phase.
func (j *Job) State() State { return j.state }

// Len returns the number of pages in the job.
func (j *Job) Len() int { return len(j.names) }

// Name returns the display name of page i.
func (j *Job) Name(i int) string { return j.names[i] }

// Params returns the detection parameters the job ran with.
func (j *Job) Params() detect.Params { return j.params }

// Err returns the load or detection error of page i, if any.
func (j *Job) Err(i int) error { return j.errs[i] }

// Failed returns the indices of pages that could not be processed.
func (j *Job) Failed() []int {
	var out []int
	for i, err := range j.errs {
		if err != nil {
			out = append(out, i)
		}
	}
	return out
}

// Candidates returns a copy of the cached rectangles of page i.
func (j *Job) Candidates(i int) []geometry.Rect {
	src := j.candidates[i]
	out := make([]geometry.Rect, len(src))
	copy(out, src)
	return out
}

// Current returns the page under review.
func (j *Job) Current() (int, bool) {
	if j.state != StateReviewing {
		return 0, false
	}
	return j.cursor, true
}

// Approve finalizes the current page and moves the cursor exactly once,
// past any failed pages. It reports whether the review is now done.
func (j *Job) Approve() (done bool, err error) {
	if j.state != StateReviewing {
		return false, ErrNotReviewing
	}
	j.cursor = j.nextReviewable(j.cursor + 1)
	if j.cursor >= len(j.names) {
		j.state = StateDone
		return true, nil
	}
	return false, nil
}

// Cancel abandons the review.
func (j *Job) Cancel() {
	j.state = StateIdle
}

func (j *Job) nextReviewable(from int) int {
	i := from
	for i < len(j.names) && j.errs[i] != nil {
		i++
	}
	return i
}

// Summary describes a finished detection phase.
type Summary struct {
	Pages       int
	Failed      int
	Candidates  int
	MeanPerPage float64
	StdDev      float64
}

// Summary aggregates candidate counts over the pages that were detected.
func (j *Job) Summary() Summary {
	s := Summary{Pages: len(j.names)}
	var counts []float64
	for i := range j.names {
		if j.errs[i] != nil {
			s.Failed++
			continue
		}
		s.Candidates += len(j.candidates[i])
		counts = append(counts, float64(len(j.candidates[i])))
	}
	if len(counts) > 0 {
		s.MeanPerPage, s.StdDev = stat.MeanStdDev(counts, nil)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d page(s), %d candidate(s), %.1f per page, %d failed",
		s.Pages, s.Candidates, s.MeanPerPage, s.Failed)
}
