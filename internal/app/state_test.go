package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"panel-cropper/internal/batch"
	"panel-cropper/internal/config"
	"panel-cropper/internal/detect"
	"panel-cropper/internal/export"
	pageimage "panel-cropper/internal/image"
	"panel-cropper/internal/project"
	"panel-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource serves blank 200x300 pages. Pages listed in bad fail to load.
type memSource struct {
	n   int
	bad map[int]bool
}

func (m *memSource) Len() int          { return m.n }
func (m *memSource) Name(i int) string { return fmt.Sprintf("p%d.png", i+1) }
func (m *memSource) Close() error      { return nil }

func (m *memSource) Load(i int) (*pageimage.Page, error) {
	if m.bad[i] {
		return nil, errors.New("unreadable")
	}
	return &pageimage.Page{Name: m.Name(i), Image: image.NewRGBA(image.Rect(0, 0, 200, 300))}, nil
}

// stubDetector returns one rectangle per call whose height encodes the
// minimum solidity, so tests can tell which params produced a result.
type stubDetector struct {
	mu    sync.Mutex
	calls int
}

func (d *stubDetector) Detect(img image.Image, p detect.Params) ([]geometry.Rect, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	h := 10 + p.MinSolidity*100
	return []geometry.Rect{
		geometry.NewRect(10, 120, 60, 120+h),
		geometry.NewRect(10, 10, 60, 10+h),
	}, nil
}

func (d *stubDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func newTestState(t *testing.T, n int) (*State, *stubDetector) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Debounce = 20 * time.Millisecond
	cfg.Workers = 2
	cfg.Export.Dir = t.TempDir()
	det := &stubDetector{}
	s := NewState(cfg, det, nil)
	t.Cleanup(func() { s.Close() })
	if n > 0 {
		require.NoError(t, s.LoadPages(&memSource{n: n}))
	}
	return s, det
}

func createRegion(s *State, x1, y1, x2, y2 float64) {
	s.Press(geometry.Point2D{X: x1, Y: y1}, false)
	s.Drag(geometry.Point2D{X: x2, Y: y2})
	s.Release(geometry.Point2D{X: x2, Y: y2})
}

func TestLoadPagesShowsFirstPage(t *testing.T) {
	s, _ := newTestState(t, 0)

	var got []string
	s.On(EventStatus, func(d interface{}) { got = append(got, d.(string)) })
	var changed []int
	s.On(EventPageChanged, func(d interface{}) { changed = append(changed, d.(int)) })

	require.NoError(t, s.LoadPages(&memSource{n: 3}))

	assert.Equal(t, 3, s.PageCount())
	assert.Equal(t, 0, s.PageIndex())
	assert.Equal(t, []int{0}, changed)
	assert.Equal(t, []string{"Viewing: p1.png [1/3]"}, got)

	prev, next := s.CanNavigate()
	assert.False(t, prev)
	assert.True(t, next)
}

func TestNavigationResetsPageState(t *testing.T) {
	s, _ := newTestState(t, 2)

	createRegion(s, 10, 10, 60, 60)
	require.Len(t, s.Regions(), 1)
	undo, _ := s.CanUndo()
	assert.True(t, undo)

	require.NoError(t, s.Next())
	assert.Equal(t, 1, s.PageIndex())
	assert.Empty(t, s.Regions())
	undo, redo := s.CanUndo()
	assert.False(t, undo)
	assert.False(t, redo)

	assert.Error(t, s.Next(), "past last page")
	require.NoError(t, s.Prev())
	assert.Empty(t, s.Regions(), "regions are not kept across page switches")
}

func TestDetectCurrentIsOneUndoStep(t *testing.T) {
	s, _ := newTestState(t, 1)
	createRegion(s, 10, 10, 60, 60)
	before := s.Regions()

	require.NoError(t, s.DetectCurrent())
	require.Len(t, s.Regions(), 2)

	require.True(t, s.Undo())
	assert.Equal(t, before, s.Regions())
	require.True(t, s.Redo())
	assert.Len(t, s.Regions(), 2)
}

func TestSetParamsDebouncesRedetection(t *testing.T) {
	s, det := newTestState(t, 1)

	applied := make(chan struct{}, 8)
	s.On(EventRegionsChanged, func(interface{}) { applied <- struct{}{} })

	p := detect.DefaultParams()
	for _, sol := range []float64{0.1, 0.2, 0.3, 0.4} {
		s.SetParams(p.WithSolidity(sol))
	}

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("re-detection never applied")
	}
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, det.Calls(), "burst collapses into one run")
	regions := s.Regions()
	require.Len(t, regions, 2)
	assert.InDelta(t, 50, regions[0].Rect.Height(), 1e-9, "latest params win")

	require.True(t, s.Undo())
	assert.Empty(t, s.Regions())
}

func TestStaleDetectionDropped(t *testing.T) {
	s, _ := newTestState(t, 2)
	rects := []geometry.Rect{geometry.NewRect(0, 0, 5, 5)}

	s.mu.Lock()
	req := s.detectRequestLocked(nil)
	s.mu.Unlock()

	require.NoError(t, s.Next())
	assert.False(t, s.applyDetection(req, rects), "page changed")
	assert.Empty(t, s.Regions())

	s.mu.Lock()
	older := s.detectRequestLocked(nil)
	newer := s.detectRequestLocked(nil)
	s.mu.Unlock()
	assert.False(t, s.applyDetection(older, rects), "superseded by a newer request")
	assert.True(t, s.applyDetection(newer, rects))
	assert.Len(t, s.Regions(), 1)
}

// gatedDetector blocks every call until release is closed and records the
// most calls it saw running at once.
type gatedDetector struct {
	mu        sync.Mutex
	active    int
	maxActive int
	started   chan float64
	release   chan struct{}
}

func (d *gatedDetector) Detect(img image.Image, p detect.Params) ([]geometry.Rect, error) {
	d.mu.Lock()
	d.active++
	if d.active > d.maxActive {
		d.maxActive = d.active
	}
	d.mu.Unlock()

	d.started <- p.MinSolidity
	<-d.release

	d.mu.Lock()
	d.active--
	d.mu.Unlock()
	return []geometry.Rect{geometry.NewRect(10, 10, 60, 10+p.MinSolidity*100)}, nil
}

func (d *gatedDetector) MaxActive() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxActive
}

func TestDetectCurrentSerializedWithRedetection(t *testing.T) {
	cfg := config.Defaults()
	cfg.Debounce = 10 * time.Millisecond
	cfg.Export.Dir = t.TempDir()
	det := &gatedDetector{started: make(chan float64, 8), release: make(chan struct{})}
	s := NewState(cfg, det, nil)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.LoadPages(&memSource{n: 1}))

	errc := make(chan error, 1)
	go func() { errc <- s.DetectCurrent() }()
	assert.Equal(t, detect.DefaultParams().MinSolidity, <-det.started)

	p2 := detect.DefaultParams().WithSolidity(0.4)
	s.SetParams(p2)
	time.Sleep(80 * time.Millisecond)
	select {
	case sol := <-det.started:
		t.Fatalf("second detection (solidity %v) overlapped the first", sol)
	default:
	}

	close(det.release)
	require.NoError(t, <-errc)
	assert.Equal(t, 0.4, <-det.started)

	assert.Eventually(t, func() bool {
		r := s.Regions()
		return len(r) == 1 && r[0].Rect.Height() > 49.9 && r[0].Rect.Height() < 50.1
	}, 2*time.Second, 10*time.Millisecond, "latest params win")
	assert.Equal(t, 1, det.MaxActive())
	assert.Equal(t, p2, s.Params())

	require.True(t, s.Undo())
	assert.Empty(t, s.Regions())
	assert.False(t, s.Undo(), "the superseded result pushed no history")
}

func TestDetectCurrentAfterClose(t *testing.T) {
	s, _ := newTestState(t, 1)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.DetectCurrent(), ErrClosed)
}

func TestBatchReviewTwoPages(t *testing.T) {
	s, _ := newTestState(t, 2)

	var progress []Progress
	var mu sync.Mutex
	s.On(EventBatchProgress, func(d interface{}) {
		mu.Lock()
		progress = append(progress, d.(Progress))
		mu.Unlock()
	})

	require.NoError(t, s.StartBatch(context.Background()))
	require.True(t, s.Reviewing())
	assert.Len(t, progress, 2)
	assert.Equal(t, 0, s.PageIndex())

	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	page2 := job.Candidates(1)

	// Candidates arrive selected and free navigation is off.
	assert.Len(t, s.Regions(), 2)
	assert.ErrorIs(t, s.Next(), ErrReviewing)
	prev, next := s.CanNavigate()
	assert.False(t, prev || next)

	// Edit page 1, then approve.
	s.Escape()
	s.Press(geometry.Point2D{X: 20, Y: 20}, false)
	s.Drag(geometry.Point2D{X: 25, Y: 20})
	s.Release(geometry.Point2D{X: 25, Y: 20})

	res, err := s.ApprovePage()
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)

	assert.Equal(t, page2, job.Candidates(1), "approving page 1 leaves page 2 untouched")
	assert.Equal(t, 1, s.PageIndex(), "cursor advanced exactly once")
	assert.Len(t, s.Regions(), 2)

	res, err = s.ApprovePage()
	require.NoError(t, err)
	assert.Equal(t, "panel_004.png", filepath.Base(res.Files[1]))
	assert.False(t, s.Reviewing())
	assert.Equal(t, batch.StateDone, job.State())

	_, err = s.ApprovePage()
	assert.ErrorIs(t, err, batch.ErrNotReviewing)
	_, next = s.CanNavigate()
	assert.False(t, next, "on last page")
	assert.NoError(t, s.Prev())
}

func TestBatchSkipsUnreadablePages(t *testing.T) {
	s, _ := newTestState(t, 0)
	require.NoError(t, s.LoadPages(&memSource{n: 3, bad: map[int]bool{1: true}}))

	require.NoError(t, s.StartBatch(context.Background()))
	assert.Equal(t, 0, s.PageIndex())

	_, err := s.ApprovePage()
	require.NoError(t, err)
	assert.Equal(t, 2, s.PageIndex())
}

func TestApproveWithoutOutputDirStaysOnPage(t *testing.T) {
	s, _ := newTestState(t, 2)
	s.SetOutputDir("")

	require.NoError(t, s.StartBatch(context.Background()))
	before := s.Regions()

	_, err := s.ApprovePage()
	assert.ErrorIs(t, err, export.ErrNoOutputDir)
	assert.Equal(t, 0, s.PageIndex())
	assert.Equal(t, before, s.Regions())
	assert.Equal(t, 1, s.NextPanelNumber())

	dir := t.TempDir()
	s.SetOutputDir(dir)
	res, err := s.ApprovePage()
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)
	_, err = os.Stat(filepath.Join(dir, "panel_001.png"))
	assert.NoError(t, err)
}

func TestSetParamsIgnoredForReviewedPage(t *testing.T) {
	s, det := newTestState(t, 1)
	require.NoError(t, s.StartBatch(context.Background()))
	calls := det.Calls()
	before := s.Regions()

	s.SetParams(detect.DefaultParams().WithSolidity(0.1))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, calls, det.Calls())
	assert.Equal(t, before, s.Regions())
	assert.Equal(t, 0.1, s.Params().MinSolidity)
}

func TestSavePageSharesCounter(t *testing.T) {
	s, _ := newTestState(t, 2)
	createRegion(s, 10, 10, 60, 60)
	res, err := s.SavePage()
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "panel_001.png", filepath.Base(res.Files[0]))

	require.NoError(t, s.Next())
	createRegion(s, 10, 10, 60, 60)
	res, err = s.SavePage()
	require.NoError(t, err)
	assert.Equal(t, "panel_002.png", filepath.Base(res.Files[0]))

	m, err := project.Load(project.Path(s.OutputDir()))
	require.NoError(t, err)
	require.Len(t, m.Panels, 2)
	assert.Equal(t, "p2.png", m.Panels[1].Page)
	assert.Equal(t, geometry.NewRect(10, 10, 60, 60), m.Panels[1].Rect)
}

func TestApplyConfig(t *testing.T) {
	s, _ := newTestState(t, 1)
	cfg := config.Defaults()
	cfg.Export.Format = "jpeg"
	cfg.Export.Dir = ""
	s.ApplyConfig(cfg)

	assert.Equal(t, export.FormatJPEG, s.ExportFormat())
	assert.NotEmpty(t, s.OutputDir(), "empty dir keeps the current one")
	assert.Equal(t, cfg.Detection, s.Params())
}

func TestApplyConfigReachesCurrentPage(t *testing.T) {
	s, _ := newTestState(t, 3)
	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	require.NoError(t, s.GoTo(0))
	s.mu.Lock()
	assert.Equal(t, 3, s.cache.Len())
	s.mu.Unlock()

	createRegion(s, 10, 10, 60, 60)
	createRegion(s, 100, 10, 150, 60)
	createRegion(s, 10, 100, 60, 150)

	cfg := config.Defaults()
	cfg.HistoryDepth = 1
	cfg.MinCreateSize = 100
	cfg.PageCache = 1
	s.ApplyConfig(cfg)

	assert.True(t, s.Undo())
	assert.False(t, s.Undo(), "undo stack trimmed to the new depth")

	createRegion(s, 10, 200, 60, 250)
	assert.Len(t, s.Regions(), 2, "50px region is below the new minimum")

	s.mu.Lock()
	assert.Equal(t, 1, s.cache.Len())
	s.mu.Unlock()
}

func TestDeleteClearEscape(t *testing.T) {
	s, _ := newTestState(t, 1)
	createRegion(s, 10, 10, 60, 60)
	createRegion(s, 100, 10, 150, 60)

	s.SelectAll()
	s.Escape()
	assert.False(t, s.DeleteSelected(), "nothing selected after escape")

	s.Press(geometry.Point2D{X: 20, Y: 20}, false)
	s.Release(geometry.Point2D{X: 20, Y: 20})
	assert.True(t, s.DeleteSelected())
	assert.Len(t, s.Regions(), 1)

	assert.True(t, s.ClearAll())
	assert.Empty(t, s.Regions())
	assert.True(t, s.Undo())
	assert.Len(t, s.Regions(), 1)
}

func TestRedetectorQueuesBehindRun(t *testing.T) {
	started := make(chan int, 4)
	release := make(chan struct{})
	r := NewRedetector(5*time.Millisecond, func(n int) {
		started <- n
		<-release
	})
	defer r.Stop()

	r.Request(1)
	assert.Equal(t, 1, <-started)

	// Both arrive during the run; only the newest survives.
	r.Request(2)
	r.Request(3)
	time.Sleep(30 * time.Millisecond)
	assert.True(t, r.Pending())

	close(release)
	assert.Equal(t, 3, <-started)
	select {
	case n := <-started:
		t.Fatalf("unexpected run %d", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedetectorRunNowSkipsDelay(t *testing.T) {
	started := make(chan int, 4)
	release := make(chan struct{})
	r := NewRedetector(time.Hour, func(n int) {
		started <- n
		<-release
	})
	defer r.Stop()

	var mu sync.Mutex
	var dropped []int
	r.OnDrop(func(n int) {
		mu.Lock()
		dropped = append(dropped, n)
		mu.Unlock()
	})

	r.RunNow(1)
	assert.Equal(t, 1, <-started, "no debounce wait")

	r.Request(2)
	r.RunNow(3) // replaces the waiting request, queues behind run 1
	r.RunNow(4)

	close(release)
	assert.Equal(t, 4, <-started)
	mu.Lock()
	assert.Equal(t, []int{2, 3}, dropped)
	mu.Unlock()
}
