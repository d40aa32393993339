// Package app provides the session state shared by the window and the
// background workers: pages, the current page's regions, detection and
// batch review.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"panel-cropper/internal/batch"
	"panel-cropper/internal/config"
	"panel-cropper/internal/detect"
	"panel-cropper/internal/export"
	"panel-cropper/internal/history"
	pageimage "panel-cropper/internal/image"
	"panel-cropper/internal/interact"
	"panel-cropper/internal/project"
	"panel-cropper/internal/region"
	"panel-cropper/internal/source"
	"panel-cropper/internal/system"
	"panel-cropper/internal/viewport"
	"panel-cropper/pkg/geometry"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNoPage is returned by page operations before pages are loaded.
	ErrNoPage = errors.New("no page loaded")
	// ErrClosed is returned by detection after Close.
	ErrClosed = errors.New("session closed")
	// ErrReviewing is returned by free navigation during batch review.
	ErrReviewing = errors.New("batch review in progress")
	// ErrBusy is returned when a batch is started while one is running.
	ErrBusy = errors.New("batch detection already running")
)

// EventType identifies different application events.
type EventType int

const (
	EventPagesLoaded EventType = iota
	EventPageChanged
	EventRegionsChanged
	EventSceneChanged
	EventParamsChanged
	EventBatchProgress
	EventBatchChanged
	EventExported
	EventStatus
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Progress is the data of EventBatchProgress.
type Progress struct {
	Done, Total int
}

type event struct {
	typ  EventType
	data interface{}
}

// Page is the page being edited.
type Page struct {
	Index int
	Name  string
	Image *pageimage.Page

	gen  uint64
	ctrl *interact.Controller
}

// Frame is everything needed to draw the canvas once.
type Frame struct {
	Image image.Image
	View  viewport.Viewport
	Scene interact.Scene
}

// detectRequest is one detection of the current page. seq orders requests
// so only the most recently issued one may apply; done, when set, receives
// exactly once whether the request ran or was superseded.
type detectRequest struct {
	gen    uint64
	seq    uint64
	img    image.Image
	params detect.Params
	done   chan error
}

func (r detectRequest) finish(err error) {
	if r.done != nil {
		r.done <- err
	}
}

// State holds the session: the page source, the current page and its
// editing state, detection parameters and the batch job.
type State struct {
	mu sync.Mutex

	cfg      config.Config
	params   detect.Params
	logger   *slog.Logger
	detector batch.Detector

	src   source.Source
	cache *lru.Cache[int, *pageimage.Page]
	page  *Page
	gen   uint64
	view  *viewport.Viewport

	exporter *export.Exporter
	job      *batch.Job
	batching bool

	redetect  *Redetector[detectRequest]
	detectSeq uint64
	closed    bool

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// NewState creates a session from cfg. A nil logger discards output.
func NewState(cfg config.Config, det batch.Detector, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("invalid config, using defaults", "error", err)
		cfg = config.Defaults()
	}
	s := &State{
		cfg:       cfg,
		params:    cfg.Detection,
		logger:    logger,
		detector:  det,
		view:      viewport.New(),
		exporter:  export.New(cfg.Export.Dir, cfg.ExportFormat(), export.NewCounter(cfg.Export.StartCounter), logger),
		listeners: make(map[EventType][]EventListener),
	}
	s.redetect = NewRedetector(cfg.Debounce, s.runDetect)
	s.redetect.OnDrop(func(req detectRequest) { req.finish(nil) })
	return s
}

// Close stops background work and releases the page source.
func (s *State) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.redetect.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src != nil {
		err := s.src.Close()
		s.src = nil
		return err
	}
	return nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.lmu.RLock()
	listeners := s.listeners[event]
	s.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// dispatch emits queued events. Called without s.mu held so listeners may
// call back into the state.
func (s *State) dispatch(events []event) {
	for _, e := range events {
		s.Emit(e.typ, e.data)
	}
}

func status(format string, args ...interface{}) event {
	return event{EventStatus, fmt.Sprintf(format, args...)}
}

// Pages

// LoadPages replaces the session's pages and shows the first one. Any batch
// job is abandoned.
func (s *State) LoadPages(src source.Source) error {
	s.mu.Lock()
	if s.batching {
		s.mu.Unlock()
		return ErrBusy
	}
	s.redetect.Cancel()
	if s.src != nil {
		s.src.Close()
	}
	cache, err := lru.New[int, *pageimage.Page](s.cfg.PageCache)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.src, s.cache, s.job, s.page = src, cache, nil, nil

	events := []event{{EventPagesLoaded, src.Len()}}
	evs, err := s.showPageLocked(0)
	events = append(events, evs...)
	s.mu.Unlock()

	s.logger.Info("pages loaded", "count", src.Len())
	s.dispatch(events)
	return err
}

// PageCount returns the number of loaded pages.
func (s *State) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil {
		return 0
	}
	return s.src.Len()
}

// PageIndex returns the index of the current page, or -1.
func (s *State) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return -1
	}
	return s.page.Index
}

// PageName returns the display name of the current page.
func (s *State) PageName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return ""
	}
	return s.page.Name
}

// PageNames lists every loaded page name in order.
func (s *State) PageNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil {
		return nil
	}
	names := make([]string, s.src.Len())
	for i := range names {
		names[i] = s.src.Name(i)
	}
	return names
}

// GoTo shows page i. Not allowed during batch review.
func (s *State) GoTo(i int) error {
	s.mu.Lock()
	if s.src == nil {
		s.mu.Unlock()
		return ErrNoPage
	}
	if s.job != nil || s.batching {
		s.mu.Unlock()
		return ErrReviewing
	}
	if i < 0 || i >= s.src.Len() {
		s.mu.Unlock()
		return fmt.Errorf("page %d out of range", i+1)
	}
	s.redetect.Cancel()
	events, err := s.showPageLocked(i)
	s.mu.Unlock()
	s.dispatch(events)
	return err
}

// Next shows the following page.
func (s *State) Next() error {
	i := s.PageIndex()
	if i < 0 {
		return ErrNoPage
	}
	return s.GoTo(i + 1)
}

// Prev shows the preceding page.
func (s *State) Prev() error {
	i := s.PageIndex()
	if i < 0 {
		return ErrNoPage
	}
	return s.GoTo(i - 1)
}

// CanNavigate reports whether free page navigation is enabled.
func (s *State) CanNavigate() (prev, next bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil || s.job != nil || s.batching {
		return false, false
	}
	return s.page.Index > 0, s.page.Index < s.src.Len()-1
}

// showPageLocked makes page i current with empty regions and fresh history.
// On a load failure the previous page stays current.
func (s *State) showPageLocked(i int) ([]event, error) {
	p, err := s.loadLocked(i)
	if err != nil {
		s.logger.Warn("page load failed", "page", i+1, "error", err)
		return []event{status("Could not open %s: %v", s.src.Name(i), err)}, err
	}

	s.gen++
	s.page = &Page{
		Index: i,
		Name:  s.src.Name(i),
		Image: p,
		gen:   s.gen,
		ctrl: interact.New(region.NewStore(), history.New(s.cfg.HistoryDepth), s.view, interact.Options{
			HandleSize:    s.cfg.HandleSize,
			MinCreateSize: s.cfg.MinCreateSize,
		}),
	}
	s.view.SetImage(p.Size())

	events := []event{{EventPageChanged, i}, {EventSceneChanged, nil}}
	if s.job == nil {
		events = append(events, status("Viewing: %s [%d/%d]", s.page.Name, i+1, s.src.Len()))
	}
	return events, nil
}

func (s *State) loadLocked(i int) (*pageimage.Page, error) {
	if p, ok := s.cache.Get(i); ok {
		return p, nil
	}
	p, err := s.src.Load(i)
	if err != nil {
		return nil, err
	}
	s.cache.Add(i, p)
	return p, nil
}

// Frame returns a copy of what the canvas should draw.
func (s *State) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := Frame{View: *s.view}
	if s.page != nil {
		f.Image = s.page.Image.Image
		f.Scene = s.page.ctrl.Scene()
	}
	return f
}

// Regions returns the current page's committed regions.
func (s *State) Regions() []region.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil
	}
	return s.page.ctrl.Store().Regions()
}

// SelectionCount returns the number of regions on the page and how many
// of them are selected.
func (s *State) SelectionCount() (total, selected int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return 0, 0
	}
	store := s.page.ctrl.Store()
	return store.Len(), store.SelectedCount()
}

// CanUndo reports the availability of undo and redo on the current page.
func (s *State) CanUndo() (undo, redo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return false, false
	}
	h := s.page.ctrl.History()
	return h.CanUndo(), h.CanRedo()
}

// Pointer input, in view coordinates.

// Press starts a gesture.
func (s *State) Press(p geometry.Point2D, toggle bool) interact.Mode {
	s.mu.Lock()
	if s.page == nil {
		s.mu.Unlock()
		return interact.ModeIdle
	}
	mode := s.page.ctrl.Press(p, toggle)
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
	return mode
}

// Drag updates the gesture in progress.
func (s *State) Drag(p geometry.Point2D) {
	s.mu.Lock()
	if s.page == nil {
		s.mu.Unlock()
		return
	}
	s.page.ctrl.Drag(p)
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
}

// Release ends the gesture and reports whether regions changed.
func (s *State) Release(p geometry.Point2D) bool {
	s.mu.Lock()
	if s.page == nil {
		s.mu.Unlock()
		return false
	}
	changed := s.page.ctrl.Release(p)
	s.mu.Unlock()
	if changed {
		s.Emit(EventRegionsChanged, nil)
	}
	s.Emit(EventSceneChanged, nil)
	return changed
}

// Hover returns the handle under p for cursor feedback.
func (s *State) Hover(p geometry.Point2D) interact.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return interact.HandleNone
	}
	return s.page.ctrl.Hover(p)
}

// Editing commands

func (s *State) edit(fn func(c *interact.Controller) bool) bool {
	s.mu.Lock()
	if s.page == nil {
		s.mu.Unlock()
		return false
	}
	changed := fn(s.page.ctrl)
	s.mu.Unlock()
	if changed {
		s.Emit(EventRegionsChanged, nil)
	}
	s.Emit(EventSceneChanged, nil)
	return changed
}

// Undo restores the previous region list of the current page.
func (s *State) Undo() bool { return s.edit((*interact.Controller).Undo) }

// Redo re-applies the last undone change.
func (s *State) Redo() bool { return s.edit((*interact.Controller).Redo) }

// DeleteSelected removes the selected regions.
func (s *State) DeleteSelected() bool {
	return s.edit(func(c *interact.Controller) bool { return c.DeleteSelected() > 0 })
}

// ClearAll removes every region of the current page.
func (s *State) ClearAll() bool { return s.edit((*interact.Controller).ClearAll) }

// SelectAll selects every region.
func (s *State) SelectAll() {
	s.edit(func(c *interact.Controller) bool {
		c.SelectAll()
		return false
	})
}

// Escape cancels a gesture in progress or clears the selection.
func (s *State) Escape() {
	s.edit(func(c *interact.Controller) bool {
		c.ClearSelection()
		return false
	})
}

// Detection

// Params returns the session detection parameters.
func (s *State) Params() detect.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams stores new parameters and schedules a debounced re-detection of
// the current page. Pages under batch review keep their cached candidates.
func (s *State) SetParams(p detect.Params) {
	p = p.Normalize()
	s.mu.Lock()
	changed := p != s.params
	s.params = p
	if changed && s.page != nil && s.job == nil && !s.batching && !s.closed {
		s.redetect.Request(s.detectRequestLocked(nil))
	}
	s.mu.Unlock()
	if changed {
		s.Emit(EventParamsChanged, p)
	}
}

// DetectCurrent detects panels on the current page and replaces its regions
// as one undoable step. It runs on the same worker as the debounced
// re-detection, after any run in progress, and returns once its result is
// applied or superseded by a newer request.
func (s *State) DetectCurrent() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.page == nil {
		s.mu.Unlock()
		return ErrNoPage
	}
	if s.job != nil || s.batching {
		s.mu.Unlock()
		return ErrReviewing
	}
	done := make(chan error, 1)
	s.redetect.RunNow(s.detectRequestLocked(done))
	s.mu.Unlock()

	s.Emit(EventStatus, "Detecting panels on current page...")
	return <-done
}

// detectRequestLocked issues the next request for the current page.
func (s *State) detectRequestLocked(done chan error) detectRequest {
	s.detectSeq++
	return detectRequest{
		gen:    s.page.gen,
		seq:    s.detectSeq,
		img:    s.page.Image.Image,
		params: s.params,
		done:   done,
	}
}

func (s *State) runDetect(req detectRequest) {
	rects, err := s.detector.Detect(req.img, req.params)
	if err != nil {
		s.logger.Warn("detection failed", "error", err)
		s.Emit(EventStatus, fmt.Sprintf("Detection failed: %v", err))
		req.finish(err)
		return
	}
	s.applyDetection(req, rects)
	req.finish(nil)
}

// applyDetection replaces the current page's regions with rects if req is
// the latest request issued, its page is still current and no batch review
// is active. Stale results are dropped and false is returned.
func (s *State) applyDetection(req detectRequest, rects []geometry.Rect) bool {
	s.mu.Lock()
	if s.page == nil || s.page.gen != req.gen || req.seq != s.detectSeq || s.job != nil {
		s.mu.Unlock()
		s.logger.Debug("stale detection dropped", "gen", req.gen, "seq", req.seq)
		return false
	}
	s.page.ctrl.ReplaceAll(rects, false)
	s.mu.Unlock()

	s.dispatch([]event{
		{EventRegionsChanged, nil},
		{EventSceneChanged, nil},
		status("Detected %d panels.", len(rects)),
	})
	return true
}

// Batch review

// Reviewing reports whether a batch review is active.
func (s *State) Reviewing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

// Batching reports whether batch detection is running.
func (s *State) Batching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batching
}

// StartBatch detects panels on every page with the current parameters and
// then begins review at the first readable page. It blocks until detection
// has finished.
func (s *State) StartBatch(ctx context.Context) error {
	s.mu.Lock()
	if s.src == nil {
		s.mu.Unlock()
		return ErrNoPage
	}
	if s.batching {
		s.mu.Unlock()
		return ErrBusy
	}
	s.batching = true
	s.job = nil
	s.redetect.Cancel()
	src, params := s.src, s.params
	workers := system.Workers(s.cfg.Workers)
	s.mu.Unlock()

	s.Emit(EventBatchChanged, batch.StateDetecting)
	job, err := batch.Detect(ctx, src, s.detector, params, batch.Options{
		Workers: workers,
		Logger:  s.logger,
		Progress: func(done, total int) {
			s.Emit(EventBatchProgress, Progress{Done: done, Total: total})
			s.Emit(EventStatus, fmt.Sprintf("Detecting page %d/%d", done, total))
		},
	})

	s.mu.Lock()
	s.batching = false
	s.mu.Unlock()

	if err != nil {
		s.Emit(EventBatchChanged, batch.StateIdle)
		s.Emit(EventStatus, fmt.Sprintf("Batch detection stopped: %v", err))
		return err
	}
	s.logger.Info("batch detection finished", "summary", job.Summary().String())
	for _, i := range job.Failed() {
		s.Emit(EventStatus, fmt.Sprintf("Skipped %s: %v", job.Name(i), job.Err(i)))
	}
	return s.BeginReview(job)
}

// BeginReview shows the job's current page seeded with its candidates.
func (s *State) BeginReview(job *batch.Job) error {
	s.mu.Lock()
	if s.src == nil {
		s.mu.Unlock()
		return ErrNoPage
	}
	s.redetect.Cancel()
	s.job = job
	events, err := s.reviewCurrentLocked()
	s.mu.Unlock()
	s.dispatch(events)
	return err
}

// reviewCurrentLocked shows the job's cursor page, skipping pages that
// fail to load now, and ends the review when none remain.
func (s *State) reviewCurrentLocked() ([]event, error) {
	var events []event
	for {
		i, ok := s.job.Current()
		if !ok {
			return append(events, s.finishReviewLocked()...), nil
		}
		evs, err := s.showPageLocked(i)
		events = append(events, evs...)
		if err == nil {
			s.page.ctrl.Seed(s.job.Candidates(i), true)
			return append(events,
				event{EventBatchChanged, batch.StateReviewing},
				status("Reviewing page %d/%d. Adjust and approve.", i+1, s.job.Len()),
			), nil
		}
		if _, err := s.job.Approve(); err != nil {
			return events, err
		}
	}
}

func (s *State) finishReviewLocked() []event {
	summary := s.job.Summary()
	s.job = nil
	s.logger.Info("batch review finished", "summary", summary.String())
	return []event{
		{EventBatchChanged, batch.StateDone},
		status("Batch complete: %s.", summary),
	}
}

// ApprovePage exports the current page's regions and advances the review
// by exactly one page. On an export error the review stays on the page.
func (s *State) ApprovePage() (export.Result, error) {
	s.mu.Lock()
	if s.job == nil || s.page == nil {
		s.mu.Unlock()
		return export.Result{}, batch.ErrNotReviewing
	}
	res, err := s.exportLocked()
	if err != nil {
		s.mu.Unlock()
		s.Emit(EventStatus, fmt.Sprintf("Export failed: %v", err))
		return res, err
	}
	events := []event{{EventExported, res}}
	if _, err := s.job.Approve(); err != nil {
		s.mu.Unlock()
		s.dispatch(events)
		return res, err
	}
	evs, err := s.reviewCurrentLocked()
	events = append(events, evs...)
	s.mu.Unlock()
	s.dispatch(events)
	return res, err
}

// CancelBatch abandons the review. The current page and its regions stay.
func (s *State) CancelBatch() {
	s.mu.Lock()
	if s.job == nil {
		s.mu.Unlock()
		return
	}
	s.job.Cancel()
	s.job = nil
	s.mu.Unlock()
	s.dispatch([]event{{EventBatchChanged, batch.StateIdle}, status("Batch review cancelled.")})
}

// Export

// SavePage exports the current page's regions outside batch review.
func (s *State) SavePage() (export.Result, error) {
	s.mu.Lock()
	if s.page == nil {
		s.mu.Unlock()
		return export.Result{}, ErrNoPage
	}
	res, err := s.exportLocked()
	idx := s.page.Index
	s.mu.Unlock()

	if err != nil {
		s.Emit(EventStatus, fmt.Sprintf("Export failed: %v", err))
		return res, err
	}
	s.dispatch([]event{{EventExported, res}, status("Saved %d panels for page %d.", len(res.Files), idx+1)})
	return res, nil
}

func (s *State) exportLocked() (export.Result, error) {
	rects := region.Rects(s.page.ctrl.Store().Regions())
	if len(rects) == 0 {
		return export.Result{}, nil
	}
	res, err := s.exporter.ExportPage(s.page.Image.Image, rects)
	if len(res.Files) > 0 {
		if merr := project.Record(s.exporter.Dir, s.page.Name, res.Files, res.Crops); merr != nil {
			s.logger.Warn("manifest not updated", "dir", s.exporter.Dir, "error", merr)
		}
	}
	return res, err
}

// OutputDir returns the export directory.
func (s *State) OutputDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporter.Dir
}

// SetOutputDir sets the export directory for the rest of the session.
func (s *State) SetOutputDir(dir string) {
	s.mu.Lock()
	s.exporter.Dir = dir
	s.mu.Unlock()
	s.Emit(EventStatus, fmt.Sprintf("Output: %s", dir))
}

// SetExportFormat changes the output encoding.
func (s *State) SetExportFormat(f export.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exporter.Format = f
}

// ExportFormat returns the output encoding.
func (s *State) ExportFormat() export.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporter.Format
}

// NextPanelNumber returns the number the next exported panel will get.
func (s *State) NextPanelNumber() int {
	return s.exporter.Counter.Peek()
}

// View

// Resize sets the display size and refits the page.
func (s *State) Resize(w, h float64) {
	s.mu.Lock()
	s.view.Resize(geometry.NewSize(w, h))
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
}

// ResizeQuiet is Resize without an event, for callers that are already
// redrawing.
func (s *State) ResizeQuiet(w, h float64) {
	s.mu.Lock()
	s.view.Resize(geometry.NewSize(w, h))
	s.mu.Unlock()
}

// ZoomAt scales the view by factor keeping anchor fixed.
func (s *State) ZoomAt(factor float64, anchor geometry.Point2D) {
	s.mu.Lock()
	s.view.ZoomAt(factor, anchor)
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
}

// PanBy moves the view.
func (s *State) PanBy(dx, dy float64) {
	s.mu.Lock()
	s.view.PanBy(dx, dy)
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
}

// FitView fits the page into the display.
func (s *State) FitView() {
	s.mu.Lock()
	s.view.Fit()
	s.mu.Unlock()
	s.Emit(EventSceneChanged, nil)
}

// ApplyConfig takes settings reloaded from disk. Parameter changes go
// through the same debounced path as the settings controls.
func (s *State) ApplyConfig(cfg config.Config) {
	s.mu.Lock()
	s.cfg.HandleSize = cfg.HandleSize
	s.cfg.MinCreateSize = cfg.MinCreateSize
	s.cfg.Workers = cfg.Workers
	s.cfg.HistoryDepth = cfg.HistoryDepth
	s.cfg.PageCache = cfg.PageCache
	s.cfg.PDFDPI = cfg.PDFDPI
	s.redetect.SetDelay(cfg.Debounce)
	if s.page != nil {
		s.page.ctrl.SetOptions(interact.Options{
			HandleSize:    cfg.HandleSize,
			MinCreateSize: cfg.MinCreateSize,
		})
		s.page.ctrl.History().SetMaxDepth(cfg.HistoryDepth)
	}
	if s.cache != nil {
		s.cache.Resize(cfg.PageCache)
	}
	if cfg.Export.Dir != "" {
		s.exporter.Dir = cfg.Export.Dir
	}
	s.exporter.Format = cfg.ExportFormat()
	s.mu.Unlock()
	s.SetParams(cfg.Detection)
}
