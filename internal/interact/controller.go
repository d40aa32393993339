// Package interact turns view-space pointer gestures into edits of a page's
// region store. Gesture edits go to a working copy and are committed, with a
// single history entry, when the gesture ends.
package interact

import (
	"math"

	"panel-cropper/internal/history"
	"panel-cropper/internal/region"
	"panel-cropper/internal/viewport"
	"panel-cropper/pkg/geometry"
)

// Mode is the state of the current gesture.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCreating
	ModeMoving
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeCreating:
		return "creating"
	case ModeMoving:
		return "moving"
	case ModeResizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Options are the view-space tolerances of the controller.
type Options struct {
	// HandleSize is the grab radius of resize handles, in view pixels.
	HandleSize float64
	// MinCreateSize is the smallest width and height, in view pixels, that
	// a drag must cover to create a region.
	MinCreateSize float64
}

// DefaultOptions returns the default tolerances.
func DefaultOptions() Options {
	return Options{HandleSize: 8, MinCreateSize: 5}
}

// Item is one region as it should currently be drawn.
type Item struct {
	ID     string
	Rect   geometry.Rect // content space
	Active bool
}

// Scene is the drawable state: committed regions overlaid with the working
// copy of any gesture in progress.
type Scene struct {
	Items       []Item
	Pending     *geometry.Rect // rectangle being created, content space
	ShowHandles bool
}

type gesture struct {
	mode      Mode
	handle    Handle
	start     geometry.Point2D // view space
	before    []region.Region
	originals map[string]geometry.Rect
	working   map[string]geometry.Rect
	pending   geometry.Rect
}

// Controller edits one page. It must be driven from a single goroutine.
type Controller struct {
	store *region.Store
	hist  *history.Manager
	view  *viewport.Viewport
	opts  Options
	g     *gesture
}

// New creates a controller over a page's store and history, reading the
// shared viewport for coordinate conversion.
func New(store *region.Store, hist *history.Manager, view *viewport.Viewport, opts Options) *Controller {
	return &Controller{store: store, hist: hist, view: view, opts: opts.normalize()}
}

func (o Options) normalize() Options {
	if o.HandleSize <= 0 {
		o.HandleSize = DefaultOptions().HandleSize
	}
	if o.MinCreateSize < 0 {
		o.MinCreateSize = DefaultOptions().MinCreateSize
	}
	return o
}

// SetOptions changes the tolerances for the next gesture.
func (c *Controller) SetOptions(opts Options) {
	c.opts = opts.normalize()
}

// Store returns the region store being edited.
func (c *Controller) Store() *region.Store { return c.store }

// History returns the page history.
func (c *Controller) History() *history.Manager { return c.hist }

// Mode returns the current gesture mode.
func (c *Controller) Mode() Mode {
	if c.g == nil {
		return ModeIdle
	}
	return c.g.mode
}

// Press starts a gesture at a view-space point. toggle is the
// multi-selection modifier.
func (c *Controller) Press(p geometry.Point2D, toggle bool) Mode {
	g := &gesture{
		start:   p,
		before:  c.store.Snapshot(),
		working: make(map[string]geometry.Rect),
	}
	c.g = g

	if c.store.SelectedCount() == 1 {
		sel := c.store.Selected()[0]
		if h := handleAt(c.view.ToViewRect(sel.Rect), p, c.opts.HandleSize); h != HandleNone {
			g.mode = ModeResizing
			g.handle = h
			g.originals = map[string]geometry.Rect{sel.ID: sel.Rect}
			return g.mode
		}
	}

	cp := c.view.ToContent(p)
	if hit, ok := c.store.HitTest(cp); ok {
		switch {
		case toggle:
			c.store.Toggle(hit.ID)
		case !c.store.IsSelected(hit.ID):
			c.store.SelectOnly(hit.ID)
		}
		g.mode = ModeMoving
		g.handle = HandleMove
		g.originals = make(map[string]geometry.Rect)
		for _, r := range c.store.Selected() {
			g.originals[r.ID] = r.Rect
		}
		return g.mode
	}

	if !toggle {
		c.store.ClearSelection()
	}
	g.mode = ModeCreating
	g.pending = geometry.Rect{X1: cp.X, Y1: cp.Y, X2: cp.X, Y2: cp.Y}
	return g.mode
}

// Drag updates the working copy of the current gesture.
func (c *Controller) Drag(p geometry.Point2D) {
	g := c.g
	if g == nil {
		return
	}
	switch g.mode {
	case ModeCreating:
		cp := c.view.ToContent(p)
		g.pending.X2, g.pending.Y2 = cp.X, cp.Y
	case ModeMoving:
		dx, dy := c.view.ToContentDelta(p.X-g.start.X, p.Y-g.start.Y)
		for id, r := range g.originals {
			g.working[id] = r.Translate(dx, dy)
		}
	case ModeResizing:
		dx, dy := c.view.ToContentDelta(p.X-g.start.X, p.Y-g.start.Y)
		for id, r := range g.originals {
			g.working[id] = resize(r, g.handle, dx, dy)
		}
	}
}

// Release ends the gesture at p and commits it. It reports whether the
// region list changed.
func (c *Controller) Release(p geometry.Point2D) bool {
	g := c.g
	if g == nil {
		return false
	}
	c.Drag(p)
	c.g = nil

	switch g.mode {
	case ModeCreating:
		if math.Abs(p.X-g.start.X) < c.opts.MinCreateSize || math.Abs(p.Y-g.start.Y) < c.opts.MinCreateSize {
			return false
		}
		r := region.New(g.pending.Normalize())
		c.hist.Push(g.before)
		c.store.Add(r)
		c.store.SelectOnly(r.ID)
		return true

	case ModeMoving, ModeResizing:
		changed := false
		for id, r := range g.working {
			if r.Normalize() != g.originals[id] {
				changed = true
				break
			}
		}
		if !changed {
			return false
		}
		c.hist.Push(g.before)
		for id, r := range g.working {
			c.store.Update(id, r.Normalize())
		}
		return true
	}
	return false
}

// Cancel drops the gesture in progress without touching the store.
// Selection changes made on press are kept.
func (c *Controller) Cancel() bool {
	busy := c.g != nil
	c.g = nil
	return busy
}

// Hover returns the handle a press at p would grab.
func (c *Controller) Hover(p geometry.Point2D) Handle {
	if c.store.SelectedCount() == 1 {
		sel := c.store.Selected()[0]
		if h := handleAt(c.view.ToViewRect(sel.Rect), p, c.opts.HandleSize); h != HandleNone {
			return h
		}
	}
	if _, ok := c.store.HitTest(c.view.ToContent(p)); ok {
		return HandleMove
	}
	return HandleNone
}

// Scene returns the geometry to draw, rebuilt from the store.
func (c *Controller) Scene() Scene {
	regions := c.store.Regions()
	scene := Scene{
		Items:       make([]Item, len(regions)),
		ShowHandles: c.store.SelectedCount() == 1,
	}
	for i, r := range regions {
		rect := r.Rect
		if c.g != nil {
			if w, ok := c.g.working[r.ID]; ok {
				rect = w
			}
		}
		scene.Items[i] = Item{ID: r.ID, Rect: rect, Active: c.store.IsSelected(r.ID)}
	}
	if c.g != nil && c.g.mode == ModeCreating {
		pending := c.g.pending
		scene.Pending = &pending
	}
	return scene
}

// Commands

// DeleteSelected removes the selected regions.
func (c *Controller) DeleteSelected() int {
	ids := c.store.SelectedIDs()
	if len(ids) == 0 {
		return 0
	}
	c.Cancel()
	c.hist.Push(c.store.Snapshot())
	return c.store.Remove(ids...)
}

// ClearAll removes every region.
func (c *Controller) ClearAll() bool {
	if c.store.Len() == 0 {
		return false
	}
	c.Cancel()
	c.hist.Push(c.store.Snapshot())
	c.store.Clear()
	return true
}

// SelectAll selects every region. Not recorded in history.
func (c *Controller) SelectAll() {
	c.store.SelectAll()
}

// ClearSelection deselects everything, or cancels a gesture in progress.
// Not recorded in history.
func (c *Controller) ClearSelection() {
	if c.Cancel() {
		return
	}
	c.store.ClearSelection()
}

// ReplaceAll swaps the region list for fresh rectangles as one undoable
// step. When activate is set every new region is selected.
func (c *Controller) ReplaceAll(rects []geometry.Rect, activate bool) {
	c.Cancel()
	c.hist.Push(c.store.Snapshot())
	c.Seed(rects, activate)
}

// Seed loads rectangles without recording history. Used when a page is
// first shown.
func (c *Controller) Seed(rects []geometry.Rect, activate bool) {
	c.store.Replace(region.FromRects(rects))
	c.store.ClearSelection()
	if activate {
		c.store.SelectAll()
	}
}

// Undo restores the previous region list.
func (c *Controller) Undo() bool {
	c.Cancel()
	prev, ok := c.hist.Undo(c.store.Snapshot())
	if ok {
		c.store.Restore(prev)
	}
	return ok
}

// Redo re-applies an undone change.
func (c *Controller) Redo() bool {
	c.Cancel()
	next, ok := c.hist.Redo(c.store.Snapshot())
	if ok {
		c.store.Restore(next)
	}
	return ok
}
