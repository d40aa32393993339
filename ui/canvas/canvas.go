// Package canvas provides the page canvas: it draws the current frame and
// turns pointer input into region gestures, zoom and pan.
package canvas

import (
	"image"
	"sync"

	"panel-cropper/internal/app"
	"panel-cropper/internal/interact"
	"panel-cropper/internal/render"
	"panel-cropper/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// PageCanvas shows the current page with its regions and forwards pointer
// input to the session state. View coordinates are raster pixels.
type PageCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster
	style  render.Style

	mu       sync.Mutex
	scale    float64 // raster pixels per fyne unit
	lastSize image.Point
	pressed  bool
	last     geometry.Point2D
	panning  bool
	panFrom  fyne.Position
	cursor   desktop.Cursor
}

var (
	_ fyne.Widget        = (*PageCanvas)(nil)
	_ fyne.Draggable     = (*PageCanvas)(nil)
	_ fyne.Scrollable    = (*PageCanvas)(nil)
	_ desktop.Mouseable  = (*PageCanvas)(nil)
	_ desktop.Hoverable  = (*PageCanvas)(nil)
	_ desktop.Cursorable = (*PageCanvas)(nil)
)

// New creates a canvas bound to state.
func New(state *app.State) *PageCanvas {
	pc := &PageCanvas{
		state:  state,
		style:  render.DefaultStyle(),
		scale:  1,
		cursor: desktop.CrosshairCursor,
	}
	pc.raster = fynecanvas.NewRaster(pc.draw)
	pc.raster.ScaleMode = fynecanvas.ImageScalePixels
	pc.ExtendBaseWidget(pc)
	return pc
}

// draw is the raster drawing function.
func (pc *PageCanvas) draw(w, h int) image.Image {
	size := pc.Size()
	pc.mu.Lock()
	if size.Width > 0 {
		pc.scale = float64(w) / float64(size.Width)
	}
	resized := pc.lastSize != image.Pt(w, h)
	pc.lastSize = image.Pt(w, h)
	pc.mu.Unlock()

	if resized && w > 0 && h > 0 {
		// Refit without an event so the raster is not refreshed again.
		pc.state.ResizeQuiet(float64(w), float64(h))
	}

	f := pc.state.Frame()
	return render.View(w, h, f.Image, f.View, f.Scene, pc.style)
}

func (pc *PageCanvas) toView(pos fyne.Position) geometry.Point2D {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return geometry.Point2D{X: float64(pos.X) * pc.scale, Y: float64(pos.Y) * pc.scale}
}

// MouseDown starts a gesture (primary) or a pan (secondary).
func (pc *PageCanvas) MouseDown(ev *desktop.MouseEvent) {
	switch ev.Button {
	case desktop.MouseButtonPrimary:
		toggle := ev.Modifier&(fyne.KeyModifierShift|fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0
		p := pc.toView(ev.Position)
		pc.mu.Lock()
		pc.pressed, pc.last = true, p
		pc.mu.Unlock()
		pc.state.Press(p, toggle)
	case desktop.MouseButtonSecondary, desktop.MouseButtonTertiary:
		pc.mu.Lock()
		pc.panning, pc.panFrom = true, ev.Position
		pc.mu.Unlock()
	}
}

// MouseUp ends the gesture or pan.
func (pc *PageCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		pc.mu.Lock()
		pc.panning = false
		pc.mu.Unlock()
		return
	}
	pc.release(pc.toView(ev.Position))
}

// Dragged updates the gesture in progress.
func (pc *PageCanvas) Dragged(ev *fyne.DragEvent) {
	pc.mu.Lock()
	if pc.panning {
		pc.mu.Unlock()
		pc.pan(ev.Position)
		return
	}
	pressed := pc.pressed
	pc.mu.Unlock()
	if !pressed {
		return
	}
	p := pc.toView(ev.Position)
	pc.mu.Lock()
	pc.last = p
	pc.mu.Unlock()
	pc.state.Drag(p)
}

// DragEnd commits the gesture if MouseUp did not.
func (pc *PageCanvas) DragEnd() {
	pc.mu.Lock()
	p := pc.last
	pc.mu.Unlock()
	pc.release(p)
}

func (pc *PageCanvas) release(p geometry.Point2D) {
	pc.mu.Lock()
	if !pc.pressed {
		pc.mu.Unlock()
		return
	}
	pc.pressed = false
	pc.mu.Unlock()
	pc.state.Release(p)
}

func (pc *PageCanvas) pan(pos fyne.Position) {
	pc.mu.Lock()
	dx := float64(pos.X-pc.panFrom.X) * pc.scale
	dy := float64(pos.Y-pc.panFrom.Y) * pc.scale
	pc.panFrom = pos
	pc.mu.Unlock()
	pc.state.PanBy(dx, dy)
}

// Scrolled zooms around the pointer; horizontal scroll pans.
func (pc *PageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	anchor := pc.toView(ev.Position)
	switch {
	case ev.Scrolled.DY > 0:
		pc.state.ZoomAt(zoomStep, anchor)
	case ev.Scrolled.DY < 0:
		pc.state.ZoomAt(1/zoomStep, anchor)
	case ev.Scrolled.DX != 0:
		pc.state.PanBy(float64(ev.Scrolled.DX), 0)
	}
}

// MouseIn implements desktop.Hoverable.
func (pc *PageCanvas) MouseIn(ev *desktop.MouseEvent) { pc.MouseMoved(ev) }

// MouseMoved pans while the secondary button is held and otherwise updates
// the cursor for the handle under the pointer.
func (pc *PageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	pc.mu.Lock()
	panning := pc.panning
	pc.mu.Unlock()
	if panning {
		pc.pan(ev.Position)
		return
	}
	c := cursorFor(pc.state.Hover(pc.toView(ev.Position)))
	pc.mu.Lock()
	pc.cursor = c
	pc.mu.Unlock()
}

// MouseOut implements desktop.Hoverable.
func (pc *PageCanvas) MouseOut() {
	pc.mu.Lock()
	pc.cursor = desktop.DefaultCursor
	pc.mu.Unlock()
}

// Cursor implements desktop.Cursorable.
func (pc *PageCanvas) Cursor() desktop.Cursor {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.cursor
}

// ZoomIn zooms one step around the center.
func (pc *PageCanvas) ZoomIn() { pc.zoomCenter(zoomStep) }

// ZoomOut zooms one step out around the center.
func (pc *PageCanvas) ZoomOut() { pc.zoomCenter(1 / zoomStep) }

func (pc *PageCanvas) zoomCenter(factor float64) {
	pc.mu.Lock()
	c := geometry.Point2D{X: float64(pc.lastSize.X) / 2, Y: float64(pc.lastSize.Y) / 2}
	pc.mu.Unlock()
	pc.state.ZoomAt(factor, c)
}

const zoomStep = 1.1

func cursorFor(h interact.Handle) desktop.Cursor {
	switch h {
	case interact.HandleMove:
		return desktop.PointerCursor
	case interact.HandleN, interact.HandleS:
		return desktop.VResizeCursor
	case interact.HandleE, interact.HandleW:
		return desktop.HResizeCursor
	default:
		return desktop.CrosshairCursor
	}
}

// MinSize keeps the canvas usable in small windows.
func (pc *PageCanvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

// CreateRenderer implements fyne.Widget.
func (pc *PageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &pageCanvasRenderer{canvas: pc}
}

type pageCanvasRenderer struct {
	canvas *PageCanvas
}

func (r *pageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *pageCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *pageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *pageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *pageCanvasRenderer) Destroy() {}
