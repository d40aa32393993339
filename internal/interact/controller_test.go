package interact

import (
	"testing"

	"panel-cropper/internal/history"
	"panel-cropper/internal/region"
	"panel-cropper/internal/viewport"
	"panel-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func newController(zoom, panX, panY float64) *Controller {
	view := &viewport.Viewport{Zoom: zoom, PanX: panX, PanY: panY}
	return New(region.NewStore(), history.New(0), view, DefaultOptions())
}

func undoDepth(c *Controller) int {
	n, _ := c.History().Len()
	return n
}

func drag(c *Controller, from, to geometry.Point2D, toggle bool) bool {
	c.Press(from, toggle)
	mid := pt((from.X+to.X)/2, (from.Y+to.Y)/2)
	c.Drag(mid)
	c.Drag(to)
	return c.Release(to)
}

func TestCreateGesture(t *testing.T) {
	c := newController(1, 0, 0)

	assert.Equal(t, ModeCreating, c.Press(pt(10, 10), false))
	c.Drag(pt(100, 90))
	scene := c.Scene()
	require.NotNil(t, scene.Pending)
	assert.Empty(t, scene.Items)

	require.True(t, c.Release(pt(210, 160)))

	regions := c.Store().Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.NewRect(10, 10, 210, 160), regions[0].Rect)
	assert.Equal(t, 1, undoDepth(c))
	assert.Equal(t, []string{regions[0].ID}, c.Store().SelectedIDs())
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestCreateNormalizesAndUsesContentSpace(t *testing.T) {
	c := newController(2, 100, 50)

	require.True(t, drag(c, pt(300, 250), pt(100, 50), false))
	regions := c.Store().Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.NewRect(0, 0, 100, 100), regions[0].Rect)
	assert.True(t, regions[0].Rect.IsNormalized())
}

func TestTinyCreateIsDiscarded(t *testing.T) {
	c := newController(0.5, 0, 0)

	// 4 view pixels wide: below the threshold even though it is 8 content pixels.
	assert.False(t, drag(c, pt(10, 10), pt(14, 200), false))
	assert.Zero(t, c.Store().Len())
	assert.Zero(t, undoDepth(c))
}

func TestSetOptionsAppliesToNextGesture(t *testing.T) {
	c := newController(1, 0, 0)
	c.SetOptions(Options{HandleSize: 8, MinCreateSize: 50})
	assert.False(t, drag(c, pt(10, 10), pt(40, 200), false))
	assert.Zero(t, c.Store().Len())

	c.SetOptions(Options{HandleSize: -1, MinCreateSize: 5})
	assert.True(t, drag(c, pt(10, 10), pt(40, 200), false))
	assert.Equal(t, 1, c.Store().Len())
}

func TestGroupMove(t *testing.T) {
	for _, zoom := range []float64{1, 2, 0.25} {
		c := newController(zoom, 0, 0)
		a := region.New(geometry.NewRect(10, 10, 50, 50))
		b := region.New(geometry.NewRect(100, 100, 160, 140))
		c.Store().Add(a)
		c.Store().Add(b)
		c.Store().SelectAll()

		press := c.view.ToView(pt(20, 20))
		release := pt(press.X+30, press.Y-20)
		require.Equal(t, ModeMoving, c.Press(press, false))
		c.Drag(pt(press.X+10, press.Y-5))
		require.True(t, c.Release(release))

		dx, dy := 30/zoom, -20/zoom
		got, _ := c.Store().Get(a.ID)
		assert.Equal(t, a.Rect.Translate(dx, dy), got.Rect, "zoom %v", zoom)
		got, _ = c.Store().Get(b.ID)
		assert.Equal(t, b.Rect.Translate(dx, dy), got.Rect, "zoom %v", zoom)
		assert.Equal(t, 1, undoDepth(c), "zoom %v", zoom)
		assert.Equal(t, 2, c.Store().SelectedCount())
	}
}

func TestMoveUsesWorkingCopyUntilRelease(t *testing.T) {
	c := newController(1, 0, 0)
	a := region.New(geometry.NewRect(10, 10, 50, 50))
	c.Store().Add(a)

	c.Press(pt(20, 20), false)
	c.Drag(pt(40, 40))

	stored, _ := c.Store().Get(a.ID)
	assert.Equal(t, a.Rect, stored.Rect)
	scene := c.Scene()
	require.Len(t, scene.Items, 1)
	assert.Equal(t, a.Rect.Translate(20, 20), scene.Items[0].Rect)

	assert.True(t, c.Cancel())
	stored, _ = c.Store().Get(a.ID)
	assert.Equal(t, a.Rect, stored.Rect)
	assert.Zero(t, undoDepth(c))
}

func TestClickWithoutDragDoesNotPushHistory(t *testing.T) {
	c := newController(1, 0, 0)
	a := region.New(geometry.NewRect(10, 10, 50, 50))
	c.Store().Add(a)

	c.Press(pt(30, 30), false)
	assert.False(t, c.Release(pt(30, 30)))
	assert.Zero(t, undoDepth(c))
	assert.True(t, c.Store().IsSelected(a.ID))
}

func TestSelectionModifier(t *testing.T) {
	c := newController(1, 0, 0)
	a := region.New(geometry.NewRect(0, 0, 50, 50))
	b := region.New(geometry.NewRect(100, 0, 150, 50))
	c.Store().Add(a)
	c.Store().Add(b)

	c.Press(pt(25, 25), false)
	c.Release(pt(25, 25))
	assert.Equal(t, []string{a.ID}, c.Store().SelectedIDs())

	c.Press(pt(125, 25), true)
	c.Release(pt(125, 25))
	assert.Equal(t, []string{a.ID, b.ID}, c.Store().SelectedIDs())

	c.Press(pt(25, 25), true)
	c.Release(pt(25, 25))
	assert.Equal(t, []string{b.ID}, c.Store().SelectedIDs())

	// Plain press on an unselected region collapses the selection.
	c.Press(pt(25, 25), false)
	c.Release(pt(25, 25))
	assert.Equal(t, []string{a.ID}, c.Store().SelectedIDs())

	// Empty hit without modifier clears; with modifier keeps.
	c.Press(pt(300, 300), true)
	c.Release(pt(300, 300))
	assert.Equal(t, []string{a.ID}, c.Store().SelectedIDs())
	c.Press(pt(300, 300), false)
	c.Release(pt(300, 300))
	assert.Zero(t, c.Store().SelectedCount())
}

func TestResizeCornerAndEdge(t *testing.T) {
	c := newController(1, 0, 0)
	a := region.New(geometry.NewRect(100, 100, 200, 200))
	c.Store().Add(a)
	c.Store().Select(a.ID)

	assert.Equal(t, HandleSE, c.Hover(pt(203, 198)))
	assert.Equal(t, HandleN, c.Hover(pt(150, 104)))
	assert.Equal(t, HandleMove, c.Hover(pt(150, 150)))
	assert.Equal(t, HandleNone, c.Hover(pt(500, 500)))

	require.Equal(t, ModeResizing, c.Press(pt(200, 200), false))
	require.True(t, c.Release(pt(250, 230)))
	got, _ := c.Store().Get(a.ID)
	assert.Equal(t, geometry.NewRect(100, 100, 250, 230), got.Rect)

	// Drag the west edge past the east edge: normalized on release.
	require.Equal(t, ModeResizing, c.Press(pt(100, 150), false))
	require.True(t, c.Release(pt(300, 150)))
	got, _ = c.Store().Get(a.ID)
	assert.Equal(t, geometry.NewRect(250, 100, 300, 230), got.Rect)
	assert.True(t, got.Rect.IsNormalized())
	assert.Equal(t, 2, undoDepth(c))
}

func TestResizeRequiresSingleSelection(t *testing.T) {
	c := newController(1, 0, 0)
	a := region.New(geometry.NewRect(100, 100, 200, 200))
	b := region.New(geometry.NewRect(300, 100, 400, 200))
	c.Store().Add(a)
	c.Store().Add(b)
	c.Store().SelectAll()

	assert.Equal(t, ModeMoving, c.Press(pt(198, 198), false))
	c.Cancel()
}

func TestUndoRedoAcrossActions(t *testing.T) {
	c := newController(1, 0, 0)

	require.True(t, drag(c, pt(10, 10), pt(110, 110), false))
	require.True(t, drag(c, pt(200, 10), pt(300, 110), false))
	require.True(t, drag(c, pt(250, 50), pt(260, 70), false))
	c.Store().SelectAll()
	require.True(t, drag(c, pt(50, 50), pt(55, 52), false))
	c.Store().SelectOnly(c.Store().Regions()[0].ID)
	require.Equal(t, 1, c.DeleteSelected())

	for steps := 1; steps <= 5; steps++ {
		before := c.Store().Regions()
		for i := 0; i < steps; i++ {
			require.True(t, c.Undo())
		}
		for i := 0; i < steps; i++ {
			require.True(t, c.Redo())
		}
		assert.Equal(t, before, c.Store().Regions(), "steps %d", steps)
	}

	for c.Undo() {
	}
	assert.Zero(t, c.Store().Len())
	assert.False(t, c.Undo())
}

func TestReplaceAllIsUndoable(t *testing.T) {
	c := newController(1, 0, 0)
	c.Seed([]geometry.Rect{geometry.NewRect(0, 0, 10, 10)}, false)
	assert.Zero(t, undoDepth(c))
	seeded := c.Store().Regions()

	c.ReplaceAll([]geometry.Rect{geometry.NewRect(1, 1, 5, 5), geometry.NewRect(6, 6, 9, 9)}, true)
	assert.Equal(t, 2, c.Store().Len())
	assert.Equal(t, 2, c.Store().SelectedCount())
	assert.Equal(t, 1, undoDepth(c))

	require.True(t, c.Undo())
	assert.Equal(t, seeded, c.Store().Regions())
}

func TestClearAndEscape(t *testing.T) {
	c := newController(1, 0, 0)
	assert.False(t, c.ClearAll())

	c.Seed([]geometry.Rect{geometry.NewRect(0, 0, 10, 10)}, true)
	c.ClearSelection()
	assert.Zero(t, c.Store().SelectedCount())
	assert.Zero(t, undoDepth(c))

	assert.True(t, c.ClearAll())
	assert.Zero(t, c.Store().Len())
	require.True(t, c.Undo())
	assert.Equal(t, 1, c.Store().Len())
}
