package history

import (
	"testing"

	"panel-cropper/internal/region"
	"panel-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedoRestoresExactList(t *testing.T) {
	m := New(0)
	s0 := region.FromRects([]geometry.Rect{geometry.NewRect(0, 0, 10, 10)})
	s1 := append(region.Clone(s0), region.New(geometry.NewRect(20, 20, 40, 40)))
	s2 := region.Clone(s1)
	s2[0].Rect = s2[0].Rect.Translate(5, 5)

	// s0 -> create -> s1 -> move -> s2
	m.Push(s0)
	m.Push(s1)
	live := s2

	prev, ok := m.Undo(live)
	require.True(t, ok)
	assert.Equal(t, s1, prev)

	next, ok := m.Redo(prev)
	require.True(t, ok)
	assert.Equal(t, s2, next)

	live = next
	prev, ok = m.Undo(live)
	require.True(t, ok)
	prev, ok = m.Undo(prev)
	require.True(t, ok)
	assert.Equal(t, s0, prev)

	undo, redo := m.Len()
	assert.Equal(t, 0, undo)
	assert.Equal(t, 2, redo)
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	m := New(0)
	_, ok := m.Undo(nil)
	assert.False(t, ok)
	_, ok = m.Redo(nil)
	assert.False(t, ok)
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestPushClearsRedo(t *testing.T) {
	m := New(0)
	m.Push(nil)
	_, ok := m.Undo(region.FromRects([]geometry.Rect{{X2: 1, Y2: 1}}))
	require.True(t, ok)
	require.True(t, m.CanRedo())

	m.Push(nil)
	assert.False(t, m.CanRedo())
}

func TestEntriesAreDeepCopies(t *testing.T) {
	m := New(0)
	state := region.FromRects([]geometry.Rect{geometry.NewRect(0, 0, 1, 1)})
	m.Push(state)
	state[0].Rect = geometry.NewRect(9, 9, 9, 9)

	prev, ok := m.Undo(nil)
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(0, 0, 1, 1), prev[0].Rect)
}

func TestMaxDepthDropsOldest(t *testing.T) {
	m := New(3)
	for i := 0; i < 5; i++ {
		m.Push(region.FromRects([]geometry.Rect{geometry.NewRect(float64(i), 0, 1, 1)}))
	}
	undo, _ := m.Len()
	assert.Equal(t, 3, undo)

	var last []region.Region
	for m.CanUndo() {
		last, _ = m.Undo(last)
	}
	assert.Equal(t, 2.0, last[0].Rect.X1)
}

func TestSetMaxDepthTrimsExisting(t *testing.T) {
	m := New(0)
	for i := 0; i < 5; i++ {
		m.Push(region.FromRects([]geometry.Rect{geometry.NewRect(float64(i), 0, 1, 1)}))
	}
	m.SetMaxDepth(2)
	undo, _ := m.Len()
	assert.Equal(t, 2, undo)

	prev, ok := m.Undo(nil)
	require.True(t, ok)
	assert.Equal(t, 4.0, prev[0].Rect.X1)
}

func TestReset(t *testing.T) {
	m := New(0)
	m.Push(nil)
	m.Push(nil)
	m.Reset()
	undo, redo := m.Len()
	assert.Zero(t, undo)
	assert.Zero(t, redo)
}
