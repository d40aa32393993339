// Package history keeps linear undo/redo stacks of region list snapshots.
package history

import "panel-cropper/internal/region"

// DefaultMaxDepth bounds the undo stack; the oldest entries are dropped first.
const DefaultMaxDepth = 100

// Entry is an immutable copy of a page's region list.
type Entry []region.Region

// Manager owns the undo and redo stacks of one page.
type Manager struct {
	undoStack []Entry
	redoStack []Entry
	maxDepth  int
}

// New creates a manager. maxDepth <= 0 means unlimited.
func New(maxDepth int) *Manager {
	return &Manager{maxDepth: maxDepth}
}

// Push records state as the point to return to on the next undo and
// invalidates the redo stack.
func (m *Manager) Push(state []region.Region) {
	m.undoStack = append(m.undoStack, Entry(region.Clone(state)))
	m.trim()
	m.redoStack = m.redoStack[:0]
}

// SetMaxDepth changes the undo limit (0 = unlimited), dropping the oldest
// entries that no longer fit.
func (m *Manager) SetMaxDepth(depth int) {
	if depth < 0 {
		depth = 0
	}
	m.maxDepth = depth
	m.trim()
}

func (m *Manager) trim() {
	if m.maxDepth > 0 && len(m.undoStack) > m.maxDepth {
		drop := len(m.undoStack) - m.maxDepth
		m.undoStack = append(m.undoStack[:0:0], m.undoStack[drop:]...)
	}
}

// Undo moves current onto the redo stack and returns the previous state.
// ok is false (and nothing changes) when there is nothing to undo.
func (m *Manager) Undo(current []region.Region) (prev []region.Region, ok bool) {
	if len(m.undoStack) == 0 {
		return nil, false
	}
	last := len(m.undoStack) - 1
	entry := m.undoStack[last]
	m.undoStack = m.undoStack[:last]
	m.redoStack = append(m.redoStack, Entry(region.Clone(current)))
	return region.Clone(entry), true
}

// Redo moves current onto the undo stack and returns the next state.
func (m *Manager) Redo(current []region.Region) (next []region.Region, ok bool) {
	if len(m.redoStack) == 0 {
		return nil, false
	}
	last := len(m.redoStack) - 1
	entry := m.redoStack[last]
	m.redoStack = m.redoStack[:last]
	m.undoStack = append(m.undoStack, Entry(region.Clone(current)))
	return region.Clone(entry), true
}

// Reset clears both stacks (used when the page changes).
func (m *Manager) Reset() {
	m.undoStack = nil
	m.redoStack = nil
}

// CanUndo reports whether Undo would change anything.
func (m *Manager) CanUndo() bool { return len(m.undoStack) > 0 }

// CanRedo reports whether Redo would change anything.
func (m *Manager) CanRedo() bool { return len(m.redoStack) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (m *Manager) Len() (undo, redo int) {
	return len(m.undoStack), len(m.redoStack)
}
