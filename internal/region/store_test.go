package region

import (
	"testing"

	"panel-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(s *Store, rects ...geometry.Rect) []Region {
	regions := FromRects(rects)
	for _, r := range regions {
		s.Add(r)
	}
	return regions
}

func TestStoreSelection(t *testing.T) {
	s := NewStore()
	rs := fill(s,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(20, 0, 30, 10),
		geometry.NewRect(40, 0, 50, 10),
	)

	s.Select(rs[0].ID)
	s.Toggle(rs[2].ID)
	assert.Equal(t, []string{rs[0].ID, rs[2].ID}, s.SelectedIDs())

	s.Toggle(rs[0].ID)
	assert.Equal(t, []string{rs[2].ID}, s.SelectedIDs())

	s.SelectOnly(rs[1].ID)
	assert.Equal(t, 1, s.SelectedCount())
	assert.True(t, s.IsSelected(rs[1].ID))

	s.Select("missing")
	assert.Equal(t, 1, s.SelectedCount())

	s.SelectAll()
	assert.Equal(t, 3, s.SelectedCount())
	s.ClearSelection()
	assert.Zero(t, s.SelectedCount())
}

func TestStoreRemoveAndReplacePrunesSelection(t *testing.T) {
	s := NewStore()
	rs := fill(s,
		geometry.NewRect(0, 0, 10, 10),
		geometry.NewRect(20, 0, 30, 10),
	)
	s.SelectAll()

	assert.Equal(t, 1, s.Remove(rs[0].ID))
	assert.Equal(t, []string{rs[1].ID}, s.SelectedIDs())
	assert.Equal(t, 1, s.Len())

	s.Replace([]Region{rs[0]})
	assert.Zero(t, s.SelectedCount())
	_, ok := s.Get(rs[1].ID)
	assert.False(t, ok)
}

func TestStoreSnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	rs := fill(s, geometry.NewRect(0, 0, 10, 10))

	snap := s.Snapshot()
	require.True(t, s.Update(rs[0].ID, geometry.NewRect(5, 5, 15, 15)))
	assert.Equal(t, geometry.NewRect(0, 0, 10, 10), snap[0].Rect)

	s.Restore(snap)
	got, ok := s.Get(rs[0].ID)
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(0, 0, 10, 10), got.Rect)
}

func TestStoreHitTestTopmost(t *testing.T) {
	s := NewStore()
	rs := fill(s,
		geometry.NewRect(0, 0, 100, 100),
		geometry.NewRect(50, 50, 150, 150),
	)

	hit, ok := s.HitTest(geometry.Point2D{X: 75, Y: 75})
	require.True(t, ok)
	assert.Equal(t, rs[1].ID, hit.ID)

	hit, ok = s.HitTest(geometry.Point2D{X: 10, Y: 10})
	require.True(t, ok)
	assert.Equal(t, rs[0].ID, hit.ID)

	_, ok = s.HitTest(geometry.Point2D{X: 500, Y: 500})
	assert.False(t, ok)
}

func TestNewRegionsHaveDistinctIDs(t *testing.T) {
	rs := FromRects([]geometry.Rect{{}, {}, {}})
	seen := map[string]bool{}
	for _, r := range rs {
		assert.NotEmpty(t, r.ID)
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
}
