package region

import "panel-cropper/pkg/geometry"

// Store owns the ordered region list of a page and its selection.
// List order is z-order: the last region is drawn on top and wins hit tests.
// A Store is not safe for concurrent use; the session serializes access.
type Store struct {
	regions  []Region
	selected map[string]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{selected: make(map[string]bool)}
}

// Regions returns a copy of the region list.
func (s *Store) Regions() []Region {
	return Clone(s.regions)
}

// Len returns the number of regions.
func (s *Store) Len() int {
	return len(s.regions)
}

// Get returns a region by ID.
func (s *Store) Get(id string) (Region, bool) {
	if i := s.index(id); i >= 0 {
		return s.regions[i], true
	}
	return Region{}, false
}

// Add appends a region on top of the others.
func (s *Store) Add(r Region) {
	s.regions = append(s.regions, r)
}

// Update replaces the rectangle of an existing region.
func (s *Store) Update(id string, rect geometry.Rect) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.regions[i].Rect = rect
	return true
}

// Replace swaps in a new region list and drops selection entries that no
// longer exist.
func (s *Store) Replace(regions []Region) {
	s.regions = Clone(regions)
	s.prune()
}

// Remove deletes regions by ID and returns how many were removed.
func (s *Store) Remove(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.regions[:0]
	removed := 0
	for _, r := range s.regions {
		if drop[r.ID] {
			removed++
			delete(s.selected, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	s.regions = kept
	return removed
}

// Clear removes every region.
func (s *Store) Clear() {
	s.regions = nil
	s.selected = make(map[string]bool)
}

// Snapshot returns a deep copy of the region list for history.
func (s *Store) Snapshot() []Region {
	return Clone(s.regions)
}

// Restore replaces the region list with a snapshot.
func (s *Store) Restore(snapshot []Region) {
	s.Replace(snapshot)
}

// Selection methods

// Select adds a region to the selection.
func (s *Store) Select(id string) {
	if s.index(id) >= 0 {
		s.selected[id] = true
	}
}

// Deselect removes a region from the selection.
func (s *Store) Deselect(id string) {
	delete(s.selected, id)
}

// Toggle flips a region's selection membership.
func (s *Store) Toggle(id string) {
	if s.selected[id] {
		s.Deselect(id)
		return
	}
	s.Select(id)
}

// SelectOnly makes id the sole selected region.
func (s *Store) SelectOnly(id string) {
	s.selected = make(map[string]bool)
	s.Select(id)
}

// SelectAll selects every region.
func (s *Store) SelectAll() {
	for _, r := range s.regions {
		s.selected[r.ID] = true
	}
}

// ClearSelection deselects all regions.
func (s *Store) ClearSelection() {
	s.selected = make(map[string]bool)
}

// IsSelected reports whether a region is selected.
func (s *Store) IsSelected(id string) bool {
	return s.selected[id]
}

// SelectedIDs returns selected IDs in list order.
func (s *Store) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for _, r := range s.regions {
		if s.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Selected returns the selected regions in list order.
func (s *Store) Selected() []Region {
	out := make([]Region, 0, len(s.selected))
	for _, r := range s.regions {
		if s.selected[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// SelectedCount returns the number of selected regions.
func (s *Store) SelectedCount() int {
	return len(s.selected)
}

// HitTest returns the topmost region containing p (content space).
func (s *Store) HitTest(p geometry.Point2D) (Region, bool) {
	for i := len(s.regions) - 1; i >= 0; i-- {
		if s.regions[i].Rect.Contains(p) {
			return s.regions[i], true
		}
	}
	return Region{}, false
}

func (s *Store) index(id string) int {
	for i, r := range s.regions {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) prune() {
	for id := range s.selected {
		if s.index(id) < 0 {
			delete(s.selected, id)
		}
	}
}
