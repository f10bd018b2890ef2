package recipients

import (
	"fmt"
	"sort"

	"recruitmail/internal/types"
)

// Store is the ordered recipient collection of one session with its
// selection set. The selection is always a subset of the stored IDs.
//
// Store is not safe for concurrent use; the owning session serializes access.
type Store struct {
	records  []types.Recipient
	selected map[int]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{selected: make(map[int]struct{})}
}

// Replace swaps in a new collection and selects every record. Callers are
// responsible for clearing send statuses tied to the old collection.
func (s *Store) Replace(records []types.Recipient) {
	s.records = append([]types.Recipient(nil), records...)
	s.selected = make(map[int]struct{}, len(records))
	for _, r := range s.records {
		s.selected[r.ID] = struct{}{}
	}
}

// Len returns the number of stored records.
func (s *Store) Len() int { return len(s.records) }

// All returns a copy of the collection in stored order.
func (s *Store) All() []types.Recipient {
	return append([]types.Recipient(nil), s.records...)
}

// Get looks up a record by ID.
func (s *Store) Get(id int) (types.Recipient, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return types.Recipient{}, false
}

// IsSelected reports whether id is in the selection.
func (s *Store) IsSelected(id int) bool {
	_, ok := s.selected[id]
	return ok
}

// AllSelected reports whether the collection is non-empty and fully selected.
func (s *Store) AllSelected() bool {
	return len(s.records) > 0 && len(s.selected) == len(s.records)
}

// Selected returns the selected records in stored order.
func (s *Store) Selected() []types.Recipient {
	out := make([]types.Recipient, 0, len(s.selected))
	for _, r := range s.records {
		if _, ok := s.selected[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// SelectedIDs returns the selected IDs in ascending order.
func (s *Store) SelectedIDs() []int {
	ids := make([]int, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Toggle flips the selection of one record.
func (s *Store) Toggle(id int) error {
	if _, ok := s.Get(id); !ok {
		return types.NewAppError(
			types.ErrCodeNotFoundRecipient,
			fmt.Sprintf("recipient %d not found", id),
			nil,
		)
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	return nil
}

// ToggleAll clears the selection when every record is selected and selects
// every record otherwise.
func (s *Store) ToggleAll() {
	if s.AllSelected() {
		s.selected = make(map[int]struct{})
		return
	}
	for _, r := range s.records {
		s.selected[r.ID] = struct{}{}
	}
}

// SetSelection replaces the selection. IDs that are not in the collection are
// ignored.
func (s *Store) SetSelection(ids []int) {
	next := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.Get(id); ok {
			next[id] = struct{}{}
		}
	}
	s.selected = next
}
