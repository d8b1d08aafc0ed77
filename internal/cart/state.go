package cart

import "sync"

// State is the mutable cart, single-writer per table session. Every mutation
// persists the full item list through save, last write wins.
type State struct {
	mu    sync.Mutex
	items []Item
	save  func([]Item) error
}

// NewState wraps an initial item list. save may be nil in tests.
func NewState(items []Item, save func([]Item) error) *State {
	return &State{items: Dedup(items), save: save}
}

// Items returns a copy of the current cart.
func (s *State) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item{}, s.items...)
}

// Add merges an item into the cart. An existing line with the same (id, gift)
// pair gains quantity; otherwise the item is appended.
func (s *State) Add(item Item, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == item.ID && it.IsGift == item.IsGift {
			s.items[i].Quantity += quantity
			s.persist()
			return
		}
	}
	item.Quantity = quantity
	s.items = append(s.items, item)
	s.persist()
}

// AddGift appends a synthesized gift line unless its giftId is already
// present. Gift quantity never increments.
func (s *State) AddGift(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.GiftID != "" && it.GiftID == item.GiftID {
			return
		}
	}
	item.Quantity = 1
	s.items = append(s.items, item)
	s.persist()
}

// Remove deletes the line whose identifier (giftId when present, else id)
// matches. It returns the removed item so the caller can delete any backing
// remote record; removal is local-first and never rolled back.
func (s *State) Remove(identifier string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.Identifier() == identifier {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist()
			return it, true
		}
	}
	return Item{}, false
}

// SetQuantity updates a line's quantity. Zero or negative removes the line.
// Gift lines are pinned to quantity 1.
func (s *State) SetQuantity(identifier string, quantity int) (Item, bool) {
	if quantity <= 0 {
		return s.Remove(identifier)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.Identifier() != identifier {
			continue
		}
		if it.IsGift {
			s.items[i].Quantity = 1
		} else {
			s.items[i].Quantity = quantity
		}
		s.persist()
		return s.items[i], true
	}
	return Item{}, false
}

// Clear empties the cart.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist()
}

// Count is the total quantity across all lines.
func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

// Replace swaps the whole cart, used by reconciliation. Returns true when the
// contents actually changed.
func (s *State) Replace(items []Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if equal(s.items, items) {
		return false
	}
	s.items = append([]Item{}, items...)
	s.persist()
	return true
}

// persist is called with the lock held.
func (s *State) persist() {
	if s.save == nil {
		return
	}
	_ = s.save(append([]Item{}, s.items...))
}

func equal(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
