package controls

import "slices"

// Store is the ordered control mapping owned by one stack. Insertion order is
// the rendering and evaluation order. Every mutation bumps Version so cached
// settings views can detect staleness.
type Store struct {
	keys     []string
	controls map[string]Control
	version  uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{controls: map[string]Control{}}
}

// Add inserts control at index, or appends when index is negative or past the
// end. The key must not exist yet.
func (s *Store) Add(control Control, index int) error {
	if control.Name == "" {
		return ErrEmptyName
	}
	if _, exists := s.controls[control.Name]; exists {
		return ErrControlExists
	}
	if index < 0 || index > len(s.keys) {
		index = len(s.keys)
	}
	s.keys = slices.Insert(s.keys, index, control.Name)
	s.controls[control.Name] = control.Clone()
	s.version++
	return nil
}

// Set replaces an existing control in place, keeping its position.
func (s *Store) Set(control Control) error {
	if _, exists := s.controls[control.Name]; !exists {
		return ErrControlNotFound
	}
	s.controls[control.Name] = control.Clone()
	s.version++
	return nil
}

// Remove deletes key. Remaining entries keep their relative order.
func (s *Store) Remove(key string) error {
	if _, exists := s.controls[key]; !exists {
		return ErrControlNotFound
	}
	delete(s.controls, key)
	if idx := slices.Index(s.keys, key); idx >= 0 {
		s.keys = slices.Delete(s.keys, idx, idx+1)
	}
	s.version++
	return nil
}

// Get returns a copy of the control stored under key.
func (s *Store) Get(key string) (Control, bool) {
	control, ok := s.controls[key]
	if !ok {
		return Control{}, false
	}
	return control.Clone(), true
}

// Has reports whether key is registered.
func (s *Store) Has(key string) bool {
	_, ok := s.controls[key]
	return ok
}

// At returns the control at position i.
func (s *Store) At(i int) (Control, bool) {
	if i < 0 || i >= len(s.keys) {
		return Control{}, false
	}
	return s.Get(s.keys[i])
}

// IndexOf returns the position of key, or -1.
func (s *Store) IndexOf(key string) int {
	return slices.Index(s.keys, key)
}

// Len returns the number of stored controls.
func (s *Store) Len() int {
	return len(s.keys)
}

// Keys returns the control keys in order.
func (s *Store) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Controls returns copies of all controls in order.
func (s *Store) Controls() []Control {
	out := make([]Control, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.controls[key].Clone())
	}
	return out
}

// Version increases on every mutation.
func (s *Store) Version() uint64 {
	return s.version
}

// typeAt returns the type of the control at i without copying it.
func (s *Store) typeAt(i int) string {
	return s.controls[s.keys[i]].Type
}
