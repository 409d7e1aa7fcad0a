package helpers

import "strings"

// StringSet collects trimmed, unique values in insertion order
type StringSet struct {
	fold  bool
	seen  map[string]bool
	items []string
}

// NewAddressSet compares email addresses case-insensitively
func NewAddressSet() *StringSet {
	return &StringSet{fold: true, seen: make(map[string]bool)}
}

// NewTokenSet compares push tokens exactly
func NewTokenSet() *StringSet {
	return &StringSet{seen: make(map[string]bool)}
}

// Add inserts v unless it is blank or already present
func (s *StringSet) Add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	key := v
	if s.fold {
		key = strings.ToLower(v)
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, v)
}

// Items returns the values in insertion order
func (s *StringSet) Items() []string { return s.items }

func (s *StringSet) Len() int { return len(s.items) }
