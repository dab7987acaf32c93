package selection

import (
	"sort"
	"sync"
)

// DeckSource resolves a slide index to its HTML
type DeckSource interface {
	SlideHTML(i int) (string, bool)
}

// Pinned is the resolved pin set: Slides[i] is the HTML of slide Indices[i]
type Pinned struct {
	Indices []int
	Slides  []string
}

// Store holds the slides the user has pinned as edit scope
type Store struct {
	mu     sync.Mutex
	source DeckSource
	pinned map[int]struct{}
}

func NewStore(source DeckSource) *Store {
	return &Store{
		source: source,
		pinned: make(map[int]struct{}),
	}
}

// Pin adds indices to the set. Negative indices are ignored.
func (s *Store) Pin(indices ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indices {
		if i >= 0 {
			s.pinned[i] = struct{}{}
		}
	}
}

func (s *Store) Unpin(indices ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indices {
		delete(s.pinned, i)
	}
}

// Toggle flips slide i and reports whether it is now pinned
func (s *Store) Toggle(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pinned[i]; ok {
		delete(s.pinned, i)
		return false
	}
	if i < 0 {
		return false
	}
	s.pinned[i] = struct{}{}
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = make(map[int]struct{})
}

// Prune drops pins that point past the end of a deck with n slides
func (s *Store) Prune(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pinned {
		if i >= n {
			delete(s.pinned, i)
		}
	}
}

// Indices returns the pinned indices in ascending order
func (s *Store) Indices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted()
}

// Read resolves the pinned indices against the deck. Indices the deck
// cannot resolve are left out.
func (s *Store) Read() Pinned {
	s.mu.Lock()
	indices := s.sorted()
	s.mu.Unlock()

	var result Pinned
	for _, i := range indices {
		html, ok := s.source.SlideHTML(i)
		if !ok {
			continue
		}
		result.Indices = append(result.Indices, i)
		result.Slides = append(result.Slides, html)
	}
	return result
}

func (s *Store) sorted() []int {
	indices := make([]int, 0, len(s.pinned))
	for i := range s.pinned {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
