package board

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrUnknownStroke  = errors.New("unknown stroke")
	ErrUnknownElement = errors.New("unknown element")
	ErrInvalidStroke  = errors.New("invalid stroke")
)

// Store holds the authoritative layers for one board. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	strokes  []Stroke
	elements []Element
	version  int64
}

// NewStore creates a store seeded with layers.
func NewStore(layers Layers) *Store {
	s := &Store{}
	for _, st := range layers.Strokes {
		s.strokes = append(s.strokes, st.Clone())
	}
	s.elements = append(s.elements, layers.Elements...)
	return s
}

// Snapshot returns a copy of the current layers. The caller may keep it.
func (s *Store) Snapshot() Layers {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layers := Layers{
		Strokes:  make([]Stroke, len(s.strokes)),
		Elements: slices.Clone(s.elements),
	}
	for i, st := range s.strokes {
		layers.Strokes[i] = st.Clone()
	}
	if layers.Elements == nil {
		layers.Elements = []Element{}
	}
	return layers
}

// Version increments on every successful mutation.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// CommitStroke appends a finalized stroke, replacing any stroke with the
// same id.
func (s *Store) CommitStroke(st Stroke) error {
	if st.ID == "" || len(st.Points) == 0 {
		return fmt.Errorf("commit stroke %q: %w", st.ID, ErrInvalidStroke)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st = st.Clone()
	if i := s.strokeIndexLocked(st.ID); i >= 0 {
		s.strokes[i] = st
	} else {
		s.strokes = append(s.strokes, st)
	}
	s.version++
	return nil
}

// EraseStroke removes a single stroke.
func (s *Store) EraseStroke(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.strokeIndexLocked(id)
	if i < 0 {
		return fmt.Errorf("erase stroke %q: %w", id, ErrUnknownStroke)
	}
	s.strokes = slices.Delete(s.strokes, i, i+1)
	s.version++
	return nil
}

// DeleteStrokes removes every listed stroke that exists and returns how
// many were removed.
func (s *Store) DeleteStrokes(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.strokes)
	s.strokes = slices.DeleteFunc(s.strokes, func(st Stroke) bool {
		return slices.Contains(ids, st.ID)
	})
	removed := before - len(s.strokes)
	if removed > 0 {
		s.version++
	}
	return removed
}

// TranslateStrokes moves every listed stroke by (dx, dy) and returns how
// many were moved.
func (s *Store) TranslateStrokes(ids []string, dx, dy float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := 0
	for i, st := range s.strokes {
		if slices.Contains(ids, st.ID) {
			s.strokes[i] = st.Translated(dx, dy)
			moved++
		}
	}
	if moved > 0 {
		s.version++
	}
	return moved
}

// UndoLast removes the most recent stroke drawn by userID and returns its id.
func (s *Store) UndoLast(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.strokes) - 1; i >= 0; i-- {
		if s.strokes[i].Origin.UserID == userID {
			id := s.strokes[i].ID
			s.strokes = slices.Delete(s.strokes, i, i+1)
			s.version++
			return id, true
		}
	}
	return "", false
}

// CreateElements appends elements, replacing any with the same id.
func (s *Store) CreateElements(elems ...Element) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range elems {
		if i := s.elementIndexLocked(e.ID); i >= 0 {
			s.elements[i] = e
			continue
		}
		s.elements = append(s.elements, e)
	}
	s.version++
}

// UpdateElement applies a partial update to one element.
func (s *Store) UpdateElement(id string, patch ElementPatch) (Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.elementIndexLocked(id)
	if i < 0 {
		return Element{}, fmt.Errorf("update element %q: %w", id, ErrUnknownElement)
	}
	s.elements[i] = patch.Apply(s.elements[i])
	s.version++
	return s.elements[i], nil
}

// Reset replaces the whole content with layers.
func (s *Store) Reset(layers Layers) {
	fresh := NewStore(layers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = fresh.strokes
	s.elements = fresh.elements
	s.version++
}

// Clear removes all strokes and elements.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strokes = nil
	s.elements = nil
	s.version++
}

func (s *Store) strokeIndexLocked(id string) int {
	return slices.IndexFunc(s.strokes, func(st Stroke) bool { return st.ID == id })
}

func (s *Store) elementIndexLocked(id string) int {
	return slices.IndexFunc(s.elements, func(e Element) bool { return e.ID == id })
}
