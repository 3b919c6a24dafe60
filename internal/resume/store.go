package resume

import (
	"encoding/json"
	"sync"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

// Store holds the canonical resume document. Apply is the single
// mutation path for section values; manual edits, optimization results
// and undo restores all go through it, which is what makes restoring a
// snapshot through the same path always correct.
//
// Store is safe for concurrent use: one mutex orders every read and
// write, so document reads stay consistent while an optimization run
// applies its result.
type Store struct {
	mu  sync.Mutex
	doc *types.ResumeDocument
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the entire document, typically after a successful
// parse. The document is copied in.
func (s *Store) Load(doc *types.ResumeDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
}

// Loaded reports whether a document is present.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil
}

// Document returns a deep copy of the current document, or nil when
// nothing is loaded.
func (s *Store) Document() *types.ResumeDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Store) require() error {
	if s.doc == nil {
		return errors.NewValidationError(errors.ErrCodeNoResume, "no resume loaded", nil)
	}
	return nil
}

// Value returns a deep copy of the value addressed by section/target.
func (s *Store) Value(section Section, target Target) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(); err != nil {
		return nil, err
	}
	ops, err := lookup(section)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(ops, section, target, s.doc); err != nil {
		return nil, err
	}
	// Reading from a clone keeps callers from aliasing store state.
	doc := s.doc.Clone()
	if target.IsItem() {
		return ops.item(doc, target.Index()), nil
	}
	return ops.value(doc), nil
}

// Snapshot captures the current value of section/target for a later
// Restore. It is an alias for Value; the name marks intent at call
// sites that hold undo state.
func (s *Store) Snapshot(section Section, target Target) (any, error) {
	return s.Value(section, target)
}

// Len returns the element count of a list section, or 0 for scalars.
func (s *Store) Len(section Section) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(); err != nil {
		return 0, err
	}
	ops, err := lookup(section)
	if err != nil {
		return 0, err
	}
	if !ops.list {
		return 0, nil
	}
	return ops.length(s.doc), nil
}

// EditSeed returns the editable representation of section's current
// value.
func (s *Store) EditSeed(section Section) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(); err != nil {
		return nil, err
	}
	return EditSeed(s.doc.Clone(), section)
}

// Apply writes value at section/target. A whole-section target replaces
// the entire section value; an item target replaces one element of a
// list section.
func (s *Store) Apply(section Section, target Target, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(); err != nil {
		return err
	}
	ops, err := lookup(section)
	if err != nil {
		return err
	}
	if err := checkTarget(ops, section, target, s.doc); err != nil {
		return err
	}
	if target.IsItem() {
		return ops.applyItem(s.doc, target.Index(), value)
	}
	return ops.apply(s.doc, value)
}

// OptimizePayload builds the optimize request payload for the current
// document at section/target.
func (s *Store) OptimizePayload(section Section, target Target) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(); err != nil {
		return nil, err
	}
	return OptimizePayload(s.doc, section, target)
}
