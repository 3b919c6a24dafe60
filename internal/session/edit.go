package session

import (
	"fmt"

	"resumelift/internal/errors"
	"resumelift/internal/resume"
)

// EditState is the lifecycle state of an edit session.
type EditState string

const (
	EditIdle    EditState = "idle"
	EditEditing EditState = "editing"
)

// Edit is the manual editing session. At most one section is open at a
// time; opening another section replaces the pending draft. A draft is
// only written to the store on Save, through the store's single
// mutation path, after per-section normalization.
type Edit struct {
	store   *resume.Store
	state   EditState
	section resume.Section
}

// NewEdit creates an idle edit session over store.
func NewEdit(store *resume.Store) *Edit {
	return &Edit{store: store, state: EditIdle}
}

// State returns the current lifecycle state.
func (e *Edit) State() EditState {
	return e.state
}

// Section returns the section currently open for editing.
func (e *Edit) Section() resume.Section {
	return e.section
}

// Open starts editing a section and returns the editable seed value: a
// deep copy of the current section value, joined text for string-list
// sections, or the synthesized contact bundle. Opening while another
// edit is pending replaces it.
func (e *Edit) Open(section resume.Section) (any, error) {
	seed, err := e.store.EditSeed(section)
	if err != nil {
		return nil, err
	}
	e.state = EditEditing
	e.section = section
	return seed, nil
}

// Save normalizes the draft per the section's rules and writes it
// through the store, then returns the session to idle.
func (e *Edit) Save(draft any) error {
	if e.state != EditEditing {
		return errors.NewConflictError(errors.ErrCodeSessionState,
			"no edit in progress", nil)
	}
	value, err := resume.Normalize(e.section, draft)
	if err != nil {
		return err
	}
	if err := e.store.Apply(e.section, resume.WholeSection(), value); err != nil {
		return fmt.Errorf("failed to save section %s: %w", e.section, err)
	}
	e.state = EditIdle
	e.section = ""
	return nil
}

// Cancel discards the pending draft without touching the store.
func (e *Edit) Cancel() {
	e.state = EditIdle
	e.section = ""
}
