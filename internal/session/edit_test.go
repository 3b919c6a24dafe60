package session

import (
	"reflect"
	"testing"

	"resumelift/internal/resume"
	"resumelift/internal/types"
)

func editTestStore() *resume.Store {
	s := resume.NewStore()
	s.Load(&types.ResumeDocument{
		Name:    "Grace Hopper",
		Email:   "grace@example.com",
		Summary: "Compiler pioneer.",
		Skills:  []string{"COBOL", "FLOW-MATIC"},
		Awards:  []string{"National Medal of Technology"},
	})
	return s
}

func TestEditSkillsScenario(t *testing.T) {
	store := editTestStore()
	edit := NewEdit(store)

	seed, err := edit.Open(resume.SectionSkills)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if seed != "COBOL, FLOW-MATIC" {
		t.Errorf("edit seed = %q, want %q", seed, "COBOL, FLOW-MATIC")
	}
	if edit.State() != EditEditing {
		t.Errorf("state = %s, want %s", edit.State(), EditEditing)
	}

	if err := edit.Save("Go, , Rust,  "); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if edit.State() != EditIdle {
		t.Errorf("state after save = %s, want %s", edit.State(), EditIdle)
	}

	got, _ := store.Value(resume.SectionSkills, resume.WholeSection())
	if !reflect.DeepEqual(got, []string{"Go", "Rust"}) {
		t.Errorf("skills = %v, want [Go Rust]", got)
	}
}

func TestEditCancelLeavesStoreUntouched(t *testing.T) {
	store := editTestStore()
	edit := NewEdit(store)
	before := store.Document()

	if _, err := edit.Open(resume.SectionSummary); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	edit.Cancel()

	if edit.State() != EditIdle {
		t.Errorf("state after cancel = %s, want %s", edit.State(), EditIdle)
	}
	if !reflect.DeepEqual(before, store.Document()) {
		t.Error("cancel mutated the document")
	}
}

func TestEditLastOpenWins(t *testing.T) {
	store := editTestStore()
	edit := NewEdit(store)

	if _, err := edit.Open(resume.SectionSkills); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := edit.Open(resume.SectionAwards); err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	if edit.Section() != resume.SectionAwards {
		t.Errorf("open section = %s, want %s", edit.Section(), resume.SectionAwards)
	}

	if err := edit.Save("Turing Award\nNational Medal of Technology"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, _ := store.Value(resume.SectionAwards, resume.WholeSection())
	expected := []string{"Turing Award", "National Medal of Technology"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("awards = %v, want %v", got, expected)
	}
}

func TestEditContactDistributesScalars(t *testing.T) {
	store := editTestStore()
	edit := NewEdit(store)

	seed, err := edit.Open(resume.SectionContact)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	contact, ok := seed.(types.Contact)
	if !ok {
		t.Fatalf("contact seed has type %T", seed)
	}

	contact.Phone = "555-0199"
	contact.Location = "Arlington, VA"
	if err := edit.Save(contact); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	doc := store.Document()
	if doc.Phone != "555-0199" || doc.Location != "Arlington, VA" {
		t.Errorf("contact fields = %q %q", doc.Phone, doc.Location)
	}
	if doc.Name != "Grace Hopper" {
		t.Errorf("untouched contact field changed: name = %q", doc.Name)
	}
}

func TestEditSaveWithoutOpen(t *testing.T) {
	edit := NewEdit(editTestStore())
	if err := edit.Save("anything"); err == nil {
		t.Error("Expected error saving with no edit in progress")
	}
}
