package resume

import (
	"reflect"
	"testing"

	"resumelift/internal/types"
)

func testDocument() *types.ResumeDocument {
	return &types.ResumeDocument{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Summary: "Analyst and programmer.",
		Skills:  []string{"Go", "Rust"},
		Experience: []types.Experience{
			{
				Company:     "Analytical Engines Ltd",
				Position:    "Lead Engineer",
				Duration:    "1840-1843",
				Description: types.Lines{"Wrote the first program"},
			},
		},
	}
}

func TestStoreRequiresLoadedDocument(t *testing.T) {
	s := NewStore()
	if s.Loaded() {
		t.Error("empty store reports loaded")
	}
	if _, err := s.Value(SectionSummary, WholeSection()); err == nil {
		t.Error("Expected error reading from empty store")
	}
	if err := s.Apply(SectionSummary, WholeSection(), "x"); err == nil {
		t.Error("Expected error applying to empty store")
	}
}

func TestStoreLoadCopiesDocument(t *testing.T) {
	doc := testDocument()
	s := NewStore()
	s.Load(doc)

	doc.Skills[0] = "MUTATED"
	got, err := s.Value(SectionSkills, ItemAt(0))
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if got != "Go" {
		t.Errorf("store aliased caller slice: got %v", got)
	}

	// Reads hand out copies too.
	out := s.Document()
	out.Skills[0] = "ALSO MUTATED"
	got, _ = s.Value(SectionSkills, ItemAt(0))
	if got != "Go" {
		t.Errorf("store aliased returned document: got %v", got)
	}
}

func TestStoreApply(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		target  Target
		value   any
		check   func(t *testing.T, doc *types.ResumeDocument)
	}{
		{
			name:    "whole scalar section",
			section: SectionSummary,
			target:  WholeSection(),
			value:   "Updated summary.",
			check: func(t *testing.T, doc *types.ResumeDocument) {
				if doc.Summary != "Updated summary." {
					t.Errorf("summary = %q", doc.Summary)
				}
			},
		},
		{
			name:    "whole list section",
			section: SectionSkills,
			target:  WholeSection(),
			value:   []string{"Python"},
			check: func(t *testing.T, doc *types.ResumeDocument) {
				if !reflect.DeepEqual(doc.Skills, []string{"Python"}) {
					t.Errorf("skills = %v", doc.Skills)
				}
			},
		},
		{
			name:    "single list item",
			section: SectionSkills,
			target:  ItemAt(1),
			value:   "Zig",
			check: func(t *testing.T, doc *types.ResumeDocument) {
				if !reflect.DeepEqual(doc.Skills, []string{"Go", "Zig"}) {
					t.Errorf("skills = %v", doc.Skills)
				}
			},
		},
		{
			name:    "record list item",
			section: SectionExperience,
			target:  ItemAt(0),
			value: types.Experience{
				Company:     "Babbage & Co",
				Position:    "Engineer",
				Description: types.Lines{"Maintained the engine"},
			},
			check: func(t *testing.T, doc *types.ResumeDocument) {
				if doc.Experience[0].Company != "Babbage & Co" {
					t.Errorf("experience[0].company = %q", doc.Experience[0].Company)
				}
			},
		},
		{
			name:    "contact pseudo-section distributes scalars",
			section: SectionContact,
			target:  WholeSection(),
			value: types.Contact{
				Name:  "Ada King",
				Email: "ada@lovelace.dev",
				Phone: "555-0100",
			},
			check: func(t *testing.T, doc *types.ResumeDocument) {
				if doc.Name != "Ada King" || doc.Email != "ada@lovelace.dev" || doc.Phone != "555-0100" {
					t.Errorf("contact fields = %q %q %q", doc.Name, doc.Email, doc.Phone)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Load(testDocument())
			if err := s.Apply(tt.section, tt.target, tt.value); err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			tt.check(t, s.Document())
		})
	}
}

func TestStoreApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		target  Target
		value   any
	}{
		{"unknown section", Section("bogus"), WholeSection(), "x"},
		{"item target on scalar section", SectionSummary, ItemAt(0), "x"},
		{"item index out of range", SectionSkills, ItemAt(5), "x"},
		{"negative item index", SectionSkills, ItemAt(-1), "x"},
		{"wrong value type", SectionSkills, WholeSection(), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Load(testDocument())
			before := s.Document()
			if err := s.Apply(tt.section, tt.target, tt.value); err == nil {
				t.Fatal("Expected error but got none")
			}
			if !reflect.DeepEqual(before, s.Document()) {
				t.Error("failed Apply mutated the document")
			}
		})
	}
}

func TestStoreSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	s.Load(testDocument())

	snapshot, err := s.Snapshot(SectionSkills, WholeSection())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	if err := s.Apply(SectionSkills, WholeSection(), []string{"Completely", "Different"}); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if err := s.Apply(SectionSkills, WholeSection(), snapshot); err != nil {
		t.Fatalf("restore Apply() error: %v", err)
	}

	got, _ := s.Value(SectionSkills, WholeSection())
	if !reflect.DeepEqual(got, []string{"Go", "Rust"}) {
		t.Errorf("skills after round trip = %v, want [Go Rust]", got)
	}
}

func TestStoreEditSeed(t *testing.T) {
	s := NewStore()
	s.Load(testDocument())

	seed, err := s.EditSeed(SectionSkills)
	if err != nil {
		t.Fatalf("EditSeed() error: %v", err)
	}
	if seed != "Go, Rust" {
		t.Errorf("skills edit seed = %q, want %q", seed, "Go, Rust")
	}

	seed, err = s.EditSeed(SectionContact)
	if err != nil {
		t.Fatalf("EditSeed() error: %v", err)
	}
	contact, ok := seed.(types.Contact)
	if !ok || contact.Name != "Ada Lovelace" {
		t.Errorf("contact edit seed = %#v", seed)
	}
}
