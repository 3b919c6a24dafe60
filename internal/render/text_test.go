package render

import (
	"strings"
	"testing"

	"resumelift/internal/types"
)

func renderTestDocument() *types.ResumeDocument {
	return &types.ResumeDocument{
		Name:     "Katherine Johnson",
		Email:    "katherine@example.com",
		Phone:    "555-0142",
		Location: "Hampton, VA",
		GitHub:   "github.com/kjohnson",
		Summary:  "Mathematician specializing in orbital mechanics.",
		Skills:   []string{"Trajectory analysis", "Fortran"},
		Experience: []types.Experience{
			{
				Company:     "NASA",
				Position:    "Aerospace Technologist",
				Duration:    "1958-1986",
				Description: types.Lines{"Computed launch windows", "Verified orbital calculations"},
			},
		},
		Education: []types.Education{
			{Institution: "West Virginia State", Degree: "BS Mathematics", Year: "1937", GPA: "4.0"},
		},
		Projects: []types.Project{
			{
				Name:         "Orbital Flight Analysis",
				Description:  types.Lines{"Determined trajectories for Mercury missions"},
				Technologies: "Fortran, IBM 7090",
			},
		},
		Publications: []types.Publication{
			{Title: "Orbital Flight Analysis", Journal: "NASA Technical Notes", Year: "1960", Authors: "Johnson, Skopinski"},
			{Title: "Azimuth Angle at Burnout", Journal: "NASA Technical Notes", Year: "1960", Authors: "Johnson"},
		},
		Languages: []string{"English", "French"},
		Awards:    []string{"Presidential Medal of Freedom"},
	}
}

func TestTextIsIdempotent(t *testing.T) {
	doc := renderTestDocument()
	first := Text(doc)
	second := Text(doc)
	if first != second {
		t.Error("rendering the same document twice yielded different output")
	}
	if first == "" {
		t.Error("rendered output is empty")
	}
}

func TestTextDoesNotMutateDocument(t *testing.T) {
	doc := renderTestDocument()
	other := renderTestDocument()
	_ = Text(doc)
	if Text(doc) != Text(other) {
		t.Error("rendering mutated the document")
	}
}

func TestTextSectionOrdering(t *testing.T) {
	output := Text(renderTestDocument())

	sections := []string{
		"KATHERINE JOHNSON",
		"SUMMARY",
		"SKILLS",
		"EXPERIENCE",
		"EDUCATION",
		"PROJECTS",
		"PUBLICATIONS",
		"AWARDS",
		"LANGUAGES",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(output, section)
		if idx < 0 {
			t.Fatalf("section %q missing from output:\n%s", section, output)
		}
		if idx < last {
			t.Errorf("section %q rendered out of order", section)
		}
		last = idx
	}
}

func TestTextMergesMatchingPublicationIntoProject(t *testing.T) {
	doc := renderTestDocument()
	// Title differs from the project name only by case.
	doc.Publications[0].Title = "ORBITAL FLIGHT ANALYSIS"
	output := Text(doc)

	projectsIdx := strings.Index(output, "PROJECTS")
	publicationsIdx := strings.Index(output, "PUBLICATIONS")
	if projectsIdx < 0 || publicationsIdx < 0 {
		t.Fatalf("missing sections in output:\n%s", output)
	}

	mergedIdx := strings.Index(output, "Publication: ORBITAL FLIGHT ANALYSIS")
	if mergedIdx < 0 {
		t.Fatalf("matched publication not attached to project:\n%s", output)
	}
	if mergedIdx < projectsIdx || mergedIdx > publicationsIdx {
		t.Error("matched publication rendered outside the projects block")
	}

	standalone := output[publicationsIdx:]
	if strings.Contains(standalone, "ORBITAL FLIGHT ANALYSIS") {
		t.Error("matched publication also rendered standalone")
	}
	if !strings.Contains(standalone, "Azimuth Angle at Burnout") {
		t.Error("unmatched publication missing from standalone block")
	}
}

func TestTextAllPublicationsMatchedSkipsStandaloneBlock(t *testing.T) {
	doc := renderTestDocument()
	doc.Publications = doc.Publications[:1] // only the matching one
	output := Text(doc)
	if strings.Contains(output, "PUBLICATIONS") {
		t.Errorf("standalone publications block rendered with nothing to show:\n%s", output)
	}
}

func TestTextSkipsEmptySections(t *testing.T) {
	doc := &types.ResumeDocument{Name: "Minimal Person", Summary: "A summary."}
	output := Text(doc)

	for _, absent := range []string{"SKILLS", "EXPERIENCE", "EDUCATION", "PROJECTS", "CERTIFICATIONS", "AWARDS", "LANGUAGES", "REFERENCES"} {
		if strings.Contains(output, absent) {
			t.Errorf("empty section %q rendered:\n%s", absent, output)
		}
	}
}

func TestTextOmitsEmptyOptionalFields(t *testing.T) {
	doc := &types.ResumeDocument{
		Name: "Someone",
		Certifications: []types.Certification{
			{Name: "CKA", Issuer: "CNCF", Year: "2023"},
		},
	}
	output := Text(doc)
	if strings.Contains(output, "expires") {
		t.Errorf("empty expiry rendered:\n%s", output)
	}
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name     string
		docName  string
		ext      string
		expected string
	}{
		{"spaces become underscores", "Katherine Johnson", "pdf", "Katherine_Johnson_resume.pdf"},
		{"single word", "Ada", "docx", "Ada_resume.docx"},
		{"empty name falls back", "", "txt", "resume.txt"},
		{"whitespace-only name falls back", "   ", "txt", "resume.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &types.ResumeDocument{Name: tt.docName}
			if got := ExportFilename(doc, tt.ext); got != tt.expected {
				t.Errorf("ExportFilename() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func BenchmarkText(b *testing.B) {
	doc := renderTestDocument()
	for b.Loop() {
		Text(doc)
	}
}
