package gateway

import (
	"encoding/json"
	"testing"

	"resumelift/internal/types"

	"google.golang.org/genai"
)

func TestUploadMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"resume.pdf", "application/pdf"},
		{"Resume.PDF", "application/pdf"},
		{"resume.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"resume.txt", ""},
		{"resume", ""},
	}

	for _, tt := range tests {
		if got := uploadMIMEType(tt.filename); got != tt.expected {
			t.Errorf("uploadMIMEType(%q) = %q, want %q", tt.filename, got, tt.expected)
		}
	}
}

func TestPayloadKeyOf(t *testing.T) {
	summaryReq := types.OptimizeSectionRequest{
		Section:     "summary",
		SectionData: map[string]json.RawMessage{"content": json.RawMessage(`"text"`)},
	}
	if got := payloadKeyOf(summaryReq); got != "content" {
		t.Errorf("summary payload key = %q, want content", got)
	}

	skillsReq := types.OptimizeSectionRequest{
		Section:     "skills",
		SectionData: map[string]json.RawMessage{"skills": json.RawMessage(`["Go"]`)},
	}
	if got := payloadKeyOf(skillsReq); got != "skills" {
		t.Errorf("skills payload key = %q, want skills", got)
	}

	// Missing section data falls back to the section name.
	bare := types.OptimizeSectionRequest{Section: "awards"}
	if got := payloadKeyOf(bare); got != "awards" {
		t.Errorf("bare payload key = %q, want awards", got)
	}
}

func TestSectionValueSchemaShapes(t *testing.T) {
	if got := sectionValueSchema("summary"); got.Type != genai.TypeString {
		t.Errorf("summary schema type = %v, want string", got.Type)
	}

	skills := sectionValueSchema("skills")
	if skills.Type != genai.TypeArray || skills.Items.Type != genai.TypeString {
		t.Error("skills schema is not a string array")
	}

	experience := sectionValueSchema("experience")
	if experience.Type != genai.TypeArray || experience.Items.Type != genai.TypeObject {
		t.Error("experience schema is not an object array")
	}
	if _, ok := experience.Items.Properties["description"]; !ok {
		t.Error("experience item schema missing description")
	}
}

func TestBuildOptimizeSchemaPinsPayloadKey(t *testing.T) {
	schema := buildOptimizeSchema("content", sectionValueSchema("summary"))

	optimized, ok := schema.Properties["optimized_section"]
	if !ok {
		t.Fatal("schema missing optimized_section")
	}
	if _, ok := optimized.Properties["content"]; !ok {
		t.Error("optimized_section schema missing payload key")
	}
	if len(optimized.Required) != 1 || optimized.Required[0] != "content" {
		t.Errorf("optimized_section required = %v", optimized.Required)
	}

	for _, field := range []string{"explanation", "changes_made"} {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("schema missing %q", field)
		}
	}
}
