package formatters

import (
	"strings"
	"testing"

	"resumelift/internal/session"
	"resumelift/internal/types"
)

func testDocument() types.ResumeDocument {
	return types.ResumeDocument{
		Name:    "Margaret Hamilton",
		Email:   "mhamilton@example.com",
		Summary: "Software engineering pioneer.",
		Skills:  []string{"Go", "Systems Programming"},
		Experience: []types.Experience{
			{Company: "MIT", Position: "Director", Duration: "1965-1976",
				Description: types.Lines{"Led the on-board flight software team."}},
		},
	}
}

func testReport() types.ATSReport {
	return types.ATSReport{
		Success: true,
		Score: types.ATSScore{
			OverallScore:        82,
			KeywordMatchScore:   78,
			ExperienceRelevance: 85,
			EducationFit:        80,
			SkillsAlignment:     84,
		},
		Insights: []types.ATSInsight{
			{Category: "strength", Title: "Strong systems background", Description: "Deep low-level experience.", Impact: "high"},
		},
		Recommendations: []types.ATSRecommendation{
			{Title: "Add cloud keywords", Description: "Mention Kubernetes.", Priority: "medium", Effort: "easy"},
		},
		MatchedKeywords: []string{"Go"},
		MissingKeywords: []string{"Kubernetes"},
	}
}

func TestRegistryPicksTypedFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   any
		format string
		want   []string
	}{
		{
			name:   "resume text",
			data:   testDocument(),
			format: "text",
			want:   []string{"MARGARET HAMILTON", "SUMMARY", "SKILLS"},
		},
		{
			name:   "resume markdown",
			data:   testDocument(),
			format: "markdown",
			want:   []string{"# Margaret Hamilton", "## Summary", "## Experience"},
		},
		{
			name:   "report text",
			data:   testReport(),
			format: "text",
			want:   []string{"Overall Score: 82/100", "Matched Keywords:", "Add cloud keywords"},
		},
		{
			name:   "report markdown",
			data:   testReport(),
			format: "markdown",
			want:   []string{"# ATS Analysis", "| Keyword Match | 78 |", "## Missing Keywords"},
		},
		{
			name: "result text",
			data: session.Result{
				Explanation: "Tightened the summary.",
				Changes:     []string{"Led with measurable impact"},
			},
			format: "text",
			want:   []string{"Tightened the summary.", "- Led with measurable impact"},
		},
		{
			name: "result markdown with failures",
			data: session.Result{
				Explanation: "Partial rewrite.",
				Changes:     []string{"Rewrote item 1"},
				Failures:    []string{"item 3: upstream error"},
			},
			format: "markdown",
			want:   []string{"## Failures", "item 3: upstream error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GlobalRegistry.Format(tt.data, tt.format)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestRegistryPointerDataUsesSameFormatter(t *testing.T) {
	doc := testDocument()
	fromValue, err := GlobalRegistry.Format(doc, "text")
	if err != nil {
		t.Fatalf("Format(value) error = %v", err)
	}
	fromPointer, err := GlobalRegistry.Format(&doc, "text")
	if err != nil {
		t.Fatalf("Format(pointer) error = %v", err)
	}
	if fromValue != fromPointer {
		t.Errorf("pointer and value formatting differ")
	}
}

func TestRegistryJSONFallback(t *testing.T) {
	got, err := GlobalRegistry.Format(map[string]string{"status": "ok"}, "json")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(got, `"status": "ok"`) {
		t.Errorf("unexpected JSON output: %s", got)
	}
}

func TestRegistryUnknownFormat(t *testing.T) {
	if _, err := GlobalRegistry.Format(testDocument(), "yaml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := GlobalRegistry.GetSupportedFormats()
	for _, want := range []string{"json", "text", "markdown"} {
		found := false
		for _, f := range formats {
			if f == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing format %q in %v", want, formats)
		}
	}
}
