package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumelift/internal/render"
	"resumelift/internal/session"
	"resumelift/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ResumeDocument", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeDocument", &ResumeMarkdownFormatter{})
	registry.RegisterFormatter("text", "ATSReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "ATSReport", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "OptimizeResult", &OptimizeTextFormatter{})
	registry.RegisterFormatter("markdown", "OptimizeResult", &OptimizeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResumeDocument, *types.ResumeDocument:
		return "ResumeDocument"
	case types.ATSReport, *types.ATSReport:
		return "ATSReport"
	case session.Result, *session.Result:
		return "OptimizeResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ResumeTextFormatter renders a resume document as the flat text export
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	doc, ok := asDocument(data)
	if !ok {
		return "", fmt.Errorf("expected ResumeDocument, got %T", data)
	}
	return render.Text(doc) + "\n", nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "ResumeDocument"
}

// ResumeMarkdownFormatter renders a resume document as markdown
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	doc, ok := asDocument(data)
	if !ok {
		return "", fmt.Errorf("expected ResumeDocument, got %T", data)
	}

	var output strings.Builder

	if doc.Name != "" {
		output.WriteString(fmt.Sprintf("# %s\n\n", doc.Name))
	}
	contact := joinNonEmpty(" | ", doc.Email, doc.Phone, doc.Location)
	if contact != "" {
		output.WriteString(contact)
		output.WriteString("\n\n")
	}
	profiles := joinNonEmpty(" | ", doc.LinkedIn, doc.GitHub, doc.Website)
	if profiles != "" {
		output.WriteString(profiles)
		output.WriteString("\n\n")
	}

	if doc.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(doc.Summary)
		output.WriteString("\n\n")
	}

	if len(doc.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		output.WriteString(strings.Join(doc.Skills, ", "))
		output.WriteString("\n\n")
	}

	if len(doc.Experience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, e := range doc.Experience {
			output.WriteString(fmt.Sprintf("### %s\n\n", joinNonEmpty(", ", e.Position, e.Company)))
			if e.Duration != "" {
				output.WriteString(fmt.Sprintf("*%s*\n\n", e.Duration))
			}
			for _, line := range e.Description {
				output.WriteString(fmt.Sprintf("- %s\n", line))
			}
			output.WriteString("\n")
		}
	}

	if len(doc.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, e := range doc.Education {
			line := joinNonEmpty(", ", e.Degree, e.Institution)
			if e.Year != "" {
				line += " (" + e.Year + ")"
			}
			output.WriteString(fmt.Sprintf("- %s\n", line))
		}
		output.WriteString("\n")
	}

	if len(doc.Projects) > 0 {
		output.WriteString("## Projects\n\n")
		for _, p := range doc.Projects {
			output.WriteString(fmt.Sprintf("### %s\n\n", p.Name))
			if p.Technologies != "" {
				output.WriteString(fmt.Sprintf("*%s*\n\n", p.Technologies))
			}
			for _, line := range p.Description {
				output.WriteString(fmt.Sprintf("- %s\n", line))
			}
			if p.URL != "" {
				output.WriteString(fmt.Sprintf("\n<%s>\n", p.URL))
			}
			output.WriteString("\n")
		}
	}

	if len(doc.Publications) > 0 {
		output.WriteString("## Publications\n\n")
		for _, p := range doc.Publications {
			line := joinNonEmpty(", ", p.Title, p.Journal)
			if p.Year != "" {
				line += " (" + p.Year + ")"
			}
			output.WriteString(fmt.Sprintf("- %s\n", line))
		}
		output.WriteString("\n")
	}

	if len(doc.Certifications) > 0 {
		output.WriteString("## Certifications\n\n")
		for _, c := range doc.Certifications {
			line := joinNonEmpty(", ", c.Name, c.Issuer)
			if c.Year != "" {
				line += " (" + c.Year + ")"
			}
			output.WriteString(fmt.Sprintf("- %s\n", line))
		}
		output.WriteString("\n")
	}

	if len(doc.Languages) > 0 {
		output.WriteString("## Languages\n\n")
		output.WriteString(strings.Join(doc.Languages, ", "))
		output.WriteString("\n\n")
	}

	if len(doc.VolunteerExperience) > 0 {
		output.WriteString("## Volunteer Experience\n\n")
		for _, v := range doc.VolunteerExperience {
			output.WriteString(fmt.Sprintf("### %s\n\n", joinNonEmpty(", ", v.Position, v.Organization)))
			if v.Duration != "" {
				output.WriteString(fmt.Sprintf("*%s*\n\n", v.Duration))
			}
			for _, line := range v.Description {
				output.WriteString(fmt.Sprintf("- %s\n", line))
			}
			output.WriteString("\n")
		}
	}

	if len(doc.Awards) > 0 {
		output.WriteString("## Awards\n\n")
		for _, a := range doc.Awards {
			output.WriteString(fmt.Sprintf("- %s\n", a))
		}
		output.WriteString("\n")
	}

	if len(doc.References) > 0 {
		output.WriteString("## References\n\n")
		for _, r := range doc.References {
			output.WriteString(fmt.Sprintf("- %s\n", joinNonEmpty(", ", r.Name, r.Title, r.Company, r.Contact)))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "ResumeDocument"
}

// ReportTextFormatter handles text formatting for ATS analysis reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := asReport(data)
	if !ok {
		return "", fmt.Errorf("expected ATSReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n\n", report.Score.OverallScore))
	output.WriteString(fmt.Sprintf("Keyword Match:        %d/100\n", report.Score.KeywordMatchScore))
	output.WriteString(fmt.Sprintf("Experience Relevance: %d/100\n", report.Score.ExperienceRelevance))
	output.WriteString(fmt.Sprintf("Education Fit:        %d/100\n", report.Score.EducationFit))
	output.WriteString(fmt.Sprintf("Skills Alignment:     %d/100\n\n", report.Score.SkillsAlignment))

	if len(report.MatchedKeywords) > 0 {
		output.WriteString("Matched Keywords:\n")
		output.WriteString(strings.Join(report.MatchedKeywords, ", "))
		output.WriteString("\n\n")
	}
	if len(report.MissingKeywords) > 0 {
		output.WriteString("Missing Keywords:\n")
		output.WriteString(strings.Join(report.MissingKeywords, ", "))
		output.WriteString("\n\n")
	}

	if len(report.Insights) > 0 {
		output.WriteString("=== INSIGHTS ===\n\n")
		for i, insight := range report.Insights {
			output.WriteString(fmt.Sprintf("%d. [%s] %s (impact: %s)\n", i+1, insight.Category, insight.Title, insight.Impact))
			output.WriteString("   ")
			output.WriteString(insight.Description)
			output.WriteString("\n\n")
		}
	}

	if len(report.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n\n")
		for i, rec := range report.Recommendations {
			output.WriteString(fmt.Sprintf("%d. %s (priority: %s, effort: %s)\n", i+1, rec.Title, rec.Priority, rec.Effort))
			output.WriteString("   ")
			output.WriteString(rec.Description)
			output.WriteString("\n\n")
		}
	}

	if len(report.ExperienceGaps) > 0 {
		output.WriteString("Experience Gaps:\n")
		for _, gap := range report.ExperienceGaps {
			output.WriteString(fmt.Sprintf("- %s\n", gap))
		}
		output.WriteString("\n")
	}
	if len(report.Strengths) > 0 {
		output.WriteString("Strengths:\n")
		for _, s := range report.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "ATSReport"
}

// ReportMarkdownFormatter handles markdown formatting for ATS analysis reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := asReport(data)
	if !ok {
		return "", fmt.Errorf("expected ATSReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", report.Score.OverallScore))
	output.WriteString("| Dimension | Score |\n")
	output.WriteString("|-----------|-------|\n")
	output.WriteString(fmt.Sprintf("| Keyword Match | %d |\n", report.Score.KeywordMatchScore))
	output.WriteString(fmt.Sprintf("| Experience Relevance | %d |\n", report.Score.ExperienceRelevance))
	output.WriteString(fmt.Sprintf("| Education Fit | %d |\n", report.Score.EducationFit))
	output.WriteString(fmt.Sprintf("| Skills Alignment | %d |\n\n", report.Score.SkillsAlignment))

	if len(report.MatchedKeywords) > 0 {
		output.WriteString("## Matched Keywords\n\n")
		output.WriteString(strings.Join(report.MatchedKeywords, ", "))
		output.WriteString("\n\n")
	}
	if len(report.MissingKeywords) > 0 {
		output.WriteString("## Missing Keywords\n\n")
		output.WriteString(strings.Join(report.MissingKeywords, ", "))
		output.WriteString("\n\n")
	}

	if len(report.Insights) > 0 {
		output.WriteString("## Insights\n\n")
		for i, insight := range report.Insights {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, insight.Title))
			output.WriteString(fmt.Sprintf("**Category:** %s | **Impact:** %s\n\n", insight.Category, insight.Impact))
			output.WriteString(insight.Description)
			output.WriteString("\n\n")
		}
	}

	if len(report.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for i, rec := range report.Recommendations {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, rec.Title))
			output.WriteString(fmt.Sprintf("**Priority:** %s | **Effort:** %s\n\n", rec.Priority, rec.Effort))
			output.WriteString(rec.Description)
			output.WriteString("\n\n")
		}
	}

	if len(report.ExperienceGaps) > 0 {
		output.WriteString("## Experience Gaps\n\n")
		for _, gap := range report.ExperienceGaps {
			output.WriteString(fmt.Sprintf("- %s\n", gap))
		}
		output.WriteString("\n")
	}
	if len(report.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for _, s := range report.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "ATSReport"
}

// OptimizeTextFormatter handles text formatting for optimization results
type OptimizeTextFormatter struct{}

func (otf *OptimizeTextFormatter) Format(data any) (string, error) {
	result, ok := asResult(data)
	if !ok {
		return "", fmt.Errorf("expected optimization Result, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZATION RESULT ===\n\n")
	output.WriteString("Explanation:\n")
	output.WriteString(result.Explanation)
	output.WriteString("\n\n")

	if len(result.Changes) > 0 {
		output.WriteString("Changes Made:\n")
		for _, change := range result.Changes {
			output.WriteString(fmt.Sprintf("- %s\n", change))
		}
		output.WriteString("\n")
	} else {
		output.WriteString("No changes were made.\n\n")
	}

	if len(result.Failures) > 0 {
		output.WriteString("Failures:\n")
		for _, failure := range result.Failures {
			output.WriteString(fmt.Sprintf("- %s\n", failure))
		}
	}

	return output.String(), nil
}

func (otf *OptimizeTextFormatter) SupportedType() string {
	return "OptimizeResult"
}

// OptimizeMarkdownFormatter handles markdown formatting for optimization results
type OptimizeMarkdownFormatter struct{}

func (omf *OptimizeMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asResult(data)
	if !ok {
		return "", fmt.Errorf("expected optimization Result, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Optimization Result\n\n")
	output.WriteString("## Explanation\n\n")
	output.WriteString(result.Explanation)
	output.WriteString("\n\n")

	if len(result.Changes) > 0 {
		output.WriteString("## Changes Made\n\n")
		for _, change := range result.Changes {
			output.WriteString(fmt.Sprintf("- %s\n", change))
		}
		output.WriteString("\n")
	} else {
		output.WriteString("## No Changes\n\nThe section was already well aligned with the job description.\n\n")
	}

	if len(result.Failures) > 0 {
		output.WriteString("## Failures\n\n")
		for _, failure := range result.Failures {
			output.WriteString(fmt.Sprintf("- %s\n", failure))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (omf *OptimizeMarkdownFormatter) SupportedType() string {
	return "OptimizeResult"
}

func asDocument(data any) (*types.ResumeDocument, bool) {
	switch v := data.(type) {
	case types.ResumeDocument:
		return &v, true
	case *types.ResumeDocument:
		return v, true
	}
	return nil, false
}

func asReport(data any) (*types.ATSReport, bool) {
	switch v := data.(type) {
	case types.ATSReport:
		return &v, true
	case *types.ATSReport:
		return v, true
	}
	return nil, false
}

func asResult(data any) (*session.Result, bool) {
	switch v := data.(type) {
	case session.Result:
		return &v, true
	case *session.Result:
		return v, true
	}
	return nil, false
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
