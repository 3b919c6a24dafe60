package types

import "encoding/json"

// ParsedResumeResponse is the wire shape returned by the parse endpoint.
type ParsedResumeResponse struct {
	Success bool           `json:"success"`
	Data    ResumeDocument `json:"data"`
	Message string         `json:"message"`
}

// OptimizeSectionRequest is the wire shape of an optimize-section call.
// SectionData carries the current value keyed per section ("content"
// for summary, the section name for list sections); item-scoped calls
// wrap the single element in a one-element list.
type OptimizeSectionRequest struct {
	ResumeData     ResumeDocument             `json:"resume_data"`
	JobDescription string                     `json:"job_description"`
	Section        string                     `json:"section"`
	SectionData    map[string]json.RawMessage `json:"section_data"`
	CustomPrompt   string                     `json:"custom_prompt,omitempty"`
}

// OptimizeSectionResponse is the wire shape returned by the optimize
// endpoint. OptimizedSection is kept raw because its value shape
// depends on the section being optimized.
type OptimizeSectionResponse struct {
	Success          bool                       `json:"success"`
	OptimizedSection map[string]json.RawMessage `json:"optimized_section"`
	Explanation      string                     `json:"explanation"`
	ChangesMade      []string                   `json:"changes_made"`
	Message          string                     `json:"message"`
}
