package types

// ATSScore holds the scored dimensions of an ATS analysis, each 0-100.
type ATSScore struct {
	OverallScore        int `json:"overall_score"`
	KeywordMatchScore   int `json:"keyword_match_score"`
	ExperienceRelevance int `json:"experience_relevance"`
	EducationFit        int `json:"education_fit"`
	SkillsAlignment     int `json:"skills_alignment"`
}

// ATSInsight is one qualitative observation about the resume.
type ATSInsight struct {
	Category    string `json:"category"` // "strength", "weakness", "suggestion"
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"` // "high", "medium", "low"
}

// ATSRecommendation is one actionable improvement suggestion.
type ATSRecommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // "high", "medium", "low"
	Effort      string `json:"effort"`   // "easy", "moderate", "complex"
}

// ATSReport is the full response of an ATS analysis.
type ATSReport struct {
	Success         bool                `json:"success"`
	Score           ATSScore            `json:"score"`
	Insights        []ATSInsight        `json:"insights"`
	Recommendations []ATSRecommendation `json:"recommendations"`
	MatchedKeywords []string            `json:"matched_keywords"`
	MissingKeywords []string            `json:"missing_keywords"`
	ExperienceGaps  []string            `json:"experience_gaps"`
	Strengths       []string            `json:"strengths"`
	Message         string              `json:"message"`
}
