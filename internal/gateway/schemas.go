package gateway

import (
	"google.golang.org/genai"
)

func stringArraySchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
}

func experienceSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"position":    {Type: genai.TypeString},
			"company":     {Type: genai.TypeString},
			"duration":    {Type: genai.TypeString},
			"description": stringArraySchema(),
		},
		Required: []string{"position", "company", "duration", "description"},
	}
}

func educationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"degree":      {Type: genai.TypeString},
			"institution": {Type: genai.TypeString},
			"year":        {Type: genai.TypeString},
			"gpa":         {Type: genai.TypeString},
			"coursework":  {Type: genai.TypeString},
		},
		Required: []string{"degree", "institution", "year"},
	}
}

func projectSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":         {Type: genai.TypeString},
			"description":  stringArraySchema(),
			"technologies": {Type: genai.TypeString},
			"url":          {Type: genai.TypeString},
			"duration":     {Type: genai.TypeString},
		},
		Required: []string{"name", "description"},
	}
}

func publicationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":   {Type: genai.TypeString},
			"journal": {Type: genai.TypeString},
			"year":    {Type: genai.TypeString},
			"authors": {Type: genai.TypeString},
			"url":     {Type: genai.TypeString},
		},
		Required: []string{"title"},
	}
}

func certificationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":   {Type: genai.TypeString},
			"issuer": {Type: genai.TypeString},
			"year":   {Type: genai.TypeString},
			"expiry": {Type: genai.TypeString},
		},
		Required: []string{"name"},
	}
}

func volunteerSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"position":     {Type: genai.TypeString},
			"organization": {Type: genai.TypeString},
			"duration":     {Type: genai.TypeString},
			"description":  stringArraySchema(),
		},
		Required: []string{"position", "organization"},
	}
}

func referenceSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":    {Type: genai.TypeString},
			"title":   {Type: genai.TypeString},
			"company": {Type: genai.TypeString},
			"contact": {Type: genai.TypeString},
		},
		Required: []string{"name"},
	}
}

// buildParseSchema mirrors the document wire shape so the model is
// forced into valid JSON for every section.
func buildParseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":             {Type: genai.TypeString},
			"email":            {Type: genai.TypeString},
			"phone":            {Type: genai.TypeString},
			"location":         {Type: genai.TypeString},
			"summary":          {Type: genai.TypeString},
			"github_profile":   {Type: genai.TypeString},
			"linkedin_profile": {Type: genai.TypeString},
			"website":          {Type: genai.TypeString},
			"skills":           stringArraySchema(),
			"experience": {
				Type:  genai.TypeArray,
				Items: experienceSchema(),
			},
			"education": {
				Type:  genai.TypeArray,
				Items: educationSchema(),
			},
			"projects": {
				Type:  genai.TypeArray,
				Items: projectSchema(),
			},
			"publications": {
				Type:  genai.TypeArray,
				Items: publicationSchema(),
			},
			"certifications": {
				Type:  genai.TypeArray,
				Items: certificationSchema(),
			},
			"volunteer_experience": {
				Type:  genai.TypeArray,
				Items: volunteerSchema(),
			},
			"awards":    stringArraySchema(),
			"languages": stringArraySchema(),
			"references": {
				Type:  genai.TypeArray,
				Items: referenceSchema(),
			},
		},
		Required: []string{"name", "email", "phone", "summary", "skills", "experience", "education"},
	}
}

// buildAnalyzeSchema describes the full ATS report.
func buildAnalyzeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"overall_score":        {Type: genai.TypeInteger},
					"keyword_match_score":  {Type: genai.TypeInteger},
					"experience_relevance": {Type: genai.TypeInteger},
					"education_fit":        {Type: genai.TypeInteger},
					"skills_alignment":     {Type: genai.TypeInteger},
				},
				Required: []string{"overall_score", "keyword_match_score", "experience_relevance", "education_fit", "skills_alignment"},
			},
			"insights": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category":    {Type: genai.TypeString},
						"title":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"impact":      {Type: genai.TypeString},
					},
					Required: []string{"category", "title", "description", "impact"},
				},
			},
			"recommendations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"priority":    {Type: genai.TypeString},
						"effort":      {Type: genai.TypeString},
					},
					Required: []string{"title", "description", "priority", "effort"},
				},
			},
			"matched_keywords": stringArraySchema(),
			"missing_keywords": stringArraySchema(),
			"experience_gaps":  stringArraySchema(),
			"strengths":        stringArraySchema(),
		},
		Required: []string{"score", "insights", "recommendations", "matched_keywords", "missing_keywords", "experience_gaps", "strengths"},
	}
}

// buildOptimizeSchema pins the optimized value under the request's
// payload key so both gateway modes unwrap responses identically.
func buildOptimizeSchema(payloadKey string, valueSchema *genai.Schema) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"optimized_section": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					payloadKey: valueSchema,
				},
				Required: []string{payloadKey},
			},
			"explanation":  {Type: genai.TypeString},
			"changes_made": stringArraySchema(),
		},
		Required: []string{"optimized_section", "explanation", "changes_made"},
	}
}

// sectionValueSchema returns the value shape for one optimizable
// section. Item-scoped requests still send a one-element list, so list
// sections always use their array shape.
func sectionValueSchema(section string) *genai.Schema {
	switch section {
	case "summary":
		return &genai.Schema{Type: genai.TypeString}
	case "skills", "languages", "awards":
		return stringArraySchema()
	case "experience":
		return &genai.Schema{Type: genai.TypeArray, Items: experienceSchema()}
	case "education":
		return &genai.Schema{Type: genai.TypeArray, Items: educationSchema()}
	case "projects":
		return &genai.Schema{Type: genai.TypeArray, Items: projectSchema()}
	case "publications":
		return &genai.Schema{Type: genai.TypeArray, Items: publicationSchema()}
	case "certifications":
		return &genai.Schema{Type: genai.TypeArray, Items: certificationSchema()}
	case "volunteer_experience":
		return &genai.Schema{Type: genai.TypeArray, Items: volunteerSchema()}
	case "references":
		return &genai.Schema{Type: genai.TypeArray, Items: referenceSchema()}
	default:
		return stringArraySchema()
	}
}
