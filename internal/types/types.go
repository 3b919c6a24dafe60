package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Lines is an ordered sequence of text lines. It accepts either a JSON
// array of strings or a single string (split on newlines, empty lines
// dropped) and always marshals as an array.
type Lines []string

func (l *Lines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SplitLines(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// SplitLines splits text on newlines, trimming each line and dropping
// empty ones.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Experience represents one work history entry
type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Duration    string `json:"duration"`
	Description Lines  `json:"description"`
}

// Education represents one education entry
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year"`
	GPA         string `json:"gpa,omitempty"`
	Coursework  string `json:"coursework,omitempty"`
}

// Publication represents one publication entry
type Publication struct {
	Title   string `json:"title"`
	Journal string `json:"journal"`
	Year    string `json:"year"`
	Authors string `json:"authors"`
	URL     string `json:"url,omitempty"`
}

// Project represents one project entry
type Project struct {
	Name         string `json:"name"`
	Description  Lines  `json:"description"`
	Technologies string `json:"technologies"`
	URL          string `json:"url,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// Certification represents one certification entry
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Year   string `json:"year"`
	Expiry string `json:"expiry,omitempty"`
}

// VolunteerExperience represents one volunteer work entry
type VolunteerExperience struct {
	Position     string `json:"position"`
	Organization string `json:"organization"`
	Duration     string `json:"duration"`
	Description  Lines  `json:"description"`
}

// Reference represents one professional reference
type Reference struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Contact string `json:"contact"`
}

// ResumeDocument is the canonical structured resume. Missing scalar
// fields decode as empty strings; missing collections decode as nil
// slices, both of which are valid.
type ResumeDocument struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin_profile"`
	GitHub   string `json:"github_profile"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`

	Experience          []Experience          `json:"experience"`
	Education           []Education           `json:"education"`
	Skills              []string              `json:"skills"`
	Publications        []Publication         `json:"publications"`
	Projects            []Project             `json:"projects"`
	Certifications      []Certification       `json:"certifications"`
	Languages           []string              `json:"languages"`
	VolunteerExperience []VolunteerExperience `json:"volunteer_experience"`
	Awards              []string              `json:"awards"`
	References          []Reference           `json:"references"`
}

// Contact bundles the seven top-level scalar contact fields for the
// contact pseudo-section editor.
type Contact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin_profile"`
	GitHub   string `json:"github_profile"`
	Website  string `json:"website"`
}

// Contact extracts the contact pseudo-section from the document.
func (d *ResumeDocument) Contact() Contact {
	return Contact{
		Name:     d.Name,
		Email:    d.Email,
		Phone:    d.Phone,
		Location: d.Location,
		LinkedIn: d.LinkedIn,
		GitHub:   d.GitHub,
		Website:  d.Website,
	}
}

// SetContact distributes the contact bundle back onto the top-level
// scalar fields.
func (d *ResumeDocument) SetContact(c Contact) {
	d.Name = c.Name
	d.Email = c.Email
	d.Phone = c.Phone
	d.Location = c.Location
	d.LinkedIn = c.LinkedIn
	d.GitHub = c.GitHub
	d.Website = c.Website
}

// Clone returns a structurally independent deep copy of the document.
func (d *ResumeDocument) Clone() *ResumeDocument {
	if d == nil {
		return nil
	}
	out := *d

	out.Experience = make([]Experience, len(d.Experience))
	for i, e := range d.Experience {
		e.Description = append(Lines(nil), e.Description...)
		out.Experience[i] = e
	}
	out.Education = append([]Education(nil), d.Education...)
	out.Skills = append([]string(nil), d.Skills...)
	out.Publications = append([]Publication(nil), d.Publications...)
	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.Description = append(Lines(nil), p.Description...)
		out.Projects[i] = p
	}
	out.Certifications = append([]Certification(nil), d.Certifications...)
	out.Languages = append([]string(nil), d.Languages...)
	out.VolunteerExperience = make([]VolunteerExperience, len(d.VolunteerExperience))
	for i, v := range d.VolunteerExperience {
		v.Description = append(Lines(nil), v.Description...)
		out.VolunteerExperience[i] = v
	}
	out.Awards = append([]string(nil), d.Awards...)
	out.References = append([]Reference(nil), d.References...)

	return &out
}
