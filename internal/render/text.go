// Package render turns a resume document into its flat text export.
// Rendering is pure: the same document always yields the same output,
// and nothing here mutates the document.
package render

import (
	"fmt"
	"strings"

	"resumelift/internal/types"
)

// Text renders the document as a flat export string with a fixed
// section ordering. Empty sections are skipped entirely; optional
// record fields are omitted rather than rendered blank.
func Text(doc *types.ResumeDocument) string {
	var b strings.Builder

	writeContact(&b, doc)
	writeScalarSection(&b, "SUMMARY", doc.Summary)
	writeInlineList(&b, "SKILLS", doc.Skills, ", ")
	writeExperience(&b, doc.Experience)
	writeEducation(&b, doc.Education)

	matched := writeProjects(&b, doc)
	writePublications(&b, doc.Publications, matched)

	writeCertifications(&b, doc.Certifications)
	writeVolunteer(&b, doc.VolunteerExperience)
	writeBulletList(&b, "AWARDS", doc.Awards)
	writeInlineList(&b, "LANGUAGES", doc.Languages, ", ")
	writeReferences(&b, doc.References)

	return strings.TrimRight(b.String(), "\n")
}

// ExportFilename builds the download name for an exported resume:
// the document name with spaces replaced by underscores, suffixed
// "_resume", plus the extension.
func ExportFilename(doc *types.ResumeDocument, ext string) string {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return "resume." + ext
	}
	return strings.ReplaceAll(name, " ", "_") + "_resume." + ext
}

func writeHeader(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteString("\n")
}

func writeContact(b *strings.Builder, doc *types.ResumeDocument) {
	if name := strings.TrimSpace(doc.Name); name != "" {
		b.WriteString(strings.ToUpper(name))
		b.WriteString("\n")
	}
	primary := joinNonEmpty(" | ", doc.Email, doc.Phone, doc.Location)
	if primary != "" {
		b.WriteString(primary)
		b.WriteString("\n")
	}
	profiles := joinNonEmpty(" | ",
		labeled("LinkedIn", doc.LinkedIn),
		labeled("GitHub", doc.GitHub),
		labeled("Website", doc.Website))
	if profiles != "" {
		b.WriteString(profiles)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
}

func writeScalarSection(b *strings.Builder, title, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	writeHeader(b, title)
	b.WriteString(value)
	b.WriteString("\n\n")
}

func writeInlineList(b *strings.Builder, title string, items []string, sep string) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, title)
	b.WriteString(strings.Join(items, sep))
	b.WriteString("\n\n")
}

func writeBulletList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeExperience(b *strings.Builder, items []types.Experience) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, "EXPERIENCE")
	for _, e := range items {
		b.WriteString(joinNonEmpty(" | ", e.Position, e.Company, e.Duration))
		b.WriteString("\n")
		for _, line := range e.Description {
			fmt.Fprintf(b, "- %s\n", line)
		}
	}
	b.WriteString("\n")
}

func writeEducation(b *strings.Builder, items []types.Education) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, "EDUCATION")
	for _, e := range items {
		line := joinNonEmpty(", ", e.Degree, e.Institution)
		if e.Year != "" {
			line = joinNonEmpty(" ", line, "("+e.Year+")")
		}
		b.WriteString(line)
		b.WriteString("\n")
		if e.GPA != "" {
			fmt.Fprintf(b, "GPA: %s\n", e.GPA)
		}
		if e.Coursework != "" {
			fmt.Fprintf(b, "Coursework: %s\n", e.Coursework)
		}
	}
	b.WriteString("\n")
}

// writeProjects renders the projects section with any publication whose
// title matches a project name (case-insensitively) attached to that
// project. It returns the set of matched publication indices so the
// standalone publications block can skip them.
func writeProjects(b *strings.Builder, doc *types.ResumeDocument) map[int]bool {
	matched := make(map[int]bool)
	if len(doc.Projects) == 0 {
		return matched
	}
	writeHeader(b, "PROJECTS")
	for _, p := range doc.Projects {
		b.WriteString(joinNonEmpty(" | ", p.Name, p.Technologies, p.Duration))
		b.WriteString("\n")
		for _, line := range p.Description {
			fmt.Fprintf(b, "- %s\n", line)
		}
		if p.URL != "" {
			fmt.Fprintf(b, "URL: %s\n", p.URL)
		}
		for i, pub := range doc.Publications {
			if strings.EqualFold(pub.Title, p.Name) {
				matched[i] = true
				fmt.Fprintf(b, "Publication: %s\n", publicationLine(pub))
			}
		}
	}
	b.WriteString("\n")
	return matched
}

func writePublications(b *strings.Builder, items []types.Publication, matched map[int]bool) {
	var standalone []types.Publication
	for i, p := range items {
		if !matched[i] {
			standalone = append(standalone, p)
		}
	}
	if len(standalone) == 0 {
		return
	}
	writeHeader(b, "PUBLICATIONS")
	for _, p := range standalone {
		b.WriteString(publicationLine(p))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func publicationLine(p types.Publication) string {
	line := joinNonEmpty(", ", p.Title, p.Journal)
	if p.Year != "" {
		line = joinNonEmpty(" ", line, "("+p.Year+")")
	}
	return joinNonEmpty(". ", line, p.Authors, p.URL)
}

func writeCertifications(b *strings.Builder, items []types.Certification) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, "CERTIFICATIONS")
	for _, c := range items {
		line := joinNonEmpty(", ", c.Name, c.Issuer)
		if c.Year != "" {
			line = joinNonEmpty(" ", line, "("+c.Year+")")
		}
		if c.Expiry != "" {
			line += ", expires " + c.Expiry
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeVolunteer(b *strings.Builder, items []types.VolunteerExperience) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, "VOLUNTEER EXPERIENCE")
	for _, v := range items {
		b.WriteString(joinNonEmpty(" | ", v.Position, v.Organization, v.Duration))
		b.WriteString("\n")
		for _, line := range v.Description {
			fmt.Fprintf(b, "- %s\n", line)
		}
	}
	b.WriteString("\n")
}

func writeReferences(b *strings.Builder, items []types.Reference) {
	if len(items) == 0 {
		return
	}
	writeHeader(b, "REFERENCES")
	for _, r := range items {
		b.WriteString(joinNonEmpty(", ", r.Name, r.Title, r.Company))
		if r.Contact != "" {
			b.WriteString(". " + r.Contact)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func labeled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
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
