package resume

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

// Section names one top-level field of the resume document. The
// "contact" pseudo-section bundles the seven scalar contact fields.
type Section string

const (
	SectionContact             Section = "contact"
	SectionSummary             Section = "summary"
	SectionExperience          Section = "experience"
	SectionEducation           Section = "education"
	SectionSkills              Section = "skills"
	SectionPublications        Section = "publications"
	SectionProjects            Section = "projects"
	SectionCertifications      Section = "certifications"
	SectionLanguages           Section = "languages"
	SectionVolunteerExperience Section = "volunteer_experience"
	SectionAwards              Section = "awards"
	SectionReferences          Section = "references"
)

// sectionOps bundles everything section-specific. All per-section
// behavior lives in the registry below; callers never branch on
// section names.
type sectionOps struct {
	payloadKey string // key in section_data / optimized_section, "" = not optimizable
	list       bool

	value     func(d *types.ResumeDocument) any
	apply     func(d *types.ResumeDocument, v any) error
	length    func(d *types.ResumeDocument) int
	item      func(d *types.ResumeDocument, i int) any
	applyItem func(d *types.ResumeDocument, i int, v any) error

	editSeed  func(d *types.ResumeDocument) any
	normalize func(draft any) (any, error)

	decode   func(raw json.RawMessage) (any, error)
	first    func(v any) (any, error)
	wrapItem func(v any) any
}

func typeMismatch(section Section, got any) error {
	return errors.NewValidationError(errors.ErrCodeTypeMismatch,
		fmt.Sprintf("unexpected value type %T for section %s", got, section), nil)
}

// SplitList splits comma-joined input, trimming entries and dropping
// empty ones.
func SplitList(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resplitLines re-splits every line that still contains embedded
// newlines, dropping empties. Edit drafts may carry descriptions as a
// single joined string; stored documents never do.
func resplitLines(l types.Lines) types.Lines {
	var out types.Lines
	for _, line := range l {
		out = append(out, types.SplitLines(line)...)
	}
	return out
}

// stringListOps builds the ops for a []string section whose edit form
// is a single joined text field.
func stringListOps(section Section, sep, joinSep string, slot func(d *types.ResumeDocument) *[]string) *sectionOps {
	split := func(text string) []string {
		if sep == "\n" {
			return types.SplitLines(text)
		}
		return SplitList(text)
	}
	return &sectionOps{
		payloadKey: string(section),
		list:       true,
		value:      func(d *types.ResumeDocument) any { return *slot(d) },
		apply: func(d *types.ResumeDocument, v any) error {
			items, ok := v.([]string)
			if !ok {
				return typeMismatch(section, v)
			}
			*slot(d) = items
			return nil
		},
		length: func(d *types.ResumeDocument) int { return len(*slot(d)) },
		item:   func(d *types.ResumeDocument, i int) any { return (*slot(d))[i] },
		applyItem: func(d *types.ResumeDocument, i int, v any) error {
			s, ok := v.(string)
			if !ok {
				return typeMismatch(section, v)
			}
			(*slot(d))[i] = s
			return nil
		},
		editSeed: func(d *types.ResumeDocument) any { return strings.Join(*slot(d), joinSep) },
		normalize: func(draft any) (any, error) {
			switch v := draft.(type) {
			case string:
				return split(v), nil
			case []string:
				return v, nil
			default:
				return nil, typeMismatch(section, draft)
			}
		},
		decode: func(raw json.RawMessage) (any, error) {
			var items []string
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			return items, nil
		},
		first: func(v any) (any, error) {
			items, ok := v.([]string)
			if !ok || len(items) == 0 {
				return nil, typeMismatch(section, v)
			}
			return items[0], nil
		},
		wrapItem: func(v any) any { return []any{v} },
	}
}

// recordListOps builds the ops for a list-of-record section.
// normalizeRecord is applied to each record on save and on unwrap; it
// re-splits description fields that arrive in joined-string form.
func recordListOps[T any](section Section, slot func(d *types.ResumeDocument) *[]T, normalizeRecord func(T) T) *sectionOps {
	normalizeAll := func(items []T) []T {
		out := make([]T, len(items))
		for i, rec := range items {
			out[i] = normalizeRecord(rec)
		}
		return out
	}
	return &sectionOps{
		payloadKey: string(section),
		list:       true,
		value:      func(d *types.ResumeDocument) any { return *slot(d) },
		apply: func(d *types.ResumeDocument, v any) error {
			items, ok := v.([]T)
			if !ok {
				return typeMismatch(section, v)
			}
			*slot(d) = items
			return nil
		},
		length: func(d *types.ResumeDocument) int { return len(*slot(d)) },
		item:   func(d *types.ResumeDocument, i int) any { return (*slot(d))[i] },
		applyItem: func(d *types.ResumeDocument, i int, v any) error {
			rec, ok := v.(T)
			if !ok {
				return typeMismatch(section, v)
			}
			(*slot(d))[i] = rec
			return nil
		},
		editSeed: func(d *types.ResumeDocument) any { return *slot(d) },
		normalize: func(draft any) (any, error) {
			items, ok := draft.([]T)
			if !ok {
				return nil, typeMismatch(section, draft)
			}
			return normalizeAll(items), nil
		},
		decode: func(raw json.RawMessage) (any, error) {
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			return normalizeAll(items), nil
		},
		first: func(v any) (any, error) {
			items, ok := v.([]T)
			if !ok || len(items) == 0 {
				return nil, typeMismatch(section, v)
			}
			return items[0], nil
		},
		wrapItem: func(v any) any { return []any{v} },
	}
}

var registry = map[Section]*sectionOps{
	SectionSummary: {
		payloadKey: "content",
		value:      func(d *types.ResumeDocument) any { return d.Summary },
		apply: func(d *types.ResumeDocument, v any) error {
			s, ok := v.(string)
			if !ok {
				return typeMismatch(SectionSummary, v)
			}
			d.Summary = s
			return nil
		},
		editSeed: func(d *types.ResumeDocument) any { return d.Summary },
		// Scalar text is stored verbatim; splitting rules only apply to
		// list sections.
		normalize: func(draft any) (any, error) {
			s, ok := draft.(string)
			if !ok {
				return nil, typeMismatch(SectionSummary, draft)
			}
			return s, nil
		},
		decode: func(raw json.RawMessage) (any, error) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, err
			}
			return s, nil
		},
	},
	SectionContact: {
		value: func(d *types.ResumeDocument) any { return d.Contact() },
		apply: func(d *types.ResumeDocument, v any) error {
			c, ok := v.(types.Contact)
			if !ok {
				return typeMismatch(SectionContact, v)
			}
			d.SetContact(c)
			return nil
		},
		editSeed: func(d *types.ResumeDocument) any { return d.Contact() },
		normalize: func(draft any) (any, error) {
			c, ok := draft.(types.Contact)
			if !ok {
				return nil, typeMismatch(SectionContact, draft)
			}
			return c, nil
		},
	},
	SectionSkills:    stringListOps(SectionSkills, ",", ", ", func(d *types.ResumeDocument) *[]string { return &d.Skills }),
	SectionLanguages: stringListOps(SectionLanguages, ",", ", ", func(d *types.ResumeDocument) *[]string { return &d.Languages }),
	SectionAwards:    stringListOps(SectionAwards, "\n", "\n", func(d *types.ResumeDocument) *[]string { return &d.Awards }),
	SectionExperience: recordListOps(SectionExperience,
		func(d *types.ResumeDocument) *[]types.Experience { return &d.Experience },
		func(e types.Experience) types.Experience {
			e.Description = resplitLines(e.Description)
			return e
		}),
	SectionEducation: recordListOps(SectionEducation,
		func(d *types.ResumeDocument) *[]types.Education { return &d.Education },
		func(e types.Education) types.Education { return e }),
	SectionPublications: recordListOps(SectionPublications,
		func(d *types.ResumeDocument) *[]types.Publication { return &d.Publications },
		func(p types.Publication) types.Publication { return p }),
	SectionProjects: recordListOps(SectionProjects,
		func(d *types.ResumeDocument) *[]types.Project { return &d.Projects },
		func(p types.Project) types.Project {
			p.Description = resplitLines(p.Description)
			return p
		}),
	SectionCertifications: recordListOps(SectionCertifications,
		func(d *types.ResumeDocument) *[]types.Certification { return &d.Certifications },
		func(c types.Certification) types.Certification { return c }),
	SectionVolunteerExperience: recordListOps(SectionVolunteerExperience,
		func(d *types.ResumeDocument) *[]types.VolunteerExperience { return &d.VolunteerExperience },
		func(v types.VolunteerExperience) types.VolunteerExperience {
			v.Description = resplitLines(v.Description)
			return v
		}),
	SectionReferences: recordListOps(SectionReferences,
		func(d *types.ResumeDocument) *[]types.Reference { return &d.References },
		func(r types.Reference) types.Reference { return r }),
}

// sectionOrder is the stable iteration order for Sections.
var sectionOrder = []Section{
	SectionContact,
	SectionSummary,
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionProjects,
	SectionPublications,
	SectionCertifications,
	SectionVolunteerExperience,
	SectionAwards,
	SectionLanguages,
	SectionReferences,
}

// Sections returns all known section names in a stable order.
func Sections() []Section {
	out := make([]Section, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

func lookup(section Section) (*sectionOps, error) {
	ops, ok := registry[section]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeUnknownSection,
			fmt.Sprintf("unknown section: %s", section), nil)
	}
	return ops, nil
}

// Known reports whether section names a registered section.
func Known(section Section) bool {
	_, ok := registry[section]
	return ok
}

// IsList reports whether section holds an ordered list of elements.
func IsList(section Section) bool {
	ops, ok := registry[section]
	return ok && ops.list
}

// Optimizable reports whether section can be sent to the optimize
// endpoint. The contact pseudo-section cannot.
func Optimizable(section Section) bool {
	ops, ok := registry[section]
	return ok && ops.payloadKey != ""
}

// PayloadKey returns the section-specific key used in optimize request
// and response payloads.
func PayloadKey(section Section) string {
	if ops, ok := registry[section]; ok {
		return ops.payloadKey
	}
	return ""
}

// EditSeed returns the editable representation of the section's current
// value: joined text for string-list sections, the record slice for
// list-of-record sections, the contact bundle for contact.
func EditSeed(d *types.ResumeDocument, section Section) (any, error) {
	ops, err := lookup(section)
	if err != nil {
		return nil, err
	}
	return ops.editSeed(d), nil
}

// Normalize converts an edit draft into the section's stored value,
// applying the per-section splitting rules.
func Normalize(section Section, draft any) (any, error) {
	ops, err := lookup(section)
	if err != nil {
		return nil, err
	}
	return ops.normalize(draft)
}

// DecodeDraft converts a raw JSON edit draft into the section's draft
// type: a string for joined edit forms, the record slice for list
// sections, the contact bundle for contact. The result still goes
// through Normalize on save.
func DecodeDraft(section Section, raw json.RawMessage) (any, error) {
	ops, err := lookup(section)
	if err != nil {
		return nil, err
	}
	if section == SectionContact {
		var c types.Contact
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				"contact draft is not a contact object", err)
		}
		return c, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	if ops.decode == nil {
		return nil, typeMismatch(section, raw)
	}
	value, err := ops.decode(raw)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("draft has unexpected shape for section %s", section), err)
	}
	return value, nil
}

func checkTarget(ops *sectionOps, section Section, target Target, d *types.ResumeDocument) error {
	if !target.IsItem() {
		return nil
	}
	if !ops.list {
		return errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("section %s does not support item targets", section), nil)
	}
	if i := target.Index(); i < 0 || i >= ops.length(d) {
		return errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("item index %d out of range for section %s", i, section), nil).
			WithContext("length", ops.length(d))
	}
	return nil
}

// OptimizePayload builds the section_data payload for an optimize call:
// the whole section value, or the addressed element wrapped in a
// one-element list.
func OptimizePayload(d *types.ResumeDocument, section Section, target Target) (map[string]json.RawMessage, error) {
	ops, err := lookup(section)
	if err != nil {
		return nil, err
	}
	if ops.payloadKey == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("section %s cannot be optimized", section), nil)
	}
	if err := checkTarget(ops, section, target, d); err != nil {
		return nil, err
	}

	var value any
	if target.IsItem() {
		value = ops.wrapItem(ops.item(d, target.Index()))
	} else {
		value = ops.value(d)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("failed to encode section %s", section), err)
	}
	return map[string]json.RawMessage{ops.payloadKey: raw}, nil
}

// UnwrapOptimized extracts the optimized value for section/target from
// a response payload. It prefers the section-specific key; when that
// key is absent it falls back to the only value present, and finally to
// the payload object itself.
func UnwrapOptimized(section Section, target Target, payload map[string]json.RawMessage) (any, error) {
	ops, err := lookup(section)
	if err != nil {
		return nil, err
	}
	if ops.decode == nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("section %s cannot be optimized", section), nil)
	}

	raw, ok := payload[ops.payloadKey]
	if !ok && len(payload) == 1 {
		for _, only := range payload {
			raw = only
			ok = true
		}
	}
	if !ok {
		whole, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewGatewayError(errors.ErrCodeInvalidFormat,
				"unreadable optimize response payload", err)
		}
		raw = whole
	}

	value, err := ops.decode(raw)
	if err != nil {
		return nil, errors.NewGatewayError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("optimize response for section %s has unexpected shape", section), err)
	}
	if target.IsItem() {
		return ops.first(value)
	}
	return value, nil
}
