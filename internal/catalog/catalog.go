// Package catalog defines the ordered wizard sections and which record
// fields each one owns. The catalog never gates navigation; gating is the
// session state machine's job.
package catalog

import "github.com/clumsypasta/abans-form/internal/models"

// Section ids in wizard order.
const (
	SectionPersonal     = "personal"
	SectionLanguages    = "languages"
	SectionFamily       = "family"
	SectionAcademic     = "academic"
	SectionProfessional = "professional"
	SectionWork         = "work"
	SectionDocuments    = "documents"
	SectionReference    = "reference"
)

var sections = []models.Section{
	{
		ID:          SectionPersonal,
		Title:       "Personal Details",
		Description: "Basic personal details",
		Fields: []string{
			"first_name", "middle_name", "last_name", "employee_code",
			"father_husband_name", "department", "company_name",
			"date_of_joining", "place_location", "date_of_birth",
			"present_address", "permanent_address", "phone_residence",
			"phone_mobile", "marital_status", "nationality", "blood_group",
			"personal_email", "uan", "last_pf_no",
			"emergency_contact_name", "emergency_contact_address",
			"emergency_contact_relationship", "emergency_contact_phone",
		},
	},
	{
		ID:          SectionLanguages,
		Title:       "Languages Known",
		Description: "Language proficiency",
		Fields:      []string{"languages_known"},
	},
	{
		ID:          SectionFamily,
		Title:       "Family Details",
		Description: "Family members and dependants",
		Fields:      []string{"family_dependants"},
	},
	{
		ID:          SectionAcademic,
		Title:       "Academic Qualifications",
		Description: "Educational background",
		Fields:      []string{"academic_qualifications"},
	},
	{
		ID:          SectionProfessional,
		Title:       "Professional Qualifications",
		Description: "Certifications and training",
		Fields:      []string{"professional_qualifications"},
	},
	{
		ID:          SectionWork,
		Title:       "Work Experience",
		Description: "Employment history and nominee details",
		Fields: []string{
			"is_fresher", "work_experience",
			"nominee_name", "nominee_dob", "nominee_mobile", "nominee_relationship",
		},
	},
	{
		ID:          SectionDocuments,
		Title:       "Document Upload",
		Description: "Upload required documents (KYC, Education, Employment)",
	},
	{
		ID:          SectionReference,
		Title:       "References",
		Description: "Professional references (2 required)",
		Fields:      []string{"references", "agreement_accepted"},
	},
}

// Catalog is the ordered, immutable sequence of wizard sections.
type Catalog struct {
	sections []models.Section
	byID     map[string]int
}

// New returns the standard onboarding catalog.
func New() *Catalog {
	byID := make(map[string]int, len(sections))
	for i, s := range sections {
		byID[s.ID] = i
	}
	return &Catalog{sections: sections, byID: byID}
}

// Len returns the number of sections.
func (c *Catalog) Len() int {
	return len(c.sections)
}

// At returns the section at a clamped index.
func (c *Catalog) At(i int) models.Section {
	return c.sections[c.Clamp(i)]
}

// Sections returns all sections in wizard order.
func (c *Catalog) Sections() []models.Section {
	return c.sections
}

// IndexOf resolves a section id to its position, -1 when unknown.
func (c *Catalog) IndexOf(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Next advances one section, clamped to the last.
func (c *Catalog) Next(i int) int {
	return c.Clamp(i + 1)
}

// Prev steps back one section, clamped to the first.
func (c *Catalog) Prev(i int) int {
	return c.Clamp(i - 1)
}

// Clamp bounds any requested index to the catalog range. Free jumps are
// intentional; required-field gating happens elsewhere.
func (c *Catalog) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(c.sections) {
		return len(c.sections) - 1
	}
	return i
}

// Last reports whether the index is the final section.
func (c *Catalog) Last(i int) bool {
	return c.Clamp(i) == len(c.sections)-1
}
