package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// LanguageEntry is one row of the languages-known group.
type LanguageEntry struct {
	Language string `json:"language"`
	Read     bool   `json:"read"`
	Write    bool   `json:"write"`
	Speak    bool   `json:"speak"`
}

// Dependant is one row of the family-dependants group.
type Dependant struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Mobile       string `json:"mobile"`
	Occupation   string `json:"occupation"`
}

// AcademicQualification is one row of the academic group.
type AcademicQualification struct {
	Degree      string `json:"degree"`
	University  string `json:"university"`
	PassingYear string `json:"passing_year"`
	Percentage  string `json:"percentage"`
}

// ProfessionalQualification is one row of the professional group.
type ProfessionalQualification struct {
	Certification string `json:"certification"`
	Institute     string `json:"institute"`
	Year          string `json:"year"`
	Percentage    string `json:"percentage"`
}

// WorkExperience is one row of the employment-history group.
type WorkExperience struct {
	Organization string `json:"organization"`
	Type         string `json:"type"`
	Duration     string `json:"duration"`
	Designation  string `json:"designation"`
	JobProfile   string `json:"job_profile"`
}

// Reference is one professional reference entry.
type Reference struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Company     string `json:"company"`
	Address     string `json:"address"`
	ContactNo   string `json:"contact_no"`
	Email       string `json:"email"`
}

// Typed repeatable-group columns persisted as JSONB. Entry order is
// positional and preserved on edit and removal.
type (
	LanguageList     []LanguageEntry
	DependantList    []Dependant
	AcademicList     []AcademicQualification
	ProfessionalList []ProfessionalQualification
	ExperienceList   []WorkExperience
	ReferenceList    []Reference
)

func (l LanguageList) Value() (driver.Value, error)     { return jsonValue(l) }
func (l *LanguageList) Scan(src interface{}) error      { return jsonScan(l, src) }
func (l DependantList) Value() (driver.Value, error)    { return jsonValue(l) }
func (l *DependantList) Scan(src interface{}) error     { return jsonScan(l, src) }
func (l AcademicList) Value() (driver.Value, error)     { return jsonValue(l) }
func (l *AcademicList) Scan(src interface{}) error      { return jsonScan(l, src) }
func (l ProfessionalList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *ProfessionalList) Scan(src interface{}) error  { return jsonScan(l, src) }
func (l ExperienceList) Value() (driver.Value, error)   { return jsonValue(l) }
func (l *ExperienceList) Scan(src interface{}) error    { return jsonScan(l, src) }
func (l ReferenceList) Value() (driver.Value, error)    { return jsonValue(l) }
func (l *ReferenceList) Scan(src interface{}) error     { return jsonScan(l, src) }

func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal group column: %w", err)
	}
	return data, nil
}

func jsonScan(dst interface{}, src interface{}) error {
	if src == nil {
		return nil
	}
	switch raw := src.(type) {
	case []byte:
		return json.Unmarshal(raw, dst)
	case string:
		return json.Unmarshal([]byte(raw), dst)
	default:
		return fmt.Errorf("unsupported group column type %T", src)
	}
}

// Submission is the full onboarding form record. It starts empty at session
// creation, is mutated field-by-field while editing, and is frozen into a
// snapshot at submission time. Optional date fields are pointers so an empty
// value persists as NULL rather than an empty string.
type Submission struct {
	ID string `db:"id" json:"id,omitempty"`

	// Personal information.
	PhotoURL          string  `db:"photo_url" json:"photo_url,omitempty"`
	FirstName         string  `db:"first_name" json:"first_name"`
	MiddleName        string  `db:"middle_name" json:"middle_name"`
	LastName          string  `db:"last_name" json:"last_name"`
	EmployeeCode      string  `db:"employee_code" json:"employee_code"`
	FatherHusbandName string  `db:"father_husband_name" json:"father_husband_name"`
	Department        string  `db:"department" json:"department"`
	CompanyName       string  `db:"company_name" json:"company_name"`
	DateOfJoining     *string `db:"date_of_joining" json:"date_of_joining,omitempty"`
	PlaceLocation     string  `db:"place_location" json:"place_location"`
	DateOfBirth       *string `db:"date_of_birth" json:"date_of_birth,omitempty"`
	PresentAddress    string  `db:"present_address" json:"present_address"`
	PermanentAddress  string  `db:"permanent_address" json:"permanent_address"`
	PhoneResidence    string  `db:"phone_residence" json:"phone_residence"`
	PhoneMobile       string  `db:"phone_mobile" json:"phone_mobile"`
	MaritalStatus     string  `db:"marital_status" json:"marital_status"`
	Nationality       string  `db:"nationality" json:"nationality"`
	BloodGroup        string  `db:"blood_group" json:"blood_group"`
	PersonalEmail     string  `db:"personal_email" json:"personal_email"`
	UAN               string  `db:"uan" json:"uan"`
	LastPFNo          string  `db:"last_pf_no" json:"last_pf_no"`

	// Emergency contact.
	EmergencyContactName         string `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactAddress      string `db:"emergency_contact_address" json:"emergency_contact_address"`
	EmergencyContactRelationship string `db:"emergency_contact_relationship" json:"emergency_contact_relationship"`
	EmergencyContactPhone        string `db:"emergency_contact_phone" json:"emergency_contact_phone"`

	// Nominee details.
	NomineeName         string  `db:"nominee_name" json:"nominee_name"`
	NomineeDOB          *string `db:"nominee_dob" json:"nominee_dob,omitempty"`
	NomineeMobile       string  `db:"nominee_mobile" json:"nominee_mobile"`
	NomineeRelationship string  `db:"nominee_relationship" json:"nominee_relationship"`

	// Repeatable groups.
	LanguagesKnown             LanguageList     `db:"languages_known" json:"languages_known"`
	FamilyDependants           DependantList    `db:"family_dependants" json:"family_dependants"`
	AcademicQualifications     AcademicList     `db:"academic_qualifications" json:"academic_qualifications"`
	ProfessionalQualifications ProfessionalList `db:"professional_qualifications" json:"professional_qualifications"`
	IsFresher                  bool             `db:"is_fresher" json:"is_fresher"`
	WorkExperienceEntries      ExperienceList   `db:"work_experience" json:"work_experience"`
	References                 ReferenceList    `db:"references" json:"references"`

	// Declaration.
	AgreementAccepted bool `db:"agreement_accepted" json:"agreement_accepted"`

	// Document URLs filled by the submission pipeline.
	AadharURL              string `db:"aadhar_url" json:"aadhar_url,omitempty"`
	PanURL                 string `db:"pan_url" json:"pan_url,omitempty"`
	SSCMarksheetURL        string `db:"ssc_marksheet_url" json:"ssc_marksheet_url,omitempty"`
	SSCPassingURL          string `db:"ssc_passing_url" json:"ssc_passing_url,omitempty"`
	HSCMarksheetURL        string `db:"hsc_marksheet_url" json:"hsc_marksheet_url,omitempty"`
	HSCPassingURL          string `db:"hsc_passing_url" json:"hsc_passing_url,omitempty"`
	GraduationMarksheetURL string `db:"graduation_marksheet_url" json:"graduation_marksheet_url,omitempty"`
	GraduationPassingURL   string `db:"graduation_passing_url" json:"graduation_passing_url,omitempty"`
	PostgradMarksheetURL   string `db:"postgrad_marksheet_url" json:"postgrad_marksheet_url,omitempty"`
	PostgradPassingURL     string `db:"postgrad_passing_url" json:"postgrad_passing_url,omitempty"`
	IncrementLetterURL     string `db:"increment_letter_url" json:"increment_letter_url,omitempty"`
	OfferLetterURL         string `db:"offer_letter_url" json:"offer_letter_url,omitempty"`
	RelievingLetterURL     string `db:"relieving_letter_url" json:"relieving_letter_url,omitempty"`
	SalarySlipsURLs        string `db:"salary_slips_urls" json:"salary_slips_urls,omitempty"`

	SectionsCompleted pq.StringArray `db:"sections_completed" json:"sections_completed"`
	PDFURL            *string        `db:"pdf_url" json:"pdf_url,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at,omitempty"`
}

// NewSubmission returns an empty record seeded with the same starter rows the
// form presents: one blank entry per repeatable group and two blank
// references.
func NewSubmission() *Submission {
	return &Submission{
		CompanyName:                "ABANS Group",
		LanguagesKnown:             LanguageList{{}},
		FamilyDependants:           DependantList{{}},
		AcademicQualifications:     AcademicList{{}},
		ProfessionalQualifications: ProfessionalList{{}},
		WorkExperienceEntries:      ExperienceList{},
		References:                 ReferenceList{{}, {}},
		SectionsCompleted:          pq.StringArray{},
	}
}

// Clone returns a deep copy, used to freeze a snapshot at submission time
// and for draft writes that must not alias live session state.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	clone := *s
	clone.DateOfJoining = cloneStringPtr(s.DateOfJoining)
	clone.DateOfBirth = cloneStringPtr(s.DateOfBirth)
	clone.NomineeDOB = cloneStringPtr(s.NomineeDOB)
	clone.PDFURL = cloneStringPtr(s.PDFURL)
	clone.LanguagesKnown = append(LanguageList{}, s.LanguagesKnown...)
	clone.FamilyDependants = append(DependantList{}, s.FamilyDependants...)
	clone.AcademicQualifications = append(AcademicList{}, s.AcademicQualifications...)
	clone.ProfessionalQualifications = append(ProfessionalList{}, s.ProfessionalQualifications...)
	clone.WorkExperienceEntries = append(ExperienceList{}, s.WorkExperienceEntries...)
	clone.References = append(ReferenceList{}, s.References...)
	clone.SectionsCompleted = append(pq.StringArray{}, s.SectionsCompleted...)
	return &clone
}

// FullName joins the populated name parts.
func (s *Submission) FullName() string {
	name := s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	if s.LastName != "" {
		name += " " + s.LastName
	}
	return name
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
