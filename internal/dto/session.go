// Package dto defines the request and response shapes of the HTTP surface.
package dto

import "github.com/clumsypasta/abans-form/internal/models"

// OpenSessionRequest starts or resumes a form session. An empty session id
// mints a new one; a known id resumes the live session or its saved draft.
type OpenSessionRequest struct {
	SessionID string `json:"session_id"`
}

// NavigateRequest jumps to a section by id.
type NavigateRequest struct {
	Section string `json:"section" binding:"required"`
}

// FieldPatch is a partial record update. Only non-nil fields are applied, so
// a patch carries exactly what the client edited.
type FieldPatch struct {
	FirstName         *string `json:"first_name"`
	MiddleName        *string `json:"middle_name"`
	LastName          *string `json:"last_name"`
	EmployeeCode      *string `json:"employee_code"`
	FatherHusbandName *string `json:"father_husband_name"`
	Department        *string `json:"department"`
	CompanyName       *string `json:"company_name"`
	DateOfJoining     *string `json:"date_of_joining"`
	PlaceLocation     *string `json:"place_location"`
	DateOfBirth       *string `json:"date_of_birth"`
	PresentAddress    *string `json:"present_address"`
	PermanentAddress  *string `json:"permanent_address"`
	PhoneResidence    *string `json:"phone_residence"`
	PhoneMobile       *string `json:"phone_mobile"`
	MaritalStatus     *string `json:"marital_status"`
	Nationality       *string `json:"nationality"`
	BloodGroup        *string `json:"blood_group"`
	PersonalEmail     *string `json:"personal_email"`
	UAN               *string `json:"uan"`
	LastPFNo          *string `json:"last_pf_no"`

	EmergencyContactName         *string `json:"emergency_contact_name"`
	EmergencyContactAddress      *string `json:"emergency_contact_address"`
	EmergencyContactRelationship *string `json:"emergency_contact_relationship"`
	EmergencyContactPhone        *string `json:"emergency_contact_phone"`

	NomineeName         *string `json:"nominee_name"`
	NomineeDOB          *string `json:"nominee_dob"`
	NomineeMobile       *string `json:"nominee_mobile"`
	NomineeRelationship *string `json:"nominee_relationship"`

	IsFresher         *bool `json:"is_fresher"`
	AgreementAccepted *bool `json:"agreement_accepted"`

	LanguagesKnown             *[]models.LanguageEntry             `json:"languages_known"`
	FamilyDependants           *[]models.Dependant                 `json:"family_dependants"`
	AcademicQualifications     *[]models.AcademicQualification     `json:"academic_qualifications"`
	ProfessionalQualifications *[]models.ProfessionalQualification `json:"professional_qualifications"`
	WorkExperience             *[]models.WorkExperience            `json:"work_experience"`
	References                 *[]models.Reference                 `json:"references"`
}

// SlotView is the client-facing state of one document slot.
type SlotView struct {
	Key      string   `json:"key"`
	Category string   `json:"category"`
	Multi    bool     `json:"multi"`
	Files    []string `json:"files"`
	Error    string   `json:"error,omitempty"`
}

// SessionResponse is the full rendering state of a form session.
type SessionResponse struct {
	SessionID    string                   `json:"session_id"`
	Phase        models.SessionPhase      `json:"phase"`
	SectionIndex int                      `json:"section_index"`
	Sections     []models.SectionState    `json:"sections"`
	Record       *models.Submission       `json:"record"`
	Slots        []SlotView               `json:"slots"`
	PhotoName    string                   `json:"photo_name,omitempty"`
	Notice       string                   `json:"notice,omitempty"`
	FieldErrors  map[string]string        `json:"field_errors,omitempty"`
	Result       *models.SubmissionResult `json:"result,omitempty"`
}
