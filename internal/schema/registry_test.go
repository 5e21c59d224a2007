package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
)

func validStrictRecord() *models.Submission {
	s := models.NewSubmission()
	s.FirstName = "Asha"
	s.LastName = "Verma"
	s.FatherHusbandName = "R Verma"
	dob := "1998-04-12"
	s.DateOfBirth = &dob
	s.PresentAddress = "12 Marine Drive, Mumbai"
	s.PermanentAddress = "12 Marine Drive, Mumbai"
	s.PhoneMobile = "9876543210"
	s.PersonalEmail = "asha.verma@example.com"
	s.References = models.ReferenceList{
		{Name: "M Iyer", Designation: "Manager", Company: "Acme", Address: "Pune", ContactNo: "9812345678", Email: "m.iyer@example.com"},
		{Name: "K Rao", Designation: "Lead", Company: "Initech", Address: "Delhi", ContactNo: "9811111111", Email: "k.rao@example.com"},
	}
	s.AgreementAccepted = true
	return s
}

func TestLenientOnlyRequiresAgreement(t *testing.T) {
	r := New(config.VariantLenient)
	record := models.NewSubmission()

	errs := r.Validate(record)
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "agreement_accepted")

	record.AgreementAccepted = true
	assert.Empty(t, r.Validate(record))
}

func TestStrictValidRecordPasses(t *testing.T) {
	r := New(config.VariantStrict)
	assert.Empty(t, r.Validate(validStrictRecord()))
}

func TestStrictRequiredFields(t *testing.T) {
	r := New(config.VariantStrict)
	record := validStrictRecord()
	record.FirstName = "   "

	errs := r.Validate(record)
	require.Contains(t, errs, "first_name")
}

func TestStrictMobilePattern(t *testing.T) {
	r := New(config.VariantStrict)
	record := validStrictRecord()

	record.PhoneMobile = "12345"
	errs := r.Validate(record)
	assert.Contains(t, errs, "phone_mobile")

	record.PhoneMobile = "98765432101"
	errs = r.Validate(record)
	assert.Contains(t, errs, "phone_mobile")

	record.PhoneMobile = "9876543210"
	assert.NotContains(t, r.Validate(record), "phone_mobile")
}

func TestStrictEmailPattern(t *testing.T) {
	r := New(config.VariantStrict)
	record := validStrictRecord()
	record.PersonalEmail = "not-an-email"

	errs := r.Validate(record)
	assert.Contains(t, errs, "personal_email")
}

func TestStrictReferenceCount(t *testing.T) {
	r := New(config.VariantStrict)
	record := validStrictRecord()
	record.References[1].Email = ""

	errs := r.Validate(record)
	assert.Contains(t, errs, "references")
}

func TestOptionalPatternSkipsEmpty(t *testing.T) {
	r := New(config.VariantStrict)
	record := validStrictRecord()
	record.PhoneResidence = ""
	assert.NotContains(t, r.Validate(record), "phone_residence")

	record.PhoneResidence = "abc"
	assert.Contains(t, r.Validate(record), "phone_residence")
}

func TestSectionScopedValidation(t *testing.T) {
	r := New(config.VariantStrict)
	record := models.NewSubmission()

	// Only the named fields are checked; unknown names are ignored.
	errs := r.Validate(record, "phone_mobile", "no_such_field")
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "phone_mobile")
}

func TestValidateIsPure(t *testing.T) {
	r := New(config.VariantStrict)
	record := validStrictRecord()

	first := r.Validate(record)
	second := r.Validate(record)
	assert.Equal(t, first, second)
}
