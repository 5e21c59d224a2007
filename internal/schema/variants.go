package schema

import "github.com/clumsypasta/abans-form/internal/models"

// lenientSpecs is the deployed default: everything optional except the
// declaration agreement.
func lenientSpecs() []FieldSpec {
	return []FieldSpec{
		{
			Name: "agreement_accepted",
			Checks: []Check{
				mustBeTrue(func(s *models.Submission) bool { return s.AgreementAccepted },
					"You must accept the declaration to submit"),
			},
		},
	}
}

// strictSpecs is the earlier, fully-gated rule set: required identity
// fields, exact 10-digit phone numbers, email format, two fully populated
// references, and the declaration agreement.
func strictSpecs() []FieldSpec {
	return []FieldSpec{
		{
			Name: "first_name",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.FirstName }, "First name is required"),
			},
		},
		{
			Name: "last_name",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.LastName }, "Last name is required"),
			},
		},
		{
			Name: "father_husband_name",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.FatherHusbandName }, "Father/Husband name is required"),
			},
		},
		{
			Name: "date_of_birth",
			Checks: []Check{
				required(func(s *models.Submission) string { return deref(s.DateOfBirth) }, "Date of birth is required"),
			},
		},
		{
			Name: "present_address",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.PresentAddress }, "Present address is required"),
			},
		},
		{
			Name: "permanent_address",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.PermanentAddress }, "Permanent address is required"),
			},
		},
		{
			Name: "phone_mobile",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.PhoneMobile }, "Mobile number is required"),
				pattern(func(s *models.Submission) string { return s.PhoneMobile }, mobilePattern, "Mobile number must be exactly 10 digits"),
			},
		},
		{
			Name: "phone_residence",
			Checks: []Check{
				pattern(func(s *models.Submission) string { return s.PhoneResidence }, mobilePattern, "Residence number must be exactly 10 digits"),
			},
		},
		{
			Name: "personal_email",
			Checks: []Check{
				required(func(s *models.Submission) string { return s.PersonalEmail }, "Personal email is required"),
				pattern(func(s *models.Submission) string { return s.PersonalEmail }, emailPattern, "Enter a valid email address"),
			},
		},
		{
			Name: "emergency_contact_phone",
			Checks: []Check{
				pattern(func(s *models.Submission) string { return s.EmergencyContactPhone }, mobilePattern, "Emergency contact number must be exactly 10 digits"),
			},
		},
		{
			Name: "nominee_mobile",
			Checks: []Check{
				pattern(func(s *models.Submission) string { return s.NomineeMobile }, mobilePattern, "Nominee mobile must be exactly 10 digits"),
			},
		},
		{
			Name: "references",
			Checks: []Check{
				minItems(populatedReferences, 2, "At least 2 fully populated references are required"),
			},
		},
		{
			Name: "agreement_accepted",
			Checks: []Check{
				mustBeTrue(func(s *models.Submission) bool { return s.AgreementAccepted },
					"You must accept the declaration to submit"),
			},
		},
	}
}
