package schema

import (
	"regexp"
	"strings"

	"github.com/clumsypasta/abans-form/internal/models"
)

var (
	mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func required(get func(*models.Submission) string, msg string) Check {
	return func(s *models.Submission) string {
		if strings.TrimSpace(get(s)) == "" {
			return msg
		}
		return ""
	}
}

// pattern validates a non-empty value against re; an empty value passes so
// optionality stays the required rule's concern.
func pattern(get func(*models.Submission) string, re *regexp.Regexp, msg string) Check {
	return func(s *models.Submission) string {
		v := strings.TrimSpace(get(s))
		if v == "" {
			return ""
		}
		if !re.MatchString(v) {
			return msg
		}
		return ""
	}
}

func mustBeTrue(get func(*models.Submission) bool, msg string) Check {
	return func(s *models.Submission) string {
		if !get(s) {
			return msg
		}
		return ""
	}
}

func minItems(count func(*models.Submission) int, n int, msg string) Check {
	return func(s *models.Submission) string {
		if count(s) < n {
			return msg
		}
		return ""
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// populatedReferences counts reference entries with every column filled in.
func populatedReferences(s *models.Submission) int {
	n := 0
	for _, ref := range s.References {
		if strings.TrimSpace(ref.Name) == "" ||
			strings.TrimSpace(ref.Designation) == "" ||
			strings.TrimSpace(ref.Company) == "" ||
			strings.TrimSpace(ref.Address) == "" ||
			strings.TrimSpace(ref.ContactNo) == "" ||
			strings.TrimSpace(ref.Email) == "" {
			continue
		}
		n++
	}
	return n
}
