package dto

import "github.com/clumsypasta/abans-form/internal/models"

// SubmissionListQuery filters the admin submission listing.
type SubmissionListQuery struct {
	Search     string `form:"search"`
	Department string `form:"department"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
}

// SubmissionSummary is one row of the admin listing.
type SubmissionSummary struct {
	ID            string  `json:"id"`
	FullName      string  `json:"full_name"`
	Department    string  `json:"department"`
	PersonalEmail string  `json:"personal_email"`
	PhoneMobile   string  `json:"phone_mobile"`
	PDFURL        *string `json:"pdf_url,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// NewSubmissionSummary projects a record onto its listing row.
func NewSubmissionSummary(sub models.Submission) SubmissionSummary {
	return SubmissionSummary{
		ID:            sub.ID,
		FullName:      sub.FullName(),
		Department:    sub.Department,
		PersonalEmail: sub.PersonalEmail,
		PhoneMobile:   sub.PhoneMobile,
		PDFURL:        sub.PDFURL,
		CreatedAt:     sub.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// DownloadLinkResponse returns a signed, expiring file URL.
type DownloadLinkResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
