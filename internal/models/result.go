package models

// SubmissionResult is produced only after the backend accepted the record.
// PDFURL is filled out of band by the background summary job and may stay
// absent; that is tolerated, not fatal.
type SubmissionResult struct {
	RecordID     string            `json:"record_id"`
	PhotoURL     string            `json:"photo_url,omitempty"`
	DocumentURLs map[string]string `json:"document_urls"`
	PDFURL       string            `json:"pdf_url,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}
