package models

// Pagination carries list paging metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// SubmissionFilter narrows the admin submission listing.
type SubmissionFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}
