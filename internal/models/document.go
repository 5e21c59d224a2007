package models

// Document slot categories.
const (
	CategoryKYC        = "kyc"
	CategoryEducation  = "education"
	CategoryEmployment = "salary"
)

// SlotSpec describes one named attachment point of the document bundle.
type SlotSpec struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Multi    bool   `json:"multi"`
}

// StagedFile is an accepted upload waiting in the staging namespace until
// final submission.
type StagedFile struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
	StagedPath string `json:"staged_path"`
}

// SlotState is the per-slot view exposed to the client.
type SlotState struct {
	Key   string       `json:"key"`
	Files []StagedFile `json:"files,omitempty"`
	Error string       `json:"error,omitempty"`
}
