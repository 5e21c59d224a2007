package models

// Section is one page of the multi-step wizard. Fields lists the record
// fields the section owns; Proceed validates only those.
type Section struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Fields      []string `json:"fields,omitempty"`
}

// SectionState is the per-section view exposed to the client.
type SectionState struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// SessionPhase captures the state machine phase.
type SessionPhase string

const (
	PhaseEditing    SessionPhase = "EDITING"
	PhaseSubmitting SessionPhase = "SUBMITTING"
	PhaseSubmitted  SessionPhase = "SUBMITTED"
)
