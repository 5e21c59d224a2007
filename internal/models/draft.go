package models

import "time"

// DraftSnapshot is the locally cached, non-authoritative copy of an
// in-progress record. One entry per session key, overwritten on every
// autosave tick and deleted on successful final submission.
type DraftSnapshot struct {
	SessionID string      `json:"session_id"`
	Record    *Submission `json:"record"`
	SavedAt   time.Time   `json:"saved_at"`
}
