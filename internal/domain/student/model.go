package student

import "time"

// Student is a directory entry identified by index number.
type Student struct {
	ID          string    `json:"id"`
	IndexNumber string    `json:"index_number"`
	FullName    string    `json:"full_name"`
	Program     string    `json:"program"`
	Level       string    `json:"level,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LookupResult holds a directory match plus where it was found.
type LookupResult struct {
	Student   Student `json:"student"`
	InRoster  bool    `json:"in_roster"`
	SessionID string  `json:"session_id,omitempty"`
}

// Suggestion is a near-miss candidate offered alongside a not-found
// outcome.
type Suggestion struct {
	IndexNumber string `json:"index_number"`
	FullName    string `json:"full_name"`
	Distance    int    `json:"distance"`
}
