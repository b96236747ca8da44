package activity

import "time"

// Kind represents the type of feed event.
type Kind string

const (
	KindIncidentReported Kind = "incident_reported"
	KindIncidentUpdated  Kind = "incident_updated"
	KindAttendanceMarked Kind = "attendance_marked"
	KindSessionOpened    Kind = "session_opened"
	KindSessionClosed    Kind = "session_closed"
	KindUserCreated      Kind = "user_created"
)

// Entry represents an event in the activity feed.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  *string   `json:"session_id,omitempty"`
	IncidentID *string   `json:"incident_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	Kind       Kind      `json:"kind"`
	Summary    string    `json:"summary"`
	Details    string    `json:"details,omitempty"` // JSON string
	CreatedAt  time.Time `json:"created_at"`
}
