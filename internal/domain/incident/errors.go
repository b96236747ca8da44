package incident

import "errors"

var (
	// ErrIncidentNotFound indicates the incident doesn't exist.
	ErrIncidentNotFound = errors.New("incident not found")
	// ErrSessionNotFound indicates the referenced exam session doesn't exist.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrTooManyAttachments indicates the attachment cap was exceeded.
	ErrTooManyAttachments = errors.New("too many attachments")
	// ErrInvalidInput indicates the report payload failed validation.
	ErrInvalidInput = errors.New("invalid incident input")
)
