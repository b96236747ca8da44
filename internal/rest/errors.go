package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
)

// APIError is the JSON error body returned to clients.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to an HTTP status and wire error code.
func MapError(err error) (int, *APIError) {
	switch {
	case errors.Is(err, student.ErrStudentNotFound):
		return http.StatusNotFound, &APIError{Code: "STUDENT_NOT_FOUND", Message: "student not found"}
	case errors.Is(err, student.ErrDuplicateIndex):
		return http.StatusConflict, &APIError{Code: "DUPLICATE_INDEX", Message: "index number already registered"}
	case errors.Is(err, examsession.ErrSessionNotFound), errors.Is(err, incident.ErrSessionNotFound):
		return http.StatusNotFound, &APIError{Code: "SESSION_NOT_FOUND", Message: "exam session not found"}
	case errors.Is(err, examsession.ErrBatchNotFound):
		return http.StatusNotFound, &APIError{Code: "BATCH_NOT_FOUND", Message: "batch not found"}
	case errors.Is(err, examsession.ErrSessionClosed):
		return http.StatusConflict, &APIError{Code: "SESSION_CLOSED", Message: "exam session is closed"}
	case errors.Is(err, examsession.ErrNotOnRoster):
		return http.StatusUnprocessableEntity, &APIError{Code: "NOT_ON_ROSTER", Message: "student not on session roster"}
	case errors.Is(err, incident.ErrIncidentNotFound):
		return http.StatusNotFound, &APIError{Code: "INCIDENT_NOT_FOUND", Message: "incident not found"}
	case errors.Is(err, incident.ErrTooManyAttachments):
		return http.StatusUnprocessableEntity, &APIError{Code: "TOO_MANY_ATTACHMENTS", Message: "too many attachments"}
	case errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, &APIError{Code: "USER_NOT_FOUND", Message: "user not found"}
	case errors.Is(err, user.ErrDuplicateEmail):
		return http.StatusConflict, &APIError{Code: "DUPLICATE_EMAIL", Message: "email already registered"}
	case errors.Is(err, user.ErrUnauthorized):
		return http.StatusUnauthorized, &APIError{Code: "UNAUTHORIZED", Message: "unauthorized"}
	case errors.Is(err, incident.ErrInvalidInput),
		errors.Is(err, examsession.ErrInvalidInput),
		errors.Is(err, student.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return http.StatusUnprocessableEntity, &APIError{Code: "VALIDATION_FAILED", Message: err.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}
