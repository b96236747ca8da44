package examsession

import "errors"

var (
	// ErrSessionNotFound indicates the exam session doesn't exist.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrBatchNotFound indicates the batch doesn't exist.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrSessionClosed indicates a mutation was attempted on a closed session.
	ErrSessionClosed = errors.New("exam session is closed")
	// ErrNotOnRoster indicates the student is not registered for the session.
	ErrNotOnRoster = errors.New("student not on session roster")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
)
