package student

import "errors"

var (
	// ErrStudentNotFound indicates no directory entry matches the key.
	// Callers treat this as a domain outcome, not a transport failure.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateIndex indicates the index number is already registered.
	ErrDuplicateIndex = errors.New("index number already registered")
	// ErrInvalidInput indicates invalid student input.
	ErrInvalidInput = errors.New("invalid student input")
)
