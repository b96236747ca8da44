package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnauthorized indicates an unknown or deactivated token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = errors.New("invalid user input")
)
