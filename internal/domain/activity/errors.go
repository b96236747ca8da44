package activity

import "errors"

// ErrInvalidInput indicates invalid feed input.
var ErrInvalidInput = errors.New("invalid activity input")
