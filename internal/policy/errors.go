package policy

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
