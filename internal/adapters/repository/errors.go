package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound   = errors.New("session not found")
	ErrCapacity   = errors.New("session store at capacity")
	ErrInvalidID  = errors.New("invalid session id")
	ErrDuplicated = errors.New("session already exists")
)
