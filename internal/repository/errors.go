package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrSessionRevoked indicates the session is already revoked and cannot be mutated further.
	ErrSessionRevoked = errors.New("repository: session revoked")
	// ErrRotationConflict indicates a concurrent rotation replaced the refresh hash first.
	ErrRotationConflict = errors.New("repository: rotation conflict")
)
