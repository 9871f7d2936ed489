package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no session is saved
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrSessionStale indicates that the saved session was expired or foreign and got dropped
	ErrSessionStale = errors.New("saved session is no longer valid")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
