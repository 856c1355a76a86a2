package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrLockHeld = errors.New("unit is locked by another request")

	// ErrStaleStatus reports that a status update matched nothing because the
	// reservation no longer holds the status the caller observed.
	ErrStaleStatus = errors.New("reservation status changed concurrently")
)
