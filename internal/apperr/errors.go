// Package apperr holds the sentinel errors shared across onepage packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")

	// ErrGestureActive is returned when a drag or resize is started while
	// another one is still in progress on the same canvas.
	ErrGestureActive = errors.New("gesture already active")
	// ErrNoGesture is returned by move/end/cancel when nothing is active.
	ErrNoGesture = errors.New("no active gesture")

	ErrExportInProgress = errors.New("export in progress")
	ErrUpstream         = errors.New("upstream analyzer failed")
)
