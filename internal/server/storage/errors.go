package storage

import "errors"

// Common storage errors
var (
	// ErrPilotNotFound indicates that pilot was not found in storage
	ErrPilotNotFound = errors.New("pilot not found")

	// ErrInvalidPilot indicates that pilot record is incomplete
	ErrInvalidPilot = errors.New("invalid pilot")
)
