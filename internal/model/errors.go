package model

import "errors"

// Common errors used across the application
var (
	// Queue errors
	ErrUnknownOperationKind = errors.New("unknown operation kind")

	// Local storage errors
	ErrSessionNotFound = errors.New("no stored auth session")

	// Remote record errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrDeviceNotFound  = errors.New("device not found")
)
