// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when an engine receives inputs outside of
	// their domain (mastery outside [0,100], remaining days <= 0, ...).
	// These values are rejected rather than clamped: they indicate a bug in
	// the caller or corrupted data upstream.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUpstreamUnavailable is returned when the content-generation
	// collaborator cannot serve a request. Callers should degrade
	// gracefully; no core state is modified when it occurs.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
