// Package services defines the business logic for the prompt directory and
// ingestion runs. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrPromptNotFound indicates that no prompt matches the requested slug
	// or legacy numeric identifier.
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrRunInFlight is returned when a run is requested while another run
	// is still executing. Runs are strictly serialized.
	ErrRunInFlight = errors.New("ingestion run already in progress")

	// ErrRunNotFound indicates that the requested run record does not exist.
	ErrRunNotFound = errors.New("run not found")
)
