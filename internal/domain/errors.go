package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when a required API key is absent.
	ErrMissingCredential = errors.New("missing credential")

	// ErrNoSuitableLocation is returned when no office reaches the
	// suitability threshold for the requested date.
	ErrNoSuitableLocation = errors.New("no suitable location")
)

// UpstreamError describes a failed call to a weather or geocoding provider.
type UpstreamError struct {
	Provider   string
	City       string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Provider + " error"
	if e.City != "" {
		msg += " for " + e.City
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

const msgRequired = "required field missing"

// ValidationError reports a missing or malformed applicant field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Missing reports whether the field was absent rather than malformed.
func (e *ValidationError) Missing() bool {
	return e.Message == msgRequired
}
