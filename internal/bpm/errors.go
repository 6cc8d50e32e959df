package bpm

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessNotFound is returned when no deployed process matches the
	// requested name on the engine's first result page.
	ErrProcessNotFound = errors.New("process not found")

	// ErrVariableNotFound is returned for the engine's documented
	// 404-means-missing-variable responses.
	ErrVariableNotFound = errors.New("case variable not found")

	// ErrTaskNotMaterialized is returned when a case's first human task did
	// not appear within the bounded poll window.
	ErrTaskNotMaterialized = errors.New("human task not materialized in time")

	// ErrNoSessionToken is returned when the login response carries no API token.
	ErrNoSessionToken = errors.New("no session token in login response")
)

// ExternalServiceError wraps any non-success response from the BPM engine.
type ExternalServiceError struct {
	Status int
	URL    string
	Body   string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("bpm engine error %d at %s: %s", e.Status, e.URL, e.Body)
}

// Temporary reports whether the failure class is worth retrying.
func (e *ExternalServiceError) Temporary() bool {
	return e.Status >= 500
}
