// Package services contains the portal workflows. Services validate input,
// call the records backend and the storage gateway, and return view state
// for the handlers to render.
package services

import (
	"errors"

	"github.com/curelink/records-portal/internal/backend"
)

// ValidationError is raised before any network call is made
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Failure is a backend or gateway error together with the message the user sees
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// fail prefers the backend's own message over fallback
func fail(err error, fallback string) error {
	return &Failure{Message: backend.Message(err, fallback), Err: err}
}

// IsValidation reports whether err was raised before any network call
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// UserMessage is the notice text for err
func UserMessage(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return "Something went wrong. Please try again."
}
