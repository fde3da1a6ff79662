package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOTP covers wrong, expired and already-consumed codes alike
	ErrInvalidOTP = errors.New("invalid or expired OTP")
	// ErrNotFound is returned for unknown events, registrations or tokens
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned for a failed admin login
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for an unknown, expired or revoked admin session
	ErrInvalidToken = errors.New("invalid or expired session")
	// ErrRegistrationClosed is returned when acting on an already-confirmed registration
	ErrRegistrationClosed = errors.New("registration is already confirmed")
)

// ValidationError reports malformed input; nothing is persisted
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AlreadyRegisteredError names the identifier that already holds a registration
type AlreadyRegisteredError struct {
	Identifier string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("student %s has already registered for an event", e.Identifier)
}

// StudentNotFoundError names the identifier missing from the student directory
type StudentNotFoundError struct {
	Identifier string
}

func (e *StudentNotFoundError) Error() string {
	return fmt.Sprintf("no student found with GR Number: %s", e.Identifier)
}

// DeliveryError reports a failed email send. The OTP row it belongs to stays valid.
type DeliveryError struct {
	Identifier string
	Email      string
	Err        error
	// Fallback tells the student how to get verified manually
	Fallback string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver email to %s (GR %s): %v", e.Email, e.Identifier, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
