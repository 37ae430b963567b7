// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrSessionNotFound indicates the wizard session does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDeployInFlight indicates a deployment for the session is already running.
	ErrDeployInFlight = errors.New("deployment already in flight")

	// ErrMissingDeployInputs is the fixed precondition failure for deployment:
	// both a channel token and an uploaded image are required before any
	// network call is made.
	ErrMissingDeployInputs = errors.New("missing token or image")

	// ErrStepBlocked indicates the current step's precondition is not satisfied.
	ErrStepBlocked = errors.New("step precondition not satisfied")

	// ErrNotAuthorized indicates the entitlement gate denied access.
	ErrNotAuthorized = errors.New("not authorized")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// GatewayError represents a failed call to the remote studio gateway.
type GatewayError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway error (path=%s, status=%d): %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway error (path=%s): %v", e.Path, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new gateway error.
func NewGatewayError(path string, statusCode int, err error) *GatewayError {
	return &GatewayError{
		Path:       path,
		StatusCode: statusCode,
		Err:        err,
	}
}

// DeployError represents a rich menu deployment failure with the user-facing
// message already resolved from the gateway or LINE API response.
type DeployError struct {
	Stage   string // create, upload, activate, gateway
	Message string
	Err     error
}

func (e *DeployError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deploy failed (stage=%s): %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("deploy failed (stage=%s): %s", e.Stage, e.Message)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// NewDeployError creates a new deployment error.
func NewDeployError(stage, message string, err error) *DeployError {
	return &DeployError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}
