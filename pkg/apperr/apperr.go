// pkg/apperr/apperr.go

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures raised anywhere in the studio pipeline.
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeTransport     ErrorType = "transport_error"
	ErrorTypeParse         ErrorType = "parse_error"
	ErrorTypeJobFailed     ErrorType = "job_failed"
	ErrorTypeJobTimeout    ErrorType = "job_timeout"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeValidation    ErrorType = "validation_error"
)

// AppError carries the error type plus whatever the upstream service told us.
type AppError struct {
	Type    ErrorType
	Message string
	// Status is the upstream HTTP status for transport errors, 0 otherwise.
	Status int
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError of the given type.
func New(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{Type: errType, Message: message, Err: originalError}
}

// NewConfigurationError is returned when credentials or endpoints are missing. Never retried.
func NewConfigurationError(message string) *AppError {
	return New(ErrorTypeConfiguration, message, nil)
}

// NewTransportError wraps a network failure or a non-2xx reply. status is 0 for network failures.
func NewTransportError(message string, status int, originalError error) *AppError {
	e := New(ErrorTypeTransport, message, originalError)
	e.Status = status
	return e
}

func NewParseError(message string, originalError error) *AppError {
	return New(ErrorTypeParse, message, originalError)
}

func NewJobFailedError(message string) *AppError {
	return New(ErrorTypeJobFailed, message, nil)
}

// NewJobTimeoutError reports a poll loop that ran out of attempts without a terminal status.
func NewJobTimeoutError(taskID string, attempts int) *AppError {
	return New(ErrorTypeJobTimeout, fmt.Sprintf("job %s did not finish after %d status checks", taskID, attempts), nil)
}

func NewNotFoundError(message string) *AppError {
	return New(ErrorTypeNotFound, message, nil)
}

func NewValidationError(message string, originalError error) *AppError {
	return New(ErrorTypeValidation, message, originalError)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

func IsConfigurationError(err error) bool { return TypeOf(err) == ErrorTypeConfiguration }
func IsTransportError(err error) bool     { return TypeOf(err) == ErrorTypeTransport }
func IsParseError(err error) bool         { return TypeOf(err) == ErrorTypeParse }
func IsJobFailedError(err error) bool     { return TypeOf(err) == ErrorTypeJobFailed }
func IsJobTimeoutError(err error) bool    { return TypeOf(err) == ErrorTypeJobTimeout }
func IsNotFoundError(err error) bool      { return TypeOf(err) == ErrorTypeNotFound }
func IsValidationError(err error) bool    { return TypeOf(err) == ErrorTypeValidation }

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConfiguration:
		return http.StatusServiceUnavailable
	case ErrorTypeTransport, ErrorTypeJobFailed:
		return http.StatusBadGateway
	case ErrorTypeJobTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
