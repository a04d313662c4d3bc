package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound        = New(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists   = New(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation      = New(ErrCodeValidation, "validation error")
	ErrInvalidState    = New(ErrCodeInvalidState, "invalid state for operation")
	ErrInvalidArgument = New(ErrCodeInvalidArgument, "invalid argument")
	ErrHTTPClient      = New(ErrCodeHTTPClient, "http client error")
	ErrSystem          = New(ErrCodeSystemError, "system error")
	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:      http.StatusInternalServerError,
		ErrNotFound:        http.StatusNotFound,
		ErrAlreadyExists:   http.StatusConflict,
		ErrValidation:      http.StatusBadRequest,
		ErrInvalidState:    http.StatusBadRequest,
		ErrInvalidArgument: http.StatusBadRequest,
		ErrSystem:          http.StatusInternalServerError,
	}
	// maps errors to google rpc status strings used in error bodies
	rpcStatusMap = map[error]string{
		ErrNotFound:        "NOT_FOUND",
		ErrAlreadyExists:   "ALREADY_EXISTS",
		ErrValidation:      "INVALID_ARGUMENT",
		ErrInvalidState:    "FAILED_PRECONDITION",
		ErrInvalidArgument: "INVALID_ARGUMENT",
	}
)

const (
	ErrCodeHTTPClient      = "http_client_error"
	ErrCodeSystemError     = "system_error"
	ErrCodeNotFound        = "not_found"
	ErrCodeAlreadyExists   = "already_exists"
	ErrCodeValidation      = "validation_error"
	ErrCodeInvalidState    = "invalid_state"
	ErrCodeInvalidArgument = "invalid_argument"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidState checks if an error is an invalid state error
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// RPCStatusFromErr returns the google rpc status string for an error,
// e.g. NOT_FOUND for errors marked with ErrNotFound.
func RPCStatusFromErr(err error) string {
	for e, status := range rpcStatusMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return "INTERNAL"
}
