package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// ErrorType classifies errors that leave the application
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	// ErrorTypeStorage is a snapshot or journal backend failure
	ErrorTypeStorage ErrorType = "STORAGE"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeStorage:      http.StatusInternalServerError,
}

// AppError is an error that crosses the application boundary: malformed
// input or a failing backend. Flow rule violations never become an
// AppError; they surface as save verdicts and notifications.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func newAppError(errType ErrorType, message string, cause error) *AppError {
	e := &AppError{
		Type:       errType,
		Message:    message,
		Cause:      cause,
		HTTPStatus: statusByType[errType],
	}
	// stacks only help for server side failures
	if e.HTTPStatus >= http.StatusInternalServerError {
		e.StackTrace = string(debug.Stack())
	}
	return e
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode sets a machine readable code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches response details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// NewValidationError reports malformed input
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message, nil)
}

// NewNotFoundError reports a missing node, edge or route
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, resource+" not found", nil)
}

// NewInternalError reports a bug
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message, nil)
}

// NewStorageError wraps a failed store operation such as "put snapshot"
func NewStorageError(operation string, err error) *AppError {
	return newAppError(ErrorTypeStorage, fmt.Sprintf("storage operation %q failed", operation), err)
}

// GetAppError finds the AppError in err's chain. Validation collections
// and domain errors are converted on the way.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.ToAppError()
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.ToAppError()
	}
	return nil
}

// StatusCode maps err to an HTTP status; unknown errors are 500
func StatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsType checks the type of the AppError in err's chain
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}
