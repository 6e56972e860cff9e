package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError is a coded problem found while checking domain input.
// The flow rules themselves never produce one; they report through
// validation verdicts instead.
type DomainError struct {
	Type    DomainErrorType        `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	clone := e.clone()
	clone.Cause = cause
	return clone
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	clone := e.clone()
	clone.Details[key] = value
	return clone
}

// Is matches domain errors by code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if stderrors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// ToAppError converts the error for transport
func (e *DomainError) ToAppError() *AppError {
	appErr := &AppError{
		Type:       domainTypeToErrorType(e.Type),
		Message:    e.Message,
		Code:       e.Code,
		Details:    e.Details,
		Cause:      e.Cause,
		HTTPStatus: domainErrorTypeToStatusCode(e.Type),
	}
	return appErr
}

func (e *DomainError) clone() *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	return &DomainError{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func domainTypeToErrorType(errorType DomainErrorType) ErrorType {
	switch errorType {
	case DomainValidationError, DomainBusinessRuleError:
		return ErrorTypeValidation
	case DomainNotFoundError:
		return ErrorTypeNotFound
	default:
		return ErrorTypeInternal
	}
}

// Snapshot and input errors
var (
	ErrSnapshotMalformed = NewDomainError(
		DomainValidationError,
		"SNAPSHOT_MALFORMED",
		"The flow snapshot could not be decoded",
	)

	ErrNodeIDRequired = NewDomainError(
		DomainValidationError,
		"NODE_ID_REQUIRED",
		"Node id is required",
	)

	ErrDuplicateNodeID = NewDomainError(
		DomainValidationError,
		"DUPLICATE_NODE_ID",
		"Node id is used more than once",
	)

	ErrUnknownNodeKind = NewDomainError(
		DomainValidationError,
		"UNKNOWN_NODE_KIND",
		"Node type is not registered",
	)

	ErrNodeTextTooLong = NewDomainError(
		DomainValidationError,
		"NODE_TEXT_TOO_LONG",
		"Node text exceeds maximum length",
	)

	ErrInvalidNodePosition = NewDomainError(
		DomainValidationError,
		"INVALID_NODE_POSITION",
		"Node position coordinates are invalid",
	)

	ErrDanglingEdge = NewDomainError(
		DomainValidationError,
		"DANGLING_EDGE",
		"Edge references a node that does not exist",
	)

	ErrDuplicateEdgeID = NewDomainError(
		DomainValidationError,
		"DUPLICATE_EDGE_ID",
		"Edge id is used more than once",
	)

	ErrMultipleOutgoingEdges = NewDomainError(
		DomainBusinessRuleError,
		"MULTIPLE_OUTGOING_EDGES",
		"A node may only have one outgoing edge",
	)

	ErrFlowLimitExceeded = NewDomainError(
		DomainBusinessRuleError,
		"FLOW_LIMIT_EXCEEDED",
		"Maximum number of nodes or edges in the flow exceeded",
	)

	ErrSnapshotNotFound = NewDomainError(
		DomainNotFoundError,
		"SNAPSHOT_NOT_FOUND",
		"No flow has been saved under this key",
	)
)

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// AddError adds a pre-existing domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// AddFieldError adds a pre-existing domain error tagged with a field
func (v *ValidationErrors) AddFieldError(field string, err *DomainError) {
	v.Errors = append(v.Errors, err.WithDetail("field", field))
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}

// ToAppError converts the collection for transport
func (v *ValidationErrors) ToAppError() *AppError {
	return NewValidationError(v.Error()).WithDetails(map[string]interface{}{
		"fields": v.ToMap(),
	})
}
