// Package errors defines structured error types for the risk evaluation engine.
// Errors carry a machine-readable code, an HTTP status for the interface layer,
// and optional metadata for diagnostics.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/agrovia/riskengine/pkg/constants"
)

// AppError is the structured application error used across all layers.
type AppError struct {
	code       constants.ErrorCode
	httpStatus int
	message    string
	cause      error
	metadata   map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the machine-readable error code.
func (e *AppError) Code() constants.ErrorCode { return e.code }

// HTTPStatus returns the HTTP status the interface layer should respond with.
func (e *AppError) HTTPStatus() int { return e.httpStatus }

// Unwrap returns the underlying cause for error-chain support.
func (e *AppError) Unwrap() error { return e.cause }

// WithCause attaches a cause error to the chain.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// WithMetadata attaches a diagnostic key-value pair.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all attached metadata.
func (e *AppError) Metadata() map[string]interface{} { return e.metadata }

// New creates a new AppError with the given code, HTTP status and message.
func New(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{code: code, httpStatus: httpStatus, message: message}
}

// Wrap wraps a generic error into an AppError with the given code and message.
func Wrap(err error, code constants.ErrorCode, message string) *AppError {
	return New(code, statusFor(code), message).WithCause(err)
}

func statusFor(code constants.ErrorCode) int {
	switch code {
	case constants.ErrCodeInvalidRequest, constants.ErrCodeInvalidThresholds, constants.ErrCodeUnknownModelType:
		return http.StatusBadRequest
	case constants.ErrCodeDuplicateCode:
		return http.StatusConflict
	case constants.ErrCodeNotFound:
		return http.StatusNotFound
	case constants.ErrCodeTenantMismatch:
		return http.StatusForbidden
	case constants.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ================================================================================
// Predefined Constructors
// ================================================================================

// ErrInvalidRequest creates an invalid_request error.
func ErrInvalidRequest(message string) *AppError {
	return New(constants.ErrCodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrDuplicateCode signals a risk definition code that already exists.
func ErrDuplicateCode(code string) *AppError {
	return New(constants.ErrCodeDuplicateCode, http.StatusConflict,
		fmt.Sprintf("risk definition already registered: %s", code)).
		WithMetadata("risk_code", code)
}

// ErrInvalidThresholds signals severity thresholds that are not strictly increasing.
func ErrInvalidThresholds(reason string) *AppError {
	return New(constants.ErrCodeInvalidThresholds, http.StatusBadRequest,
		fmt.Sprintf("invalid severity thresholds: %s", reason))
}

// ErrUnknownModelType signals a model type with no registered strategy.
func ErrUnknownModelType(modelType string) *AppError {
	return New(constants.ErrCodeUnknownModelType, http.StatusBadRequest,
		fmt.Sprintf("no strategy registered for model type: %s", modelType)).
		WithMetadata("model_type", modelType)
}

// ErrNotFound creates a not_found error for the named resource.
func ErrNotFound(resource, id string) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s not found: %s", resource, id)).
		WithMetadata("resource", resource).
		WithMetadata("id", id)
}

// ErrTenantMismatch signals an access attempt outside the caller's tenant scope.
func ErrTenantMismatch(tenantID string) *AppError {
	return New(constants.ErrCodeTenantMismatch, http.StatusForbidden,
		"resource belongs to a different tenant").
		WithMetadata("tenant_id", tenantID)
}

// ErrInternal creates an internal_error wrapping an unexpected failure.
func ErrInternal(message string, cause error) *AppError {
	return New(constants.ErrCodeInternal, http.StatusInternalServerError, message).WithCause(cause)
}

// ErrUnavailable signals a dependency that is temporarily unreachable.
func ErrUnavailable(message string, cause error) *AppError {
	return New(constants.ErrCodeUnavailable, http.StatusServiceUnavailable, message).WithCause(cause)
}

// ================================================================================
// Predicates
// ================================================================================

// As attempts to cast an error to *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether the error carries the not_found code.
func IsNotFound(err error) bool {
	return hasCode(err, constants.ErrCodeNotFound)
}

// IsDuplicateCode reports whether the error carries the duplicate_code code.
func IsDuplicateCode(err error) bool {
	return hasCode(err, constants.ErrCodeDuplicateCode)
}

// IsValidation reports whether the error is a registration-time validation failure.
func IsValidation(err error) bool {
	return hasCode(err, constants.ErrCodeInvalidRequest) ||
		hasCode(err, constants.ErrCodeInvalidThresholds) ||
		hasCode(err, constants.ErrCodeUnknownModelType)
}

func hasCode(err error, code constants.ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code() == code
	}
	return false
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse is the JSON structure for error responses.
type ErrorResponse struct {
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts any error to an ErrorResponse; unknown errors map
// to a generic internal_error without leaking details.
func ToErrorResponse(err error) *ErrorResponse {
	if appErr, ok := As(err); ok {
		return &ErrorResponse{
			Error:            string(appErr.Code()),
			ErrorDescription: appErr.message,
			Metadata:         appErr.Metadata(),
		}
	}
	return &ErrorResponse{
		Error:            string(constants.ErrCodeInternal),
		ErrorDescription: "an unexpected error occurred",
	}
}

// HTTPStatusOf returns the HTTP status for any error, defaulting to 500.
func HTTPStatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
