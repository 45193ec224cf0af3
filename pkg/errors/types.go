package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Document errors
	ErrCodeMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"
	ErrCodeCorruptedDocument ErrorCode = "CORRUPTED_DOCUMENT"

	// Mutation errors
	ErrCodeInvalidMutation ErrorCode = "INVALID_MUTATION"
	ErrCodeNotImplemented  ErrorCode = "NOT_IMPLEMENTED"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists   ErrorCode = "ALREADY_EXISTS"
	ErrCodeValidation      ErrorCode = "VALIDATION"
	ErrCodeMissingField    ErrorCode = "MISSING_FIELD"

	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Environment errors
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"
	ErrCodeExternalTool  ErrorCode = "EXTERNAL_TOOL"
	ErrCodeIO            ErrorCode = "IO"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Class groups error codes by who is at fault.
type Class int

const (
	ClassInternal Class = iota
	ClassMalformed
	ClassCorrupted
	ClassInvalidMutation
	ClassEnvironment
)

func (c Class) String() string {
	switch c {
	case ClassMalformed:
		return "malformed"
	case ClassCorrupted:
		return "corrupted"
	case ClassInvalidMutation:
		return "invalid-mutation"
	case ClassEnvironment:
		return "environment"
	default:
		return "internal"
	}
}

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// Class returns the failure class of the error code.
func (e *AppError) Class() Class {
	return classOf(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeValidation, ErrCodeMissingField, ErrCodeInvalidMutation, ErrCodeMalformedDocument:
		return http.StatusBadRequest
	case ErrCodeCorruptedDocument:
		return http.StatusUnprocessableEntity
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case ErrCodeExternalTool:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func classOf(code ErrorCode) Class {
	switch code {
	case ErrCodeMalformedDocument:
		return ClassMalformed
	case ErrCodeCorruptedDocument:
		return ClassCorrupted
	case ErrCodeInvalidMutation, ErrCodeNotImplemented, ErrCodeNotFound,
		ErrCodeAlreadyExists, ErrCodeValidation, ErrCodeMissingField:
		return ClassInvalidMutation
	case ErrCodeConfigInvalid, ErrCodeDatabaseQuery, ErrCodeExternalTool, ErrCodeIO:
		return ClassEnvironment
	default:
		return ClassInternal
	}
}

// Common error constructors

// Malformed reports input that is not a well-formed annotation document.
func Malformed(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeMalformedDocument, format, args...)
}

// Corrupted reports a well-formed document whose internal references do not resolve.
func Corrupted(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeCorruptedDocument, format, args...)
}

// InvalidMutation reports a rejected edit.
func InvalidMutation(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeInvalidMutation, format, args...)
}

// NotImplemented reports an operation the engine does not support for its input.
func NotImplemented(format string, args ...interface{}) *AppError {
	return Newf(ErrCodeNotImplemented, format, args...)
}

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %v not found", resource, id)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// AlreadyExists creates an already exists error
func AlreadyExists(resource string, id interface{}) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s %v already exists", resource, id)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// ValidationError creates a validation error
func ValidationError(field string, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// MissingFieldError creates a missing field error
func MissingFieldError(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("required field '%s' is missing", field)).
		WithDetail("field", field)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithDetail("operation", operation)
}

// ExternalToolError creates an error for a failed external program
func ExternalToolError(tool string, cause error) *AppError {
	return Wrap(cause, ErrCodeExternalTool, fmt.Sprintf("external tool '%s' failed", tool)).
		WithDetail("tool", tool)
}

// ConfigError creates a configuration error
func ConfigError(key string, reason string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("configuration error for '%s': %s", key, reason)).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// ClassOf extracts the failure class from an error
func ClassOf(err error) Class {
	if appErr, ok := As(err); ok {
		return appErr.Class()
	}
	return ClassInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}
