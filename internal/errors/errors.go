package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies still compare equal to the sentinels.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound       = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrEmailExists        = NewDomainError("EMAIL_EXISTS", "user already exists")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "Unauthorized access")

	// Session errors
	ErrSessionNotFound = NewDomainError("SESSION_NOT_FOUND", "session not found")
	ErrUnauthorized    = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrInvalidToken    = NewDomainError("INVALID_TOKEN", "invalid or expired token")
	ErrForbidden       = NewDomainError("FORBIDDEN", "access forbidden")

	// Validation errors
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "invalid input")
	ErrPasswordMismatch = NewDomainError("PASSWORD_MISMATCH", "passwords do not match")

	// System errors
	ErrInternal = NewDomainError("INTERNAL_ERROR", "internal server error")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request, duplicate email included
	case "INVALID_INPUT", "PASSWORD_MISMATCH", "EMAIL_EXISTS":
		return http.StatusBadRequest

	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INVALID_TOKEN":
		return http.StatusUnauthorized

	case "FORBIDDEN":
		return http.StatusForbidden

	case "USER_NOT_FOUND", "SESSION_NOT_FOUND":
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

// PublicMessage is the text safe to return to a caller. Anything that maps to
// a 5xx collapses to the generic internal message.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if ToHTTPStatus(err) >= http.StatusInternalServerError {
		return ErrInternal.Message
	}
	return GetErrorMessage(err)
}
