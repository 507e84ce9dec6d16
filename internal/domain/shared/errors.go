package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so a specialised message still satisfies
// errors.Is against the sentinel it was derived from.
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

// Error codes
const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeInvalidState   = "INVALID_STATE"
	CodeUpstreamFailed = "UPSTREAM_FAILED"
)

// Common domain errors
var (
	ErrNotFound       = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput   = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthorized   = NewDomainError(CodeUnauthorized, "Unauthorized")
	ErrForbidden      = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState   = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrUpstreamFailed = NewDomainError(CodeUpstreamFailed, "Upstream service failed")
)

// InvalidInput returns an INVALID_INPUT error carrying the given message.
func InvalidInput(message string) *DomainError {
	return NewDomainError(CodeInvalidInput, message)
}

// NotFound returns a NOT_FOUND error carrying the given message.
func NotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}
