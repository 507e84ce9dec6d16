package dto

import (
	"net/http"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// Error codes of the REST envelope, formatted ERR_<CATEGORY>
const (
	ErrCodeInternal       = "ERR_INTERNAL"
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeBadRequest     = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput   = "ERR_INVALID_INPUT"
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeForbidden      = "ERR_FORBIDDEN"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeInvalidState   = "ERR_INVALID_STATE"
	ErrCodeUpstream       = "ERR_UPSTREAM"
	ErrCodeUnsupported    = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeRenderFailed   = "ERR_RENDER_FAILED"
	ErrCodeServiceOffline = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidInput:   http.StatusBadRequest,
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeInvalidState:   http.StatusUnprocessableEntity,
	ErrCodeUpstream:       http.StatusBadGateway,
	ErrCodeUnsupported:    http.StatusBadRequest,
	ErrCodeRenderFailed:   http.StatusInternalServerError,
	ErrCodeServiceOffline: http.StatusServiceUnavailable,
}

// domainCodes maps domain error codes to envelope codes
var domainCodes = map[string]string{
	shared.CodeNotFound:       ErrCodeNotFound,
	shared.CodeInvalidInput:   ErrCodeInvalidInput,
	shared.CodeUnauthorized:   ErrCodeUnauthorized,
	shared.CodeForbidden:      ErrCodeForbidden,
	shared.CodeInvalidState:   ErrCodeInvalidState,
	shared.CodeUpstreamFailed: ErrCodeUpstream,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode converts a domain error code to its envelope code
func FromDomainCode(code string) string {
	if c, ok := domainCodes[code]; ok {
		return c
	}
	return ErrCodeInternal
}
