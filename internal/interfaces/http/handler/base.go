package handler

import (
	"errors"
	"net/http"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/dto"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// getTenantID returns the tenant of the authenticated caller
func getTenantID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return uuid.Nil, false
	}
	return p.TenantID, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Unauthorized")
}

// HandleError maps domain and render errors to an envelope response.
// Anything else is a 500 with a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.FromDomainCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	var renderErr *rendering.RenderError
	if errors.As(err, &renderErr) {
		code := dto.ErrCodeRenderFailed
		if renderErr.Code == rendering.ErrCodeUnsupportedFormat {
			code = dto.ErrCodeUnsupported
		}
		logger.FromGin(c).Error("Render failed", zap.Error(err))
		h.Error(c, dto.GetHTTPStatus(code), code, renderErr.Message)
		return
	}

	logger.FromGin(c).Error("Request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// functionError answers a function endpoint with a flat {"error": message}
// body. Unauthorized maps to 401, invalid input to 400, missing resources to
// 404, and everything else to 500 carrying the error text.
func functionError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		switch domainErr.Code {
		case shared.CodeInvalidInput:
			status = http.StatusBadRequest
		case shared.CodeNotFound:
			status = http.StatusNotFound
		case shared.CodeUnauthorized:
			status = http.StatusUnauthorized
		case shared.CodeForbidden:
			status = http.StatusForbidden
		}
	}

	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("Function failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, dto.FunctionError{Error: message})
}
