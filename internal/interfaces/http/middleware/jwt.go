package middleware

import (
	"net/http"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/auth"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	PrincipalKey  = "jwt_principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator resolves a bearer token to a caller
type TokenValidator interface {
	Validate(token string) (*auth.Principal, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator TokenValidator
	// SkipPaths are served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig skips the operational endpoints
func DefaultJWTConfig(v TokenValidator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Validator: v,
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// JWTAuth rejects requests without a valid bearer token with a flat 401.
// On success the principal is stored on the gin context and its tenant and
// user IDs on the request context.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) {
			unauthorized(c, log, auth.ErrInvalidToken)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			unauthorized(c, log, auth.ErrInvalidToken)
			return
		}

		principal, err := cfg.Validator.Validate(token)
		if err != nil {
			unauthorized(c, log, err)
			return
		}

		c.Set(PrincipalKey, principal)
		ctx := logger.WithTenantID(c.Request.Context(), principal.TenantID.String())
		ctx = logger.WithUserID(ctx, principal.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context, log *zap.Logger, err error) {
	log.Debug("Authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(logger.GinRequestIDKey)),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

// GetPrincipal returns the caller stored by JWTAuth
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}
