package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/auth"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-middleware-32c"

func newJWTRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	svc := auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "bfse"})

	r := gin.New()
	r.Use(JWTAuth(DefaultJWTConfig(svc)))
	r.GET("/health", okHandler)
	r.POST("/api/v1/functions/github", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"tenant_id":     p.TenantID.String(),
			"ctx_tenant_id": logger.TenantID(c.Request.Context()),
			"ctx_user_id":   logger.UserID(c.Request.Context()),
		})
	})
	return r, svc
}

func TestJWTAuth(t *testing.T) {
	r, svc := newJWTRouter(t)
	principal := auth.Principal{TenantID: uuid.New(), UserID: uuid.New(), Email: "owner@bfse.sl"}

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.Issue(principal, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/functions/github", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"tenant_id": "`+principal.TenantID.String()+`",
			"ctx_tenant_id": "`+principal.TenantID.String()+`",
			"ctx_user_id": "`+principal.UserID.String()+`"
		}`, w.Body.String())
	})

	unauthorizedCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range unauthorizedCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/functions/github", nil)
			if tc.header != "" {
				req.Header.Set(AuthHeaderKey, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		})
	}

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.Issue(principal, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/functions/github", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token from another issuer", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		token, err := other.Issue(principal, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/functions/github", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip path", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetPrincipal_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	p, ok := GetPrincipal(c)

	assert.False(t, ok)
	assert.Nil(t, p)
}
