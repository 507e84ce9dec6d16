package router

import (
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/telemetry"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/handler"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies is everything NewEngine wires into the HTTP surface
type Dependencies struct {
	HTTP      config.HTTPConfig
	Tracing   middleware.TracingConfig
	Logger    *zap.Logger
	Validator middleware.TokenValidator
	// Metrics and RateLimiter are optional
	Metrics     *telemetry.Metrics
	RateLimiter *middleware.RateLimiter

	System    *handler.SystemHandler
	Functions *handler.FunctionHandler
	Reports   *handler.ReportHandler
}

// NewEngine builds the gin engine with the global middleware stack,
// the operational endpoints and the authenticated /api/v1 routes.
//
// Middleware order:
//  1. RequestID
//  2. Logger and Recovery
//  3. Tracing
//  4. Security headers and CORS
//  5. BodyLimit
//  6. Metrics
func NewEngine(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(deps.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(deps.Tracing))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSFromConfig(deps.HTTP)))
	engine.Use(middleware.BodyLimit(deps.HTTP.MaxBodySize))
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.GinMiddleware())
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.System != nil {
		engine.GET("/health", deps.System.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	jwtConfig := middleware.DefaultJWTConfig(deps.Validator)
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuth(jwtConfig), middleware.SpanEnricher())
	if deps.RateLimiter != nil {
		r.Use(middleware.RateLimit(deps.RateLimiter))
	}

	if deps.Functions != nil {
		r.Register(functionRoutes(deps.Functions))
	}
	if deps.Reports != nil {
		r.Register(reportRoutes(deps.Reports))
	}
	r.Setup()

	return engine
}

func functionRoutes(h *handler.FunctionHandler) *DomainGroup {
	g := NewDomainGroup("functions", "/functions")
	g.POST("/generateDocumentPDF", h.GenerateDocumentPDF)
	g.POST("/github", h.GitHub)
	g.POST("/sendScheduledReport", h.SendScheduledReport)
	return g
}

func reportRoutes(h *handler.ReportHandler) *DomainGroup {
	g := NewDomainGroup("report", "/reports")
	g.GET("/summary", h.Summary)
	g.GET("/consolidated", h.Consolidated)
	g.GET("/export", h.Export)
	g.GET("/scheduler/status", h.SchedulerStatus)

	saved := g.Group("saved", "/saved")
	saved.GET("", h.ListSaved)
	saved.GET("/:id", h.GetSaved)
	saved.PUT("/:id/schedule", h.UpdateSchedule)
	saved.GET("/:id/runs", h.ListRuns)
	return g
}
