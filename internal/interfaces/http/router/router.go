package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/infrastructure/telemetry"
	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
	"github.com/dealbridge/gateway/internal/interfaces/http/middleware"
)

// HealthPath is served without authentication
const HealthPath = "/health"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under a common prefix and middleware set
type Router struct {
	engine     *gin.Engine
	prefix     string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithPrefix sets the path prefix of every registered route (default "/api")
func WithPrefix(prefix string) RouterOption {
	return func(r *Router) {
		r.prefix = prefix
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		prefix:     "/api",
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware applied to the prefixed group only
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.prefix, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig holds what NewEngine needs besides the handlers
type EngineConfig struct {
	ServiceName string
	// APIKey guards the /api routes; empty rejects them all
	APIKey         string
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	// RateLimiter is optional
	RateLimiter    *middleware.RateLimiter
	TracingEnabled bool
	// MeterProvider is optional
	MeterProvider *telemetry.MeterProvider
}

// Handlers are the route registrars served by the gateway
type Handlers struct {
	Health    gin.HandlerFunc
	Jira      RouteRegistrar
	Pipedrive RouteRegistrar
	Sync      RouteRegistrar
	Webhooks  RouteRegistrar
}

// NewEngine builds the gin engine with the full middleware chain:
// tracing, request ID, recovery, request log, security headers, CORS, body limit,
// optional rate limit and metrics. API key auth guards the /api group only, so
// /health stays open and unmapped paths answer 404.
func NewEngine(cfg EngineConfig, handlers Handlers, log *zap.Logger) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(cfg.Security))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Enabled:       cfg.MeterProvider != nil,
	}))

	if handlers.Health != nil {
		engine.GET(HealthPath, handlers.Health)
	}

	r := NewRouter(engine).Use(middleware.APIKeyAuth(cfg.APIKey))
	for _, registrar := range []RouteRegistrar{handlers.Jira, handlers.Pipedrive, handlers.Sync, handlers.Webhooks} {
		if registrar != nil {
			r.Register(registrar)
		}
	}
	r.Setup()

	engine.NoRoute(NotFound)
	return engine
}

// NotFound answers unmapped routes
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeNotFound,
		"not found",
		middleware.GetRequestID(c),
	))
}
