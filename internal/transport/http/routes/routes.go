package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/infra/config"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/transport/http/handlers"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/transport/http/middleware"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Registration *usecase.RegistrationService
	Sessions     *usecase.SessionService
	Users        *usecase.UserService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := make(map[string]handlers.ReadinessCheck, 2)
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(checks)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	if deps.Config.Telemetry.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth,
		middleware.BearerTokenExtractor(),
		middleware.CookieTokenExtractor(handlers.AccessTokenCookie),
	)

	api := r.Group("/api/v1")
	{
		cookies := handlers.CookieSettings{
			Secure: deps.Config.App.Env == "production",
		}

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Registration, cookies)
		authHandler.RegisterRoutes(api.Group("/auth"), loginLimiter(deps), refreshLimiter(deps))

		sessionGroup := api.Group("/sessions")
		sessionGroup.Use(authMiddleware)
		handlers.NewSessionHandler(deps.Services.Sessions).RegisterRoutes(sessionGroup)

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware)
		handlers.NewUserHandler(deps.Services.Users).RegisterRoutes(userGroup)
	}

	return r
}

func loginLimiter(deps Dependencies) gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}
	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       "login",
		Limit:      deps.Config.RateLimit.LoginMaxAttempts,
		Window:     deps.Config.RateLimit.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	})
}

func refreshLimiter(deps Dependencies) gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}
	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       "refresh",
		Limit:      deps.Config.RateLimit.RefreshMaxAttempts,
		Window:     deps.Config.RateLimit.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	})
}
