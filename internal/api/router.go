package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hms/hospital-system/internal/api/handler"
	"github.com/hms/hospital-system/internal/api/middleware"
	"github.com/hms/hospital-system/internal/core/ports"
	"github.com/hms/hospital-system/internal/core/service"
	mongodb "github.com/hms/hospital-system/internal/infrastructure/db/mongo"
	redisdb "github.com/hms/hospital-system/internal/infrastructure/db/redis"
)

// RouterConfig carries the tunables the HTTP layer needs from the
// environment.
type RouterConfig struct {
	JWTSecret        string
	JWTTTL           time.Duration
	ResetTokenTTL    time.Duration
	ResetThrottleTTL time.Duration
}

// publicPrefixes lists paths the token middleware never inspects. The ACL
// carries matching public rules; keeping token parsing off these routes means
// a stale token in a client cannot break login or the probes.
var publicPrefixes = []string{
	"/api/v1/auth/",
	"/api/auth/",
	"/health",
	"/metrics",
	"/swagger",
	"/favicon.ico",
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Business routes are mounted under both /api/v1 and /api so older clients
// keep working.
func NewRouter(db *mongo.Database, rdb *redis.Client, notifier ports.Notifier, cfg RouterConfig, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("hms"))

	// --- Dependencies ---
	repo := mongodb.NewCredentialRepository(db)
	hasher := service.NewBcryptHasher(0)
	tokens := service.NewJWTTokenService(cfg.JWTSecret, cfg.JWTTTL)
	routing := service.NewRoutingResolver()
	throttle := redisdb.NewResetThrottle(rdb, cfg.ResetThrottleTTL)

	authService := service.NewAuthService(repo, hasher, tokens, routing, notifier, log)
	resetService := service.NewPasswordResetService(repo, hasher, notifier, throttle, cfg.ResetTokenTTL, log)

	authHandler := handler.NewAuthHandler(authService, resetService)

	// --- Access control ---
	e.Use(middleware.TokenBinding(tokens, repo, publicPrefixes, log))
	e.Use(middleware.ACL(middleware.DefaultRules(), log))

	// --- Auth routes, mounted twice ---
	for _, mount := range []string{"/api/v1", "/api"} {
		g := e.Group(mount + "/auth")
		g.POST("/register", authHandler.Register)
		g.POST("/login", authHandler.Login)
		g.POST("/forgot-password", authHandler.ForgotPassword)
		g.POST("/reset-password", authHandler.ResetPassword)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)
	e.GET("/favicon.ico", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	return e
}
