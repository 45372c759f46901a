package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantguard/internal/handler"
	"github.com/suteetoe/tenantguard/internal/middleware"
	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/ratelimit"
	"github.com/suteetoe/tenantguard/internal/repository"
	"github.com/suteetoe/tenantguard/internal/sanitize"
	"github.com/suteetoe/tenantguard/internal/session"
	"github.com/suteetoe/tenantguard/internal/tenantscope"
	"github.com/suteetoe/tenantguard/pkg/config"
	"github.com/suteetoe/tenantguard/pkg/database"
	"github.com/suteetoe/tenantguard/pkg/jwtutil"
	"github.com/suteetoe/tenantguard/pkg/logger"
	"github.com/suteetoe/tenantguard/pkg/redisclient"
	"github.com/suteetoe/tenantguard/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "tenantguard",
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting tenantguard...", cfg.LogConfig()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
		AutoMigrate:     cfg.DB.AutoMigrate,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)
	if tables, err := tenantscope.ScopedTables(db, model.All()...); err != nil {
		log.Fatal("Failed to parse models", zap.Error(err))
	} else {
		log.Info("Tenant scoped tables", zap.Int("count", len(tables)), zap.Strings("tables", tables))
	}

	redisClient, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient == nil {
		log.Warn("REDIS_ADDR not set, rate limiting is disabled")
	} else {
		defer redisClient.Close()
	}

	clock := clockwork.NewRealClock()
	limiter := ratelimit.New(redisClient, ratelimit.WithClock(clock), ratelimit.WithLogger(log.Named("ratelimit")))
	quota := ratelimit.NewQuota(redisClient, clock, log.Named("ai_quota"))

	sanitize.SetWarnLogger(log.Named("sanitize"))
	if cfg.IsProduction() {
		sanitize.SetWarnLogger(zap.NewNop())
	}

	users := repository.NewUserRepository(db)
	tenants := repository.NewTenantRepository(db)
	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: cfg.JWT.SigningKey, Expiration: cfg.JWT.Expiration})
	issuer := session.NewIssuer(users, tenants, tokens,
		session.WithProduction(cfg.IsProduction()),
		session.WithBcryptCost(cfg.Auth.BcryptCost))

	authHandler := handler.NewAuthHandler(issuer)
	sessionHandler := handler.NewSessionHandler(issuer)
	tenantHandler := handler.NewTenantHandler(users, tenants)
	rateLimitHandler := handler.NewRateLimitHandler(limiter, quota, tenants)

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = middleware.IPExtractor(cfg.Server.TrustedProxies)
	e.Validator = sanitize.NewValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login, middleware.RateLimit(limiter, ratelimit.ActionLogin, middleware.ByClientIP))
	auth.POST("/register", authHandler.Register, middleware.RateLimit(limiter, ratelimit.ActionRegister, middleware.ByClientIP))
	auth.POST("/password-reset", authHandler.PasswordReset, middleware.RateLimit(limiter, ratelimit.ActionPasswordReset, middleware.ByClientIP))

	if cfg.Auth.InternalAPIKey != "" {
		internal := e.Group("/internal", echomiddleware.KeyAuthWithConfig(echomiddleware.KeyAuthConfig{
			KeyLookup: "header:X-Internal-API-Key",
			Validator: func(key string, _ echo.Context) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Auth.InternalAPIKey)) == 1, nil
			},
		}))
		internal.POST("/oauth/sign-in", authHandler.OAuthSignIn)
	} else {
		log.Warn("INTERNAL_API_KEY not set, OAuth broker callback is disabled")
	}

	// Rate limit before authentication so unauthenticated floods are cheap to refuse.
	api := e.Group("/api",
		middleware.RateLimit(limiter, ratelimit.ActionAPIGeneral, middleware.ByClientIP),
		middleware.Auth(issuer),
		middleware.TenantScope(db, tenants, cfg.Server.BaseDomain),
	)
	api.GET("/session", sessionHandler.Get)
	api.POST("/session/refresh", sessionHandler.Refresh)
	api.GET("/tenant", tenantHandler.GetTenant)
	api.GET("/team", tenantHandler.ListTeam, middleware.RequireRole(model.RoleManager))
	api.PATCH("/profile", tenantHandler.UpdateProfile)
	api.GET("/ratelimit/:action", rateLimitHandler.Status)
	api.GET("/ai/quota", rateLimitHandler.AIQuotaUsage)
	api.POST("/ai/chat/quota", rateLimitHandler.ConsumeAIQuota,
		middleware.RateLimit(limiter, ratelimit.ActionAIChat, middleware.ByTenant))

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
