package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/cache"
	"example.com/payment-planner/backend/internal/config"
	"example.com/payment-planner/backend/internal/handlers"
	"example.com/payment-planner/backend/internal/notifications"
	"example.com/payment-planner/backend/internal/parser"
	"example.com/payment-planner/backend/internal/planner"
	"example.com/payment-planner/backend/internal/repository"
	"example.com/payment-planner/backend/internal/vault"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool, planCache cache.Cache) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	notificationHub := notifications.NewHub()

	engine := planner.NewEngine(planner.Config{
		OverLimitBufferCents: cfg.Planner.OverLimitBufferCents,
		ReporterTargetCents:  cfg.Planner.ReporterTargetCents,
		ReporterTriggerCents: cfg.Planner.ReporterTriggerCents,
		AvalancheFloorCents:  cfg.Planner.AvalancheFloorCents,
		PayByLeadDays:        cfg.Planner.PayByLeadDays,
		PreferredIssuerKinds: cfg.Planner.PreferredIssuerKinds,
	})

	var parserService *parser.Service
	if cfg.Parser.APIKey != "" {
		client := parser.NewOpenAIClient(cfg.Parser.APIKey, cfg.Parser.BaseURL, cfg.Parser.Model, cfg.Parser.Timeout, cfg.Parser.MaxOutputTokens)
		parserService = parser.NewService(client)
	} else {
		logger.Warn("statement parsing disabled, PARSER_API_KEY is not set")
	}

	secretVault := vault.New()
	if cfg.Vault.Passcode != "" {
		if err := secretVault.Unlock(cfg.Vault.Passcode); err != nil {
			logger.Warn("vault auto-unlock failed", "error", err)
		}
	}

	authHandler := handlers.NewAuthHandler(userRepo, tokenRepo, tokenManager)
	institutionHandler := handlers.NewInstitutionHandler(institutionRepo)
	accountHandler := handlers.NewAccountHandler(accountRepo, institutionRepo)
	statementHandler := handlers.NewStatementHandler(statementRepo, parserService, cfg.Parser.Model, planCache, notificationHub)
	planHandler := handlers.NewPlanHandler(accountRepo, engine, planCache, cfg.Cache.PlanTTL, notificationHub)
	paymentHandler := handlers.NewPaymentHandler(transactionRepo, planCache, notificationHub)
	credentialHandler := handlers.NewCredentialHandler(credentialRepo, institutionRepo, secretVault)
	dashboardHandler := handlers.NewDashboardHandler(accountRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationHub)
	adminHandler := handlers.NewAdminHandler(adminRepo)

	registerRoutes(
		e,
		authHandler,
		institutionHandler,
		accountHandler,
		statementHandler,
		planHandler,
		paymentHandler,
		credentialHandler,
		dashboardHandler,
		notificationHandler,
		adminHandler,
		auth.JWTMiddleware(tokenManager),
		handlers.AdminMiddleware(userRepo, cfg.Admin.Emails),
		authRateLimiter(cfg.Auth),
		plannerRateLimiter(cfg.Planner),
	)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}

func plannerRateLimiter(cfg config.PlannerConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
