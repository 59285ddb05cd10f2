package server

import (
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	authHandler *handlers.AuthHandler,
	institutionHandler *handlers.InstitutionHandler,
	accountHandler *handlers.AccountHandler,
	statementHandler *handlers.StatementHandler,
	planHandler *handlers.PlanHandler,
	paymentHandler *handlers.PaymentHandler,
	credentialHandler *handlers.CredentialHandler,
	dashboardHandler *handlers.DashboardHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
	plannerRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", authRateLimiter)

	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	institutions := api.Group("/institutions", authMiddleware)
	institutions.POST("", institutionHandler.Create)
	institutions.GET("", institutionHandler.List)
	institutions.GET("/:id", institutionHandler.Get)

	accounts := api.Group("/accounts", authMiddleware)
	accounts.POST("", accountHandler.Create)
	accounts.GET("", accountHandler.List)
	accounts.GET("/:id", accountHandler.Get)
	accounts.PUT("/:id", accountHandler.Update)
	accounts.DELETE("/:id", accountHandler.Delete)
	accounts.GET("/:id/statements", statementHandler.List)
	accounts.POST("/:id/statements", statementHandler.Ingest)
	accounts.POST("/:id/statements/parse", statementHandler.ParseAndIngest)
	accounts.GET("/:id/transactions", paymentHandler.History)

	statements := api.Group("/statements", authMiddleware)
	statements.POST("/parse", statementHandler.Parse)

	plans := api.Group("/plans", authMiddleware, plannerRateLimiter)
	plans.GET("/suggest", planHandler.Suggest)
	plans.GET("/export/csv", planHandler.ExportCSV)

	payments := api.Group("/payments", authMiddleware)
	payments.POST("/mark", paymentHandler.Mark)

	credentials := api.Group("/credentials", authMiddleware)
	credentials.POST("/vault/unlock", credentialHandler.Unlock)
	credentials.POST("/vault/lock", credentialHandler.Lock)
	credentials.GET("/vault/status", credentialHandler.Status)
	credentials.POST("", credentialHandler.Create)
	credentials.GET("", credentialHandler.List)
	credentials.GET("/:id/reveal", credentialHandler.Reveal)
	credentials.DELETE("/:id", credentialHandler.Delete)

	dashboard := api.Group("/dashboard", authMiddleware)
	dashboard.GET("", dashboardHandler.Overview)

	notifications := api.Group("/notifications", authMiddleware)
	notifications.GET("/stream", notificationHandler.Stream)

	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/tables", adminHandler.Tables)
	admin.GET("/usage", adminHandler.Usage)
}
