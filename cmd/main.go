package main

import (
	"cloudle-service/internal/handler"
	"cloudle-service/internal/middleware"
	"cloudle-service/pkg/config"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/jwtutil"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting cloudle control-plane service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire handlers to config and the telemetry backend
	handler.Init(cfg)
	log.Info("Telemetry gateway initialized", zap.String("base_url", cfg.Telemetry.BaseURL))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Registration and authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)
	auth.POST("/tenants", handler.CreateTenant)
	auth.GET("/tenants/exists", handler.TenantExists)

	// API routes - all require a verified session token
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Tenant details - scoped to the caller's own tenant
	api.GET("/tenants/:tenantId", handler.GetTenant, middleware.RequireTenantScope)

	// Application registry and lifecycle - every route is tenant-scoped
	apps := api.Group("/tenants/:tenantId/apps")
	apps.Use(middleware.RequireTenantScope)
	apps.POST("", handler.CreateApp)
	apps.GET("", handler.ListApps)
	apps.GET("/:appId", handler.GetApp)
	apps.PUT("/:appId", handler.UpdateApp)
	apps.DELETE("/:appId", handler.DeleteApp)
	apps.POST("/:appId/upload", handler.UploadApp)
	apps.GET("/:appId/metrics", handler.GetAppMetrics)

	// Log retrieval - addressed by appId, tenant scope enforced in handler
	api.GET("/logs", handler.GetAppLogs)

	// Engineering dashboard
	api.GET("/platform/metrics", handler.GetPlatformMetrics)
	api.GET("/tenants/usage", handler.GetTenantUsage)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
