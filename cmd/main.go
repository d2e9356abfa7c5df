package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/phrazzld/powder/internal/handler"
	mid "github.com/phrazzld/powder/internal/middleware"
	"github.com/phrazzld/powder/internal/registry"
	"github.com/phrazzld/powder/pkg/config"
	"github.com/phrazzld/powder/pkg/database"
	"github.com/phrazzld/powder/pkg/logger"
	"github.com/phrazzld/powder/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file; fall back to plain environment variables when absent
	_ = godotenv.Load()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting powder",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the registry service into the handlers
	handler.Init(registry.New(database.GetDB(), log))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Name pool API routes
	nameAPI := e.Group("/api/names")
	nameAPI.GET("", handler.ListNames)
	nameAPI.GET("/:id", handler.GetName)
	nameAPI.POST("", handler.CreateName)
	nameAPI.PUT("/:id", handler.RenameName)
	nameAPI.PUT("/:id/notes", handler.UpdateNameNotes)
	nameAPI.DELETE("/:id", handler.DeleteName)

	// Project API routes
	projectAPI := e.Group("/api/projects")
	projectAPI.GET("", handler.ListProjects)
	projectAPI.GET("/stats", handler.GetProjectStats)
	projectAPI.GET("/:id", handler.GetProject)
	projectAPI.POST("", handler.CreateProject)
	projectAPI.PUT("/:id", handler.UpdateProject)
	projectAPI.POST("/:id/promote", handler.PromoteProject)
	projectAPI.DELETE("/:id", handler.DeleteProject)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
