package main

import (
	"github.com/johanandu/selfstoragejandu/internal/gate"
	"github.com/johanandu/selfstoragejandu/internal/handler"
	"github.com/johanandu/selfstoragejandu/internal/invoice"
	"github.com/johanandu/selfstoragejandu/internal/middleware"
	"github.com/johanandu/selfstoragejandu/internal/payment"
	"github.com/johanandu/selfstoragejandu/internal/repository"
	"github.com/johanandu/selfstoragejandu/internal/service"
	"github.com/johanandu/selfstoragejandu/pkg/config"
	"github.com/johanandu/selfstoragejandu/pkg/database"
	"github.com/johanandu/selfstoragejandu/pkg/jwtutil"
	"github.com/johanandu/selfstoragejandu/pkg/logger"
	"github.com/johanandu/selfstoragejandu/prometheus"

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
	log.Info("Starting storage gate service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// External collaborators
	store := repository.NewStore(db)
	paymentClient := payment.NewClient(&cfg.Stripe, log)
	gateClient := gate.NewClient(&cfg.Gate, log)
	invoiceClient := invoice.NewClient(&cfg.Invoice, log)

	// Engines
	accessService := service.NewAccessService(store, store, gateClient, log)
	reconcileService := service.NewReconcileService(store, store, store, paymentClient, invoiceClient, &cfg.Stripe, log)

	// Handlers
	gateHandler := handler.NewGateHandler(accessService)
	webhookHandler := handler.NewWebhookHandler(reconcileService)
	checkoutHandler := handler.NewCheckoutHandler(store, paymentClient)
	unitHandler := handler.NewUnitHandler(store)

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

	// Inbound payment events - authenticated by signature, not by bearer token
	e.POST("/webhooks/stripe", webhookHandler.HandleEvent)

	// Public API - checkout can start before signup
	e.GET("/api/units", unitHandler.ListUnits)
	e.POST("/api/checkout", checkoutHandler.CreateCheckout)

	// Authenticated API
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.POST("/gate/open", gateHandler.OpenGate)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
