// FitStack Orders Microservice
//
// This is the main entry point for the package-order service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitstack/fitstack-orders/config"
	"github.com/fitstack/fitstack-orders/internal/api"
	"github.com/fitstack/fitstack-orders/internal/orders"
	"github.com/fitstack/fitstack-orders/internal/platform/fitstack_core"
	"github.com/fitstack/fitstack-orders/internal/platform/mercadopago"
	"github.com/fitstack/fitstack-orders/internal/platform/orderstore"
	"github.com/fitstack/fitstack-orders/internal/platform/redislock"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Info("Starting FitStack Orders Service...")

	// Load configuration
	cfg := config.Load()
	sugar.Infof("Configuration loaded: Port=%s, CoreURL=%s", cfg.Server.Port, cfg.Core.BaseURL)

	// Validate required configuration
	if err := validateConfig(cfg, sugar); err != nil {
		sugar.Fatalf("Configuration error: %v", err)
	}

	// Order store
	db, err := orderstore.Open(cfg.Store.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Database error: %v", err)
	}
	store := orderstore.NewStore(db)

	// Reconciliation lock
	redisOpts, err := redis.ParseURL(cfg.Store.RedisURL)
	if err != nil {
		sugar.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	locker := redislock.NewLocker(redisClient, 0)

	// Wire up dependencies (manual dependency injection)
	coreClient := fitstackcore.NewClient(cfg.Core.BaseURL, cfg.Core.APIKey)
	mpAdapter, err := mercadopago.NewAdapter(
		cfg.MercadoPago.AccessToken,
		cfg.Server.PublicBaseURL,
		cfg.Server.APIBaseURL,
	)
	if err != nil {
		sugar.Fatalf("Mercado Pago error: %v", err)
	}

	// Service Layer
	orderService := orders.NewService(
		store,      // implements domain.OrderRepository
		coreClient, // implements domain.CatalogRepository
		mpAdapter,  // implements domain.PaymentGateway
		coreClient, // implements domain.ActivationNotifier
		locker,     // implements domain.ReconcileLocker
		sugar,
	)

	// API Layer
	handler := api.NewHandler(
		orderService,
		mercadopago.NewWebhookValidator(),
		cfg.MercadoPago.WebhookSecret,
		sugar,
	)
	router := api.SetupRouter(handler, cfg.Server.GinMode, cfg.Security.AdminAPIKey)

	// Start server in a goroutine
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		sugar.Infof("Server listening on %s", serverAddr)
		if err := router.Run(serverAddr); err != nil {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("Shutting down server...")
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config, sugar *zap.SugaredLogger) error {
	if cfg.Core.BaseURL == "" {
		return fmt.Errorf("FITSTACK_CORE_URL is required")
	}
	if cfg.MercadoPago.AccessToken == "" {
		return fmt.Errorf("MP_ACCESS_TOKEN is required")
	}
	if cfg.MercadoPago.WebhookSecret == "" {
		sugar.Warn("MP_WEBHOOK_SECRET not set, webhook signatures will not be verified")
	}
	if cfg.Security.AdminAPIKey == "" {
		sugar.Warn("ADMIN_API_KEY not set, admin routes are disabled")
	}
	return nil
}
