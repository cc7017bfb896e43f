package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"tailor-form/internal/api/middleware"
	"tailor-form/internal/api/routes"
	"tailor-form/internal/config"
	"tailor-form/internal/downloads"
	"tailor-form/internal/logging"
	"tailor-form/internal/mux"
	"tailor-form/internal/tailor"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting tailor form server", map[string]interface{}{
		"tailor_endpoint": cfg.Tailor.Endpoint,
		"strict_mime":     cfg.Tailor.StrictMIME,
		"download_store":  cfg.Downloads.Store,
	})

	// Initialize download store
	store, err := downloads.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize download store", map[string]interface{}{"error": err.Error()})
	}
	defer store.Close()

	// Initialize tailoring client
	client, err := tailor.NewClient(tailor.ClientConfig{
		Endpoint:  cfg.Tailor.Endpoint,
		Timeout:   cfg.Tailor.Timeout,
		UserAgent: cfg.Tailor.UserAgent,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create tailoring client", map[string]interface{}{"error": err.Error()})
	}

	deps := routes.Dependencies{Client: client, Store: store}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.Downloads.CleanupInterval)
		defer deps.RateLimiter.Stop()
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup routes
	if err := routes.SetupRoutes(e, cfg, deps); err != nil {
		logger.Fatal("Failed to set up routes", map[string]interface{}{"error": err.Error()})
	}

	// Start HTTP, and gRPC when enabled, on one port
	m := mux.NewMultiplexer(cfg, store, e, logger)
	if err := m.Start(cfg.Address()); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	if err := m.Stop(); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Server shutdown complete")
}
