package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tailor-form/internal/config"
	"tailor-form/internal/downloads"
	"tailor-form/internal/logging"
	"tailor-form/pkg/models"
	"tailor-form/pkg/utils"
)

// Version is reported by the health and status endpoints
const Version = "1.0.0"

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	logger := logging.LogWithRequestID(requestIDFrom(c))
	logger.Debug("Health check requested")

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports ready once the download store and the logging
// adapters answer
func ReadinessHandler(store downloads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestIDFrom(c))
		logger.Debug("Readiness check requested")

		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"api": "ok", "downloads": "ok", "logging": "ok"}
		status, code := "ready", http.StatusOK

		if err := store.Ping(ctx); err != nil {
			checks["downloads"] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		if err := logging.GetGlobalLogger().Health(); err != nil {
			checks["logging"] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}

		if code != http.StatusOK {
			logger.Warn("Readiness check failed", map[string]interface{}{"checks": checks})
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	logger := logging.LogWithRequestID(requestIDFrom(c))
	logger.Debug("Liveness check requested")

	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// StatusHandler provides detailed service status
func StatusHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestIDFrom(c))
		logger.Debug("Status check requested")

		return c.JSON(http.StatusOK, models.StatusResponse{
			Service:        "tailor-form",
			Version:        Version,
			Timestamp:      time.Now(),
			Uptime:         utils.FormatDuration(time.Since(startTime)),
			TailorEndpoint: cfg.Tailor.Endpoint,
			StrictMIME:     cfg.Tailor.StrictMIME,
			MaxFileSize:    cfg.Tailor.MaxFileSize,
			DownloadStore:  cfg.Downloads.Store,
			DownloadTTL:    cfg.Downloads.TTL.String(),
			GRPCEnabled:    cfg.Server.GRPC,
		})
	}
}
