package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"tailor-form/internal/api/handlers"
	"tailor-form/internal/api/middleware"
	"tailor-form/internal/config"
	"tailor-form/internal/downloads"
	"tailor-form/internal/logging"
	"tailor-form/internal/submission"
)

const (
	formSubmitPath = "/submit"
	apiSubmitPath  = "/api/v1/submit"

	// room for the controller to render the client's own timeout error
	submitTimeoutGrace = 15 * time.Second
)

// submitTimeout bounds the submit routes just past the tailoring client's
// timeout. Zero leaves them unbounded like the client.
func submitTimeout(cfg *config.Config) time.Duration {
	if cfg.Tailor.Timeout <= 0 {
		return 0
	}
	return cfg.Tailor.Timeout + submitTimeoutGrace
}

// Dependencies are the collaborators the routes are wired to
type Dependencies struct {
	Client      submission.Tailorer
	Store       downloads.Store
	RateLimiter *middleware.RateLimiter // nil disables throttling
}

// SetupRoutes configures all routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) error {
	renderer, err := handlers.NewTemplateRenderer()
	if err != nil {
		return err
	}
	e.Renderer = renderer

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig(cfg.Server.CORSOrigins))
	e.Use(middleware.RequestValidationWithConfig(middleware.RequestValidationConfig{
		BodyLimit:       cfg.Server.BodyLimit,
		TooLargeHandler: handlers.FormTooLargeHandler(cfg, formSubmitPath),
	}))
	// submissions wait on the tailoring service; everything else is quick
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, submitTimeout(cfg), formSubmitPath, apiSubmitPath))

	publisher := downloads.NewPublisher(deps.Store)

	submitMiddleware := []echo.MiddlewareFunc{}
	if deps.RateLimiter != nil {
		submitMiddleware = append(submitMiddleware, deps.RateLimiter.Middleware())
	}

	// Form routes
	e.GET("/", handlers.FormHandler(cfg))
	e.POST(formSubmitPath, handlers.SubmitHandler(cfg, deps.Client, publisher), submitMiddleware...)
	e.GET(downloads.PathPrefix+":id", handlers.DownloadHandler(deps.Store))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Store))
		health.GET("/live", handlers.LivenessHandler)

		// Logging system monitoring
		health.GET("/logging", func(c echo.Context) error {
			if err := logging.GetGlobalLogger().Health(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
					"status": "degraded",
					"error":  err.Error(),
				})
			}
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status": "ok",
			})
		})
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(cfg))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.POST("/submit", handlers.APISubmitHandler(cfg, deps.Client, publisher), submitMiddleware...)
	}

	return nil
}
