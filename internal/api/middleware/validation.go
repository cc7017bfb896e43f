package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tailor-form/pkg/models"
	"tailor-form/pkg/utils"
)

// RequestValidationConfig configures RequestValidationWithConfig
type RequestValidationConfig struct {
	// BodyLimit caps POST bodies; 0 disables the cap
	BodyLimit int64

	// TooLargeHandler answers requests whose declared length exceeds
	// BodyLimit. Returning ErrUseDefaultTooLarge falls back to the JSON 413.
	TooLargeHandler func(c echo.Context, limit int64) error
}

// ErrUseDefaultTooLarge tells RequestValidationWithConfig to send its own 413
var ErrUseDefaultTooLarge = echo.NewHTTPError(http.StatusRequestEntityTooLarge)

// RequestValidation tags every request with an ID and rejects POST bodies
// larger than bodyLimit
func RequestValidation(bodyLimit int64) echo.MiddlewareFunc {
	return RequestValidationWithConfig(RequestValidationConfig{BodyLimit: bodyLimit})
}

// RequestValidationWithConfig returns a RequestValidation middleware with config
func RequestValidationWithConfig(config RequestValidationConfig) echo.MiddlewareFunc {
	bodyLimit := config.BodyLimit

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}
			c.Set("request_id", requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if c.Request().Method == http.MethodPost && bodyLimit > 0 {
				if c.Request().ContentLength > bodyLimit {
					if config.TooLargeHandler != nil {
						if err := config.TooLargeHandler(c, bodyLimit); !errors.Is(err, ErrUseDefaultTooLarge) {
							return err
						}
					}
					cerr := utils.NewPayloadTooLargeError(bodyLimit)
					return c.JSON(cerr.Code, models.ErrorResponse{
						Error:     "request_too_large",
						Message:   cerr.Error(),
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
				// chunked bodies carry no length up front
				c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, bodyLimit)
			}

			return next(c)
		}
	}
}
