package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SelectiveTimeoutConfig applies longTimeout to paths under longPrefixes and
// defaultTimeout everywhere else. A zero longTimeout leaves those paths
// unbounded.
func SelectiveTimeoutConfig(defaultTimeout, longTimeout time.Duration, longPrefixes ...string) echo.MiddlewareFunc {
	isLong := func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, prefix := range longPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	short := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: isLong,
		Timeout: defaultTimeout,
	})
	long := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool { return longTimeout <= 0 || !isLong(c) },
		Timeout: longTimeout,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return short(long(next))
	}
}
