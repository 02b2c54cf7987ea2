package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging writes one access line per request. Scrape and probe
// endpoints are skipped to keep the output readable.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == "/metrics" || path == "/health" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			log.Printf("[%s] %s %s - %d (%s)",
				c.Request().Method,
				c.Request().RequestURI,
				c.Request().RemoteAddr,
				c.Response().Status,
				time.Since(start),
			)
			return err
		}
	}
}
