package utils

import (
	"time"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/labstack/echo/v4"
)

// Trace-level request logging for the coordinator's echo server.
func HttpLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.Tracef("%s %s %d (%s)",
			c.Request().Method, c.Request().URL.Path, c.Response().Status,
			time.Since(start).Round(time.Millisecond))
		return err
	}
}
