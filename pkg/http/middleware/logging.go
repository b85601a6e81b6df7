package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "AMDScope/pkg/logger"
)

// RequestLogging logs one line per request. 5xx responses log at error level and
// requests slower than slow (when positive) at warn.
func RequestLogging(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			latency := time.Since(start)
			fields := []applogger.Field{
				applogger.String("request_id", GetRequestID(c)),
				applogger.String("method", req.Method),
				applogger.String("path", routeLabel(c)),
				applogger.String("query", req.URL.RawQuery),
				applogger.Int("status", status),
				applogger.Duration("latency_ms", latency),
				applogger.String("remote_ip", c.RealIP()),
			}

			switch {
			case status >= 500:
				l.Error("http request failed", fields...)
			case slow > 0 && latency >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}
