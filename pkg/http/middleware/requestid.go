package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDKey is the echo context key holding the request id.
const RequestIDKey = "request_id"

// RequestID propagates X-Request-ID or assigns a new UUID.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(RequestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}
