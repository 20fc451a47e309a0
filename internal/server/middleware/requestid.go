package middleware

import (
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with a nanoid unless the caller
// already supplied one.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(RequestIDHeader)
		if id == "" {
			id, _ = gonanoid.New()
		}
		c.Set("request_id", id)
		c.Response().Header().Set(RequestIDHeader, id)
		return next(c)
	}
}
