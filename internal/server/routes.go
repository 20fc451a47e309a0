package server

import (
	"github.com/labstack/echo/v4"

	"github.com/kgviz/svc-kg/internal/server/middleware"
	"github.com/kgviz/svc-kg/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Operational probes stay unauthenticated
	e.GET("/health", routes.HealthHandler)
	e.GET("/live", routes.LiveHandler)
	e.GET("/ready", routes.ReadyHandler)
	e.GET("/ops/status", routes.StatusHandler)

	v1 := e.Group("/v1", middleware.AuthMiddleware)

	// Graph data
	v1.GET("/graph/membros", routes.GetGraphMembrosHandler)

	// Visualization pages
	v1.GET("/vis/visjs", routes.GetVisVisJSHandler)
	v1.GET("/vis/pyvis", routes.GetVisPyVisHandler)
}
