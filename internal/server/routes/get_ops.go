package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kgviz/svc-kg/internal/server/middleware"
)

func HealthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func LiveHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// ReadyHandler pings the graph source (and Redis, when that backend is in
// use) with a short deadline.
func ReadyHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := app.Source.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"detail": err.Error(),
		})
	}

	if pinger, ok := app.Cache.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"detail": "cache: " + err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// StatusHandler reports the process configuration for operators.
func StatusHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	return c.JSON(http.StatusOK, map[string]any{
		"service":        "svc-kg",
		"version":        app.Version,
		"uptime_seconds": int64(time.Since(app.StartedAt).Seconds()),
		"source":         app.Source.Kind(),
		"cache":          app.Cache.Kind(),
		"cache_ttl_s":    int64(app.CacheTTL.Seconds()),
		"photos_enabled": app.Photos.Enabled(),
		"rpc_fn":         app.RPCFn,
		"defaults": map[string]int{
			"max_pairs": app.DefaultMaxPairs,
			"max_nodes": app.DefaultMaxNodes,
			"max_edges": app.DefaultMaxEdges,
		},
	})
}
