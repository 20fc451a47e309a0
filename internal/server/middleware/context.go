package middleware

import (
	"context"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"

	"github.com/kgviz/svc-kg/internal/cache"
	"github.com/kgviz/svc-kg/internal/rpc"
	"github.com/kgviz/svc-kg/internal/storage"
	"github.com/kgviz/svc-kg/pkg/graph"
)

// GraphSource produces the membership graph. Two implementations exist:
// the PostgREST RPC client and the direct-Postgres source.
type GraphSource interface {
	FetchGraph(ctx context.Context, p rpc.Params) (graph.Graph, error)
	Ping(ctx context.Context) error
	Kind() string
}

// App holds every process-wide dependency, constructed once in server.Init
// and handed to request handlers through the echo context.
type App struct {
	Source GraphSource
	Cache  cache.Cache
	Photos *storage.PhotoResolver

	// Key is nil when JWT auth is not configured.
	Key          *keyfunc.Keyfunc
	MasterAPIKey string

	RPCFn    string
	CacheTTL time.Duration

	DefaultMaxPairs int
	DefaultMaxNodes int
	DefaultMaxEdges int

	Version   string
	StartedAt time.Time
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
