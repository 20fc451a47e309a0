package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kgviz/svc-kg/internal/cache"
	"github.com/kgviz/svc-kg/internal/rpc"
	"github.com/kgviz/svc-kg/internal/server/middleware"
	"github.com/kgviz/svc-kg/pkg/graph"
	"github.com/kgviz/svc-kg/pkg/logger"
)

// graphQuery is the shared query surface of the JSON and visualization
// endpoints. Pointer fields distinguish "absent" from zero so defaults apply.
type graphQuery struct {
	FaccaoID  *int  `query:"faccao_id" validate:"omitempty,gte=0"`
	IncludeCo *bool `query:"include_co"`
	MaxPairs  int   `query:"max_pairs" validate:"omitempty,gte=1,lte=100000"`
	MaxNodes  int   `query:"max_nodes" validate:"omitempty,gte=1,lte=50000"`
	MaxEdges  int   `query:"max_edges" validate:"omitempty,gte=1,lte=200000"`
	Cache     *bool `query:"cache"`
}

func (q *graphQuery) applyDefaults(app *middleware.App) {
	if q.MaxPairs == 0 {
		q.MaxPairs = app.DefaultMaxPairs
	}
	if q.MaxNodes == 0 {
		q.MaxNodes = app.DefaultMaxNodes
	}
	if q.MaxEdges == 0 {
		q.MaxEdges = app.DefaultMaxEdges
	}
}

func (q *graphQuery) includeCo() bool {
	return q.IncludeCo == nil || *q.IncludeCo
}

func (q *graphQuery) useCache() bool {
	return q.Cache == nil || *q.Cache
}

// fetchPreview runs the full data path: cache lookup, RPC fetch, sanitize,
// cache fill, truncation, photo resolution. The cache stores the sanitized
// graph before truncation, so differently sized previews share one entry.
func fetchPreview(c echo.Context, q *graphQuery) (graph.Graph, error) {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	q.applyDefaults(app)

	params := rpc.Params{
		FaccaoID:  q.FaccaoID,
		IncludeCo: q.includeCo(),
		MaxPairs:  q.MaxPairs,
	}
	key := cache.Key(app.RPCFn, params.FaccaoID, params.IncludeCo, params.MaxPairs)

	var g graph.Graph
	cached := false
	if q.useCache() && app.Cache != nil {
		if raw, ok := app.Cache.Get(ctx, key); ok {
			if err := json.Unmarshal(raw, &g); err == nil {
				cached = true
			} else {
				logger.Warn("Dropping undecodable cache entry", "key", key, "err", err)
			}
		}
	}

	if !cached {
		fetched, err := app.Source.FetchGraph(ctx, params)
		if err != nil {
			return graph.Graph{}, err
		}
		g = graph.Sanitize(fetched)

		if q.useCache() && app.Cache != nil {
			if raw, err := json.Marshal(g); err == nil {
				app.Cache.Set(ctx, key, raw, app.CacheTTL)
			}
		}
	}

	g = graph.TruncatePreview(g, q.MaxNodes, q.MaxEdges)

	if app.Photos.Enabled() {
		app.Photos.Resolve(ctx, g.Nodes)
	}

	return g, nil
}

// writeGraphError maps data-path failures onto the HTTP surface: missing
// upstream configuration is 503, upstream RPC failures and undecodable
// payloads are 502 with the upstream detail included.
func writeGraphError(c echo.Context, err error) error {
	var ue *rpc.UpstreamError
	switch {
	case errors.As(err, &ue):
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error":           "upstream_error",
			"upstream_status": ue.Status,
			"detail":          ue.Body,
		})
	case errors.Is(err, rpc.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":  "not_configured",
			"detail": err.Error(),
		})
	default:
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error":  "graph_fetch_error",
			"detail": err.Error(),
		})
	}
}
