package pgdirect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kgviz/svc-kg/internal/rpc"
	"github.com/kgviz/svc-kg/pkg/graph"
)

// Source invokes the graph function directly over a Postgres connection,
// bypassing PostgREST. Used when the service runs next to the database and a
// DATABASE_URL is configured; the function returns its payload as jsonb, so
// the body goes through the same decoding path as the HTTP client's.
type Source struct {
	pool *pgxpool.Pool
	fn   string
}

func New(pool *pgxpool.Pool, fn string) *Source {
	return &Source{pool: pool, fn: fn}
}

func (s *Source) Kind() string {
	return "postgres"
}

func (s *Source) FetchGraph(ctx context.Context, p rpc.Params) (graph.Graph, error) {
	query := fmt.Sprintf("SELECT %s($1, $2, $3)", s.fn)

	var body []byte
	if err := s.pool.QueryRow(ctx, query, p.FaccaoID, p.IncludeCo, p.MaxPairs).Scan(&body); err != nil {
		return graph.Graph{}, fmt.Errorf("graph function call failed: %w", err)
	}

	g, err := graph.Decode(body)
	if err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

func (s *Source) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Source) Close() {
	s.pool.Close()
}
