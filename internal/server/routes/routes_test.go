package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/kgviz/svc-kg/internal/cache"
	"github.com/kgviz/svc-kg/internal/rpc"
	"github.com/kgviz/svc-kg/internal/server/middleware"
	"github.com/kgviz/svc-kg/internal/storage"
	"github.com/kgviz/svc-kg/pkg/graph"
)

type fakeSource struct {
	graph   graph.Graph
	err     error
	calls   int
	pingErr error
}

func (f *fakeSource) FetchGraph(ctx context.Context, p rpc.Params) (graph.Graph, error) {
	f.calls++
	if f.err != nil {
		return graph.Graph{}, f.err
	}
	return f.graph, nil
}

func (f *fakeSource) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeSource) Kind() string { return "fake" }

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

func newTestApp(source *fakeSource) *middleware.App {
	return &middleware.App{
		Source:          source,
		Cache:           cache.NewMemory(16),
		Photos:          storage.NewPhotoResolver(nil),
		RPCFn:           "get_graph_membros",
		CacheTTL:        time.Minute,
		DefaultMaxPairs: 8000,
		DefaultMaxNodes: 2000,
		DefaultMaxEdges: 4000,
		Version:         "test",
		StartedAt:       time.Now(),
	}
}

func doRequest(app *middleware.App, handler echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	ac := &middleware.AppContext{Context: c, App: app}

	if err := handler(ac); err != nil {
		e.HTTPErrorHandler(err, ac)
	}
	return rec
}

func TestGetGraphMembros(t *testing.T) {
	source := &fakeSource{graph: graph.Graph{
		Nodes: []graph.Node{
			{ID: "1", Label: "{CV,null}"},
			{ID: "2", Label: "Fulano"},
		},
		Edges: []graph.Edge{
			{Source: "1", Target: "2", Weight: 1},
			{Source: "2", Target: "99", Weight: 1},
		},
	}}

	rec := doRequest(newTestApp(source), GetGraphMembrosHandler, "/v1/graph/membros?include_co=true")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var g graph.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[0].Label != "CV" {
		t.Fatalf("label not cleaned: %q", g.Nodes[0].Label)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("dangling edge not dropped: %d edges", len(g.Edges))
	}
}

func TestGetGraphMembrosTruncates(t *testing.T) {
	src := &fakeSource{graph: graph.Graph{}}
	for i := 0; i < 50; i++ {
		src.graph.Nodes = append(src.graph.Nodes, graph.Node{ID: string(rune('A' + i))})
	}

	rec := doRequest(newTestApp(src), GetGraphMembrosHandler, "/v1/graph/membros?max_nodes=5&max_edges=5")

	var g graph.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(g.Nodes) > 5 {
		t.Fatalf("truncation bound violated: %d nodes", len(g.Nodes))
	}
}

func TestGetGraphMembrosUsesCache(t *testing.T) {
	source := &fakeSource{graph: graph.Graph{Nodes: []graph.Node{{ID: "1"}}}}
	app := newTestApp(source)

	doRequest(app, GetGraphMembrosHandler, "/v1/graph/membros")
	doRequest(app, GetGraphMembrosHandler, "/v1/graph/membros")

	if source.calls != 1 {
		t.Fatalf("second request should hit the cache, source called %d times", source.calls)
	}
}

func TestGetGraphMembrosCacheBypass(t *testing.T) {
	source := &fakeSource{graph: graph.Graph{Nodes: []graph.Node{{ID: "1"}}}}
	app := newTestApp(source)

	doRequest(app, GetGraphMembrosHandler, "/v1/graph/membros?cache=false")
	doRequest(app, GetGraphMembrosHandler, "/v1/graph/membros?cache=false")

	if source.calls != 2 {
		t.Fatalf("cache=false must bypass the cache, source called %d times", source.calls)
	}
}

func TestGetGraphMembrosUpstreamError(t *testing.T) {
	source := &fakeSource{err: &rpc.UpstreamError{Status: 500, Body: "boom"}}

	rec := doRequest(newTestApp(source), GetGraphMembrosHandler, "/v1/graph/membros")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("upstream detail missing from body: %s", rec.Body.String())
	}
}

func TestGetGraphMembrosNotConfigured(t *testing.T) {
	source := &fakeSource{err: rpc.ErrNotConfigured}

	rec := doRequest(newTestApp(source), GetGraphMembrosHandler, "/v1/graph/membros")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestGetGraphMembrosInvalidParams(t *testing.T) {
	rec := doRequest(newTestApp(&fakeSource{}), GetGraphMembrosHandler, "/v1/graph/membros?max_nodes=-3")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVisJSServerModeEmbedsData(t *testing.T) {
	source := &fakeSource{graph: graph.Graph{Nodes: []graph.Node{{ID: "7", Label: "CV"}}}}

	rec := doRequest(newTestApp(source), GetVisVisJSHandler, "/v1/vis/visjs?theme=dark&title=Mapa")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="__KG_DATA__"`) {
		t.Fatal("server mode must embed data")
	}
	if !strings.Contains(body, "<title>Mapa</title>") {
		t.Fatal("custom title missing")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("CSP header missing")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("nosniff header missing")
	}
}

func TestVisJSClientModeSkipsFetch(t *testing.T) {
	source := &fakeSource{}

	rec := doRequest(newTestApp(source), GetVisVisJSHandler, "/v1/vis/visjs?source=client")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if source.calls != 0 {
		t.Fatalf("client mode must not fetch server-side, got %d calls", source.calls)
	}
}

func TestVisJSEmptyUpstream(t *testing.T) {
	source := &fakeSource{graph: graph.Empty()}

	rec := doRequest(newTestApp(source), GetVisVisJSHandler, "/v1/vis/visjs")

	if rec.Code != http.StatusOK {
		t.Fatalf("empty graph must still render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sem dados") {
		t.Fatal("no-data placeholder missing from page")
	}
}

func TestVisJSRejectsBadSource(t *testing.T) {
	rec := doRequest(newTestApp(&fakeSource{}), GetVisVisJSHandler, "/v1/vis/visjs?source=evil")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPyVisRendersGraph(t *testing.T) {
	source := &fakeSource{graph: graph.Graph{
		Nodes: []graph.Node{{ID: "1", Label: "PCC", Type: "faccao"}},
	}}

	rec := doRequest(newTestApp(source), GetVisPyVisHandler, "/v1/vis/pyvis")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "#0d47a1") {
		t.Fatal("PCC faction color missing from page")
	}
}

func TestReadyHandler(t *testing.T) {
	rec := doRequest(newTestApp(&fakeSource{}), ReadyHandler, "/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(newTestApp(&fakeSource{pingErr: errors.New("down")}), ReadyHandler, "/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when source is down, got %d", rec.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	rec := doRequest(newTestApp(&fakeSource{}), StatusHandler, "/ops/status")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid status body: %v", err)
	}
	if status["source"] != "fake" || status["cache"] != "memory" {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestHealthHandlers(t *testing.T) {
	for _, h := range []echo.HandlerFunc{HealthHandler, LiveHandler} {
		rec := doRequest(newTestApp(&fakeSource{}), h, "/health")
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("unexpected probe response: %d %q", rec.Code, rec.Body.String())
		}
	}
}
