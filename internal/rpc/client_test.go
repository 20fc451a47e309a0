package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(NewClientParams{
		SupabaseURL: url,
		SupabaseKey: "test-key",
		Fn:          "get_graph_membros",
		Timeout:     5 * time.Second,
	})
}

func TestFetchGraphPrefixedParams(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/get_graph_membros" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Error("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing bearer token")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"nodes":[{"id":"1","label":"CV"}],"edges":[]}`))
	}))
	defer srv.Close()

	g, err := newTestClient(srv.URL).FetchGraph(context.Background(), Params{IncludeCo: true, MaxPairs: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "1" {
		t.Fatalf("unexpected graph: %+v", g)
	}
	if _, ok := gotBody["p_include_co"]; !ok {
		t.Fatalf("first attempt must use p_-prefixed params, got %v", gotBody)
	}
}

func TestFetchGraphFallsBackOnSignatureMismatch(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		if _, prefixed := body["p_max_pairs"]; prefixed {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"PGRST202","message":"Could not find the function"}`))
			return
		}
		w.Write([]byte(`{"nodes":[{"id":"a"}],"edges":[]}`))
	}))
	defer srv.Close()

	g, err := newTestClient(srv.URL).FetchGraph(context.Background(), Params{MaxPairs: 10})
	if err != nil {
		t.Fatalf("fallback should succeed, got: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(bodies))
	}
	if _, ok := bodies[1]["max_pairs"]; !ok {
		t.Fatalf("second attempt must use plain params, got %v", bodies[1])
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("unexpected graph: %+v", g)
	}
}

func TestFetchGraphBothAttemptsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"PGRST202","message":"no such function"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchGraph(context.Background(), Params{})
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusNotFound {
		t.Fatalf("expected upstream status 404, got %d", ue.Status)
	}
}

func TestFetchGraphUpstreamErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database on fire"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchGraph(context.Background(), Params{})
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusInternalServerError || ue.Body != "database on fire" {
		t.Fatalf("upstream details lost: %+v", ue)
	}
}

func TestFetchGraphUnwrapsSingleElementList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"nodes":[{"id":"x"}],"edges":[]}]`))
	}))
	defer srv.Close()

	g, err := newTestClient(srv.URL).FetchGraph(context.Background(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "x" {
		t.Fatalf("wrapped payload not unwrapped: %+v", g)
	}
}

func TestFetchGraphRepairsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// trailing comma is invalid JSON but repairable
		w.Write([]byte(`{"nodes":[{"id":"1"},],"edges":[]}`))
	}))
	defer srv.Close()

	g, err := newTestClient(srv.URL).FetchGraph(context.Background(), Params{})
	if err != nil {
		t.Fatalf("repairable payload should decode, got: %v", err)
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("unexpected graph: %+v", g)
	}
}

func TestFetchGraphMissingConfig(t *testing.T) {
	c := NewClient(NewClientParams{Fn: "get_graph_membros"})
	_, err := c.FetchGraph(context.Background(), Params{})
	if err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/" {
			t.Errorf("unexpected ping path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	// any HTTP response means the upstream is reachable
	if err := newTestClient(srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
