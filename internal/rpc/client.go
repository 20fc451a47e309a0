package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/kgviz/svc-kg/pkg/graph"
	"github.com/kgviz/svc-kg/pkg/logger"
)

// ErrNotConfigured marks a missing Supabase URL or key; handlers surface it
// as 503 rather than 502.
var ErrNotConfigured = errors.New("upstream not configured")

// Params are the arguments of the graph-producing Postgres function.
type Params struct {
	FaccaoID  *int
	IncludeCo bool
	MaxPairs  int
}

// UpstreamError carries the PostgREST status and body so handlers can
// surface them for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream rpc failed: status %d: %s", e.Status, e.Body)
}

// Client calls the graph RPC through PostgREST's /rpc/ convention.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	fn      string
}

type NewClientParams struct {
	SupabaseURL string
	SupabaseKey string
	Fn          string
	Timeout     time.Duration
}

func NewClient(params NewClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(params.SupabaseURL, "/"),
		apiKey:  params.SupabaseKey,
		fn:      params.Fn,
	}
}

// Kind identifies the source in /ops/status.
func (c *Client) Kind() string {
	return "postgrest"
}

// FetchGraph calls the RPC with p_-prefixed parameter names and, when the
// remote rejects that signature (PGRST202), once more with plain names.
// Deployed databases disagree on which convention the function was created
// with, so both must work transparently.
func (c *Client) FetchGraph(ctx context.Context, p Params) (graph.Graph, error) {
	body, err := c.call(ctx, map[string]any{
		"p_faccao_id":  p.FaccaoID,
		"p_include_co": p.IncludeCo,
		"p_max_pairs":  p.MaxPairs,
	})
	if err != nil {
		if !isSignatureMismatch(err) {
			return graph.Graph{}, err
		}
		logger.Debug("RPC signature mismatch, retrying with unprefixed parameters", "fn", c.fn)
		body, err = c.call(ctx, map[string]any{
			"faccao_id":  p.FaccaoID,
			"include_co": p.IncludeCo,
			"max_pairs":  p.MaxPairs,
		})
		if err != nil {
			return graph.Graph{}, err
		}
	}

	g, err := decodeBody(body)
	if err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

func (c *Client) call(ctx context.Context, payload map[string]any) ([]byte, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, fmt.Errorf("%w: supabase url/key missing", ErrNotConfigured)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, c.fn)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach supabase: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Ping checks connectivity to the PostgREST root. Any HTTP response counts;
// readiness only cares that the upstream is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: supabase url missing", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// isSignatureMismatch detects PostgREST's "function with these parameters not
// found" class of error, which is what an RPC created with the other naming
// convention produces.
func isSignatureMismatch(err error) bool {
	ue, ok := err.(*UpstreamError)
	if !ok {
		return false
	}
	if strings.Contains(ue.Body, "PGRST202") {
		return true
	}
	return ue.Status == http.StatusNotFound && strings.Contains(strings.ToLower(ue.Body), "function")
}

// decodeBody decodes the RPC body, with a repair pass for the occasional
// malformed rendering (stray trailing commas from intermediate proxies).
func decodeBody(body []byte) (graph.Graph, error) {
	g, err := graph.Decode(body)
	if err == nil {
		return g, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(body))
	if repairErr != nil {
		return graph.Graph{}, fmt.Errorf("unusable rpc payload: %w", err)
	}
	g, retryErr := graph.Decode([]byte(repaired))
	if retryErr != nil {
		return graph.Graph{}, fmt.Errorf("unusable rpc payload: %w", err)
	}
	logger.Warn("RPC payload needed JSON repair before decoding")
	return g, nil
}
