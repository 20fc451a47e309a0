package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// rawNode covers the field spellings observed across upstream revisions of
// the RPC: ids arrive as "id" or "node_id" and may be numbers, labels may be
// absent, group may arrive as "group" or "faccao_id".
type rawNode struct {
	ID       any     `json:"id"`
	NodeID   any     `json:"node_id"`
	Label    string  `json:"label"`
	Type     string  `json:"type"`
	Group    any     `json:"group"`
	FaccaoID any     `json:"faccao_id"`
	Size     float64 `json:"size"`
	PhotoURL string  `json:"photo_url"`
}

type rawEdge struct {
	Source   any      `json:"source"`
	From     any      `json:"from"`
	Target   any      `json:"target"`
	To       any      `json:"to"`
	Weight   *float64 `json:"weight"`
	Relation string   `json:"relation"`
	Label    string   `json:"label"`
}

type rawGraph struct {
	Nodes []rawNode `json:"nodes"`
	Edges []rawEdge `json:"edges"`
}

// Decode parses an upstream RPC body into a Graph without sanitizing it.
// It accepts the known upstream shapes: a {nodes,edges} object, a
// single-element array wrapping that object (PostgREST wraps scalar function
// results this way), and a flat array of node/edge records. Anything else is
// an error; silently flattening unknown payloads to an empty graph hides
// upstream schema drift.
func Decode(raw []byte) (Graph, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Graph{}, fmt.Errorf("invalid graph payload: %w", err)
	}

	switch v := probe.(type) {
	case map[string]any:
		return decodeObject(raw)
	case []any:
		if len(v) == 1 {
			if m, ok := v[0].(map[string]any); ok && looksLikeGraph(m) {
				if inner := unwrapSingle(raw); inner != nil {
					return Decode(inner)
				}
			}
		}
		return decodeRecords(raw)
	case nil:
		return Empty(), nil
	default:
		return Graph{}, fmt.Errorf("unrecognized graph payload shape: %T", probe)
	}
}

func decodeObject(raw []byte) (Graph, error) {
	var rg rawGraph
	if err := json.Unmarshal(raw, &rg); err != nil {
		return Graph{}, fmt.Errorf("invalid graph object: %w", err)
	}

	g := Empty()
	for _, n := range rg.Nodes {
		g.Nodes = append(g.Nodes, n.toNode())
	}
	for _, e := range rg.Edges {
		g.Edges = append(g.Edges, e.toEdge())
	}
	return g, nil
}

// decodeRecords handles the flat-list rendering: each record is either an
// edge row (has source/target or from/to) or a node row (has id or node_id).
func decodeRecords(raw []byte) (Graph, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return Graph{}, fmt.Errorf("invalid graph record list: %w", err)
	}

	g := Empty()
	for i, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return Graph{}, err
		}

		switch {
		case hasKeys(rec, "source", "target") || hasKeys(rec, "from", "to"):
			var e rawEdge
			if err := json.Unmarshal(body, &e); err != nil {
				return Graph{}, fmt.Errorf("record %d: %w", i, err)
			}
			g.Edges = append(g.Edges, e.toEdge())
		case hasKeys(rec, "id") || hasKeys(rec, "node_id"):
			var n rawNode
			if err := json.Unmarshal(body, &n); err != nil {
				return Graph{}, fmt.Errorf("record %d: %w", i, err)
			}
			g.Nodes = append(g.Nodes, n.toNode())
		default:
			return Graph{}, fmt.Errorf("record %d is neither a node nor an edge", i)
		}
	}
	return g, nil
}

// looksLikeGraph distinguishes a wrapped {nodes,edges} object from a
// single-record list: only the former gets unwrapped and recursed into.
func looksLikeGraph(m map[string]any) bool {
	_, hasNodes := m["nodes"]
	_, hasEdges := m["edges"]
	return hasNodes || hasEdges
}

func unwrapSingle(raw []byte) []byte {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil || len(list) != 1 {
		return nil
	}
	return list[0]
}

func hasKeys(rec map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := rec[k]; !ok {
			return false
		}
	}
	return true
}

func (n rawNode) toNode() Node {
	id := coerceID(n.ID)
	if id == "" {
		id = coerceID(n.NodeID)
	}
	group := coerceID(n.Group)
	if group == "" {
		group = coerceID(n.FaccaoID)
	}
	return Node{
		ID:       id,
		Label:    n.Label,
		Type:     n.Type,
		Group:    group,
		Size:     n.Size,
		PhotoURL: n.PhotoURL,
	}
}

func (e rawEdge) toEdge() Edge {
	src := coerceID(e.Source)
	if src == "" {
		src = coerceID(e.From)
	}
	dst := coerceID(e.Target)
	if dst == "" {
		dst = coerceID(e.To)
	}
	weight := 1.0
	if e.Weight != nil {
		weight = *e.Weight
	}
	rel := e.Relation
	if rel == "" {
		rel = e.Label
	}
	return Edge{Source: src, Target: dst, Weight: weight, Relation: rel}
}

// coerceID renders an id-ish JSON value as a string. Numbers print without a
// trailing ".0" so that JSON 1 and "1" collapse to the same id.
func coerceID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
