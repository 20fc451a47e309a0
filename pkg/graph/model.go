package graph

// Node is a single vertex in the membership graph. IDs are always strings,
// regardless of how the upstream RPC serialized them.
type Node struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Type     string  `json:"type,omitempty"`
	Group    string  `json:"group,omitempty"`
	Size     float64 `json:"size,omitempty"`
	PhotoURL string  `json:"photo_url,omitempty"`
}

// Edge connects two nodes by id. Weight defaults to 1 when the upstream
// payload omits it.
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Weight   float64 `json:"weight"`
	Relation string  `json:"relation,omitempty"`
}

// Graph is the payload served to clients. A well-formed graph has no
// duplicate node ids and every edge endpoint present in Nodes.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty returns a graph with allocated, zero-length slices so it always
// serializes as {"nodes":[],"edges":[]} instead of null arrays.
func Empty() Graph {
	return Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// IsEmpty reports whether the graph has no nodes.
func (g Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}
