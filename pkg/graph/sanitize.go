package graph

import "math"

// Sanitize makes a decoded graph well-formed: node ids are deduplicated
// (first occurrence wins), labels are cleaned of Postgres array-literal
// noise, edges with a missing endpoint are dropped, and nodes without an
// explicit size get one proportional to log(degree+1).
func Sanitize(g Graph) Graph {
	out := Empty()

	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}

		n.Label = CleanLabel(n.Label)
		if n.Label == "" {
			n.Label = n.ID
		}
		out.Nodes = append(out.Nodes, n)
	}

	degree := make(map[string]int, len(out.Nodes))
	for _, e := range g.Edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		if _, ok := seen[e.Source]; !ok {
			continue
		}
		if _, ok := seen[e.Target]; !ok {
			continue
		}
		if e.Weight == 0 {
			e.Weight = 1
		}
		out.Edges = append(out.Edges, e)
		degree[e.Source]++
		degree[e.Target]++
	}

	for i := range out.Nodes {
		if out.Nodes[i].Size == 0 {
			out.Nodes[i].Size = defaultSize(degree[out.Nodes[i].ID])
		}
	}

	return out
}

// defaultSize mirrors the sizing the visualization uses client-side, so raw
// JSON consumers see the same scale.
func defaultSize(degree int) float64 {
	return 14 + math.Log(float64(degree)+1)*10
}
