package graph

// TruncatePreview caps the graph at maxNodes/maxEdges so browser rendering
// stays responsive. Nodes keep their original order; edges are then filtered
// to the surviving node set and capped. The result of truncating an already
// truncated graph with the same bounds is the same graph.
func TruncatePreview(g Graph, maxNodes, maxEdges int) Graph {
	if maxNodes <= 0 || maxEdges <= 0 {
		return Empty()
	}
	if len(g.Nodes) <= maxNodes && len(g.Edges) <= maxEdges {
		return g
	}

	out := Empty()
	if len(g.Nodes) > maxNodes {
		out.Nodes = append(out.Nodes, g.Nodes[:maxNodes]...)
	} else {
		out.Nodes = append(out.Nodes, g.Nodes...)
	}

	kept := make(map[string]struct{}, len(out.Nodes))
	for _, n := range out.Nodes {
		kept[n.ID] = struct{}{}
	}

	for _, e := range g.Edges {
		if len(out.Edges) >= maxEdges {
			break
		}
		if _, ok := kept[e.Source]; !ok {
			continue
		}
		if _, ok := kept[e.Target]; !ok {
			continue
		}
		out.Edges = append(out.Edges, e)
	}

	return out
}
