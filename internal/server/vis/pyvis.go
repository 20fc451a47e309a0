package vis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/kgviz/svc-kg/pkg/graph"
)

// PyVisParams drives the standalone page styled after the PyVis library's
// generated output: data baked into vis.DataSet literals, barnes-hut physics,
// no toolbar.
type PyVisParams struct {
	Title   string
	Theme   string
	Physics bool
	Graph   graph.Graph
}

type pyVisNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Title string  `json:"title,omitempty"`
	Group string  `json:"group,omitempty"`
	Color string  `json:"color"`
	Value float64 `json:"value,omitempty"`
	Shape string  `json:"shape"`
	Image string  `json:"image,omitempty"`
}

type pyVisEdge struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Title string  `json:"title,omitempty"`
	Value float64 `json:"value,omitempty"`
	Color string  `json:"color"`
}

type pyVisPage struct {
	Title      string
	Background string
	FontColor  string
	JSHref     string
	CSSHref    string
	NodesJSON  template.JS
	EdgesJSON  template.JS
	Physics    bool
}

// RenderPyVis colors and shapes the graph server-side and produces the page.
func RenderPyVis(params PyVisParams) (string, error) {
	labelByID := make(map[string]string, len(params.Graph.Nodes))
	for _, n := range params.Graph.Nodes {
		labelByID[n.ID] = n.Label
	}

	nodes := make([]pyVisNode, 0, len(params.Graph.Nodes))
	for _, n := range params.Graph.Nodes {
		pn := pyVisNode{
			ID:    n.ID,
			Label: n.Label,
			Title: n.Label,
			Group: n.Group,
			Color: ColorForNode(n.Type, n.Label),
			Value: n.Size,
			Shape: "dot",
		}
		if n.PhotoURL != "" {
			pn.Shape = "circularImage"
			pn.Image = n.PhotoURL
		}
		nodes = append(nodes, pn)
	}

	edges := make([]pyVisEdge, 0, len(params.Graph.Edges))
	for _, e := range params.Graph.Edges {
		edges = append(edges, pyVisEdge{
			From:  e.Source,
			To:    e.Target,
			Title: e.Relation,
			Value: e.Weight,
			Color: ColorForEdge(e.Relation, labelByID[e.Source], labelByID[e.Target]),
		})
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("failed to embed nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return "", fmt.Errorf("failed to embed edges: %w", err)
	}

	page := pyVisPage{
		Title:      params.Title,
		Background: "#ffffff",
		FontColor:  "#222222",
		JSHref:     visNetworkJS,
		CSSHref:    visNetworkCSS,
		NodesJSON:  template.JS(nodesJSON),
		EdgesJSON:  template.JS(edgesJSON),
		Physics:    params.Physics,
	}
	if params.Theme == "dark" {
		page.Background = "#0b0f19"
		page.FontColor = "#e0e0e0"
	}

	var buf bytes.Buffer
	if err := pyVisTemplate.Execute(&buf, page); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var pyVisTemplate = template.Must(template.New("pyvis").Parse(`<!doctype html>
<html lang="pt-br">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="{{.CSSHref}}">
    <style>
      html, body { height: 100%; margin: 0; background: {{.Background}}; color: {{.FontColor}}; }
      #mynetwork { height: 100vh; width: 100%; }
      .kg-empty { padding: 12px; font-family: sans-serif; }
    </style>
  </head>
  <body>
    <div id="mynetwork"></div>
    <script src="{{.JSHref}}"></script>
    <script>
      (function(){
        var nodes = new vis.DataSet({{.NodesJSON}});
        var edges = new vis.DataSet({{.EdgesJSON}});
        var container = document.getElementById('mynetwork');
        if (!nodes.length) {
          container.innerHTML = '<div class="kg-empty">Sem dados.</div>';
          return;
        }
        var options = {
          interaction: { hover: true, tooltipDelay: 120 },
          nodes: { shape: 'dot', size: 12, scaling: { min: 8, max: 32 } },
          edges: { smooth: { type: 'dynamic' }, arrows: { to: { enabled: true, scaleFactor: 0.5 } } },
          physics: {
            enabled: {{.Physics}},
            barnesHut: { gravitationalConstant: -2000, springLength: 95, springConstant: 0.04 }
          }
        };
        new vis.Network(container, { nodes: nodes, edges: edges }, options);
      })();
    </script>
  </body>
</html>
`))
