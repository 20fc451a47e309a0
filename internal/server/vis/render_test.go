package vis

import (
	"strings"
	"testing"

	"github.com/kgviz/svc-kg/pkg/graph"
)

func sampleGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "1", Label: "CV", Type: "faccao"},
			{ID: "2", Label: "Fulano", Type: "membro", PhotoURL: "https://example.com/p.jpg"},
		},
		Edges: []graph.Edge{
			{Source: "2", Target: "1", Weight: 1, Relation: "PERTENCE_A"},
		},
	}
}

func TestRenderVisJSServerMode(t *testing.T) {
	html, err := RenderVisJS(VisJSParams{
		Title:  "Test Graph",
		Theme:  "light",
		Source: "server",
		Graph:  sampleGraph(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"<title>Test Graph</title>",
		`id="__KG_DATA__"`,
		`"id":"1"`,
		"kg-search",
		"vis-network",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
}

func TestRenderVisJSClientMode(t *testing.T) {
	html, err := RenderVisJS(VisJSParams{
		Title:  "Client",
		Theme:  "dark",
		Source: "client",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(html, `id="__KG_DATA__"`) {
		t.Fatal("client mode must not embed data")
	}
	if !strings.Contains(html, `data-source="client"`) {
		t.Fatal("client mode marker missing")
	}
	if !strings.Contains(html, "#0b0f19") {
		t.Fatal("dark theme background missing")
	}
}

func TestRenderPyVis(t *testing.T) {
	html, err := RenderPyVis(PyVisParams{
		Title:   "PyVis Style",
		Physics: true,
		Graph:   sampleGraph(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"<title>PyVis Style</title>",
		"circularImage",
		ColorCV,
		"barnesHut",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
}

func TestRenderPyVisEmptyGraph(t *testing.T) {
	html, err := RenderPyVis(PyVisParams{Title: "Empty", Graph: graph.Empty()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "Sem dados") {
		t.Fatal("empty graph placeholder missing")
	}
}
