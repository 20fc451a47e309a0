package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kgviz/svc-kg/internal/server/vis"
	"github.com/kgviz/svc-kg/pkg/graph"
)

type visQuery struct {
	graphQuery
	Theme  string `query:"theme" validate:"omitempty,oneof=light dark"`
	Title  string `query:"title"`
	Debug  bool   `query:"debug"`
	Source string `query:"source" validate:"omitempty,oneof=server client"`
}

func (q *visQuery) applyVisDefaults(defaultTitle string) {
	if q.Theme == "" {
		q.Theme = "light"
	}
	if q.Title == "" {
		q.Title = defaultTitle
	}
	if q.Source == "" {
		q.Source = "server"
	}
}

func setVisHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Content-Security-Policy", vis.ContentSecurityPolicy)
	h.Set("X-Content-Type-Options", "nosniff")
}

// GetVisVisJSHandler serves the interactive vis-network page. In server mode
// the graph is fetched and embedded; in client mode the page fetches the JSON
// endpoint itself.
func GetVisVisJSHandler(c echo.Context) error {
	params := new(visQuery)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	params.applyVisDefaults("Knowledge Graph (vis.js)")

	var g graph.Graph
	if params.Source == "server" {
		fetched, err := fetchPreview(c, &params.graphQuery)
		if err != nil {
			return writeGraphError(c, err)
		}
		g = fetched
	}

	html, err := vis.RenderVisJS(vis.VisJSParams{
		Title:  params.Title,
		Theme:  params.Theme,
		Debug:  params.Debug,
		Source: params.Source,
		Graph:  g,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	setVisHeaders(c)
	return c.HTML(http.StatusOK, html)
}

// GetVisPyVisHandler serves the standalone PyVis-styled page. Data is always
// fetched server-side; PyVis output never had a client mode.
func GetVisPyVisHandler(c echo.Context) error {
	params := new(visQuery)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	params.applyVisDefaults("Knowledge Graph (PyVis)")

	g, err := fetchPreview(c, &params.graphQuery)
	if err != nil {
		return writeGraphError(c, err)
	}

	html, err := vis.RenderPyVis(vis.PyVisParams{
		Title:   params.Title,
		Theme:   params.Theme,
		Physics: true,
		Graph:   g,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	setVisHeaders(c)
	return c.HTML(http.StatusOK, html)
}
