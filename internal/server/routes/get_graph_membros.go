package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetGraphMembrosHandler serves the sanitized, truncated graph as JSON.
func GetGraphMembrosHandler(c echo.Context) error {
	params := new(graphQuery)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	g, err := fetchPreview(c, params)
	if err != nil {
		return writeGraphError(c, err)
	}

	return c.JSON(http.StatusOK, g)
}
