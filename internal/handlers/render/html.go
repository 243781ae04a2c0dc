package render

import (
	"log/slog"
	"net/http"
	"strings"

	"hitcapsule/internal/models"
	"hitcapsule/internal/templates"

	"github.com/gin-gonic/gin"
)

// WantsHTML reports whether the client prefers an HTML page over JSON
func WantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}

// RenderChartPage renders a chart as an HTML page
func RenderChartPage(c *gin.Context, chart *models.Chart) {
	tmpl, err := templates.GetTemplate("chart_page")
	if err != nil {
		slog.Error("Failed to load chart template", "error", err)
		RenderError(c, http.StatusInternalServerError, "Template error", nil)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := tmpl.Execute(c.Writer, struct{ Chart *models.Chart }{chart}); err != nil {
		slog.Error("Failed to execute chart template", "error", err)
	}
}
