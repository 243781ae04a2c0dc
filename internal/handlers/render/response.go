package render

import (
	"net/http"
	"time"

	"hitcapsule/internal/models"

	"github.com/gin-gonic/gin"
)

// ChartEntry is one chart row in API responses
type ChartEntry struct {
	Rank   int    `json:"rank"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// ChartResponse is the JSON shape of a chart
type ChartResponse struct {
	Date      string       `json:"date"`
	Year      string       `json:"year"`
	FetchedAt time.Time    `json:"fetched_at"`
	Count     int          `json:"count"`
	Entries   []ChartEntry `json:"entries"`
}

// NewChartResponse converts a chart for the API
func NewChartResponse(chart *models.Chart) ChartResponse {
	entries := make([]ChartEntry, len(chart.Entries))
	for i, e := range chart.Entries {
		entries[i] = ChartEntry{Rank: e.Rank, Title: e.Title, Artist: e.Artist}
	}
	return ChartResponse{
		Date:      chart.Date,
		Year:      chart.Year(),
		FetchedAt: chart.FetchedAt,
		Count:     len(entries),
		Entries:   entries,
	}
}

// RenderChartJSON renders a chart as JSON response
func RenderChartJSON(c *gin.Context, chart *models.Chart) {
	c.JSON(http.StatusOK, NewChartResponse(chart))
}

// RenderError writes the standard error body. details is omitted when err is nil.
func RenderError(c *gin.Context, status int, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
