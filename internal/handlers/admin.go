package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"hitcapsule/internal/cache"
	"hitcapsule/internal/handlers/render"
	"hitcapsule/internal/models"
	"hitcapsule/internal/repositories"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

const defaultRecentDates = 20

// AdminHandler exposes the chart archive
type AdminHandler struct {
	charts repositories.ChartRepository
	cache  cache.Cache
	db     *models.Database
}

// NewAdminHandler creates a new admin handler. db may be nil when the
// archive lives in memory.
func NewAdminHandler(charts repositories.ChartRepository, c cache.Cache, db *models.Database) *AdminHandler {
	return &AdminHandler{charts: charts, cache: c, db: db}
}

// ArchiveStats summarizes the chart archive
type ArchiveStats struct {
	Charts      int64          `json:"charts"`
	RecentDates []string       `json:"recent_dates"`
	Database    *DatabaseStats `json:"database,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
}

// DatabaseStats represents MongoDB storage statistics
type DatabaseStats struct {
	DatabaseName string  `json:"database_name"`
	DataSize     float64 `json:"data_size_mb"`
	StorageSize  float64 `json:"storage_size_mb"`
	IndexSize    float64 `json:"index_size_mb"`
	Documents    int64   `json:"documents"`
}

// GetArchiveStats handles GET /api/v1/admin/archive
func (h *AdminHandler) GetArchiveStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	limit := defaultRecentDates
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			render.RenderError(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	count, err := h.charts.Count(ctx)
	if err != nil {
		slog.Error("Failed to count archived charts", "error", err)
		render.RenderError(c, http.StatusInternalServerError, "Failed to collect archive statistics", nil)
		return
	}
	dates, err := h.charts.ListDates(ctx, limit)
	if err != nil {
		slog.Error("Failed to list archived charts", "error", err)
		render.RenderError(c, http.StatusInternalServerError, "Failed to collect archive statistics", nil)
		return
	}

	stats := ArchiveStats{
		Charts:      count,
		RecentDates: dates,
		LastUpdated: time.Now(),
	}

	if h.db != nil {
		dbStats, err := h.collectDatabaseStats(ctx)
		if err != nil {
			slog.Warn("Failed to collect database stats", "error", err)
		} else {
			stats.Database = dbStats
		}
	}

	c.JSON(http.StatusOK, stats)
}

// DeleteChart handles DELETE /api/v1/admin/charts/:date. The next request
// for the date scrapes it again.
func (h *AdminHandler) DeleteChart(c *gin.Context) {
	date := c.Param("date")

	if err := h.charts.DeleteByDate(c.Request.Context(), date); err != nil {
		slog.Error("Failed to delete archived chart", "date", date, "error", err)
		render.RenderError(c, http.StatusInternalServerError, "Failed to delete chart", err)
		return
	}
	if err := h.cache.Delete(c.Request.Context(), cache.ChartKey(date)); err != nil {
		slog.Warn("Failed to evict cached chart", "date", date, "error", err)
	}

	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	var raw bson.M
	if err := h.db.DB.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}

	return &DatabaseStats{
		DatabaseName: h.db.DB.Name(),
		DataSize:     megabytes(raw["dataSize"]),
		StorageSize:  megabytes(raw["storageSize"]),
		IndexSize:    megabytes(raw["indexSize"]),
		Documents:    int64(number(raw["objects"])),
	}, nil
}

// number reads a numeric bson value; dbStats reports int32, int64 or double
// depending on server version
func number(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func megabytes(v interface{}) float64 {
	return number(v) / 1024 / 1024
}
