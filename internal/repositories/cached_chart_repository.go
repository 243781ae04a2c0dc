package repositories

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"hitcapsule/internal/cache"
	"hitcapsule/internal/models"
)

// chartCacheTTL bounds how long an archived chart stays hot in the cache.
// Historical charts never change, so this only limits memory use.
const chartCacheTTL = 24 * time.Hour

// cachedChartRepository wraps a ChartRepository with read-through caching
type cachedChartRepository struct {
	repository ChartRepository
	cache      cache.Cache
}

// NewCachedChartRepository creates a new cached chart repository
func NewCachedChartRepository(repository ChartRepository, c cache.Cache) ChartRepository {
	return &cachedChartRepository{
		repository: repository,
		cache:      c,
	}
}

// Save writes through to the repository and refreshes the cache entry
func (r *cachedChartRepository) Save(ctx context.Context, chart *models.Chart) error {
	if err := r.repository.Save(ctx, chart); err != nil {
		return err
	}
	r.cacheChart(ctx, chart)
	return nil
}

// FindByDate checks cache first, then repository
func (r *cachedChartRepository) FindByDate(ctx context.Context, date string) (*models.Chart, error) {
	key := cache.ChartKey(date)

	if chart := r.getFromCache(ctx, key); chart != nil {
		return chart, nil
	}

	chart, err := r.repository.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if chart != nil {
		r.cacheChart(ctx, chart)
	}
	return chart, nil
}

func (r *cachedChartRepository) ListDates(ctx context.Context, limit int) ([]string, error) {
	return r.repository.ListDates(ctx, limit)
}

// DeleteByDate invalidates the cache entry and deletes from the repository
func (r *cachedChartRepository) DeleteByDate(ctx context.Context, date string) error {
	if err := r.cache.Delete(ctx, cache.ChartKey(date)); err != nil {
		slog.Warn("Failed to invalidate cached chart", "date", date, "error", err)
	}
	return r.repository.DeleteByDate(ctx, date)
}

func (r *cachedChartRepository) Count(ctx context.Context) (int64, error) {
	return r.repository.Count(ctx)
}

func (r *cachedChartRepository) getFromCache(ctx context.Context, key string) *models.Chart {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Chart cache read failed", "key", key, "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	var chart models.Chart
	if err := json.Unmarshal(data, &chart); err != nil {
		slog.Error("Failed to unmarshal chart from cache", "key", key, "error", err)
		r.cache.Delete(ctx, key)
		return nil
	}
	return &chart
}

func (r *cachedChartRepository) cacheChart(ctx context.Context, chart *models.Chart) {
	key := cache.ChartKey(chart.Date)
	data, err := json.Marshal(chart)
	if err != nil {
		slog.Error("Failed to marshal chart for cache", "key", key, "error", err)
		return
	}
	if err := r.cache.Set(ctx, key, data, chartCacheTTL); err != nil {
		slog.Error("Failed to cache chart", "key", key, "error", err)
	}
}
