package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"hitcapsule/internal/models"
)

// memoryChartRepository keeps charts in process memory when no database is configured
type memoryChartRepository struct {
	mu     sync.RWMutex
	charts map[string]models.Chart
}

// NewMemoryChartRepository creates an empty in-memory chart repository
func NewMemoryChartRepository() ChartRepository {
	return &memoryChartRepository{charts: make(map[string]models.Chart)}
}

func (r *memoryChartRepository) Save(ctx context.Context, chart *models.Chart) error {
	c := *chart
	c.SchemaVersion = models.CurrentSchemaVersion
	if c.FetchedAt.IsZero() {
		c.FetchedAt = time.Now()
	}
	c.Entries = append([]models.ChartEntry(nil), chart.Entries...)

	r.mu.Lock()
	r.charts[c.Date] = c
	r.mu.Unlock()
	return nil
}

func (r *memoryChartRepository) FindByDate(ctx context.Context, date string) (*models.Chart, error) {
	r.mu.RLock()
	c, ok := r.charts[date]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	c.Entries = append([]models.ChartEntry(nil), c.Entries...)
	return &c, nil
}

func (r *memoryChartRepository) ListDates(ctx context.Context, limit int) ([]string, error) {
	r.mu.RLock()
	dates := make([]string, 0, len(r.charts))
	for d := range r.charts {
		dates = append(dates, d)
	}
	r.mu.RUnlock()

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

func (r *memoryChartRepository) DeleteByDate(ctx context.Context, date string) error {
	r.mu.Lock()
	delete(r.charts, date)
	r.mu.Unlock()
	return nil
}

func (r *memoryChartRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.charts)), nil
}
