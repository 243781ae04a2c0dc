package repositories

import (
	"context"

	"hitcapsule/internal/models"
)

// ChartRepository archives scraped charts by date.
// FindByDate returns (nil, nil) when no chart is stored for the date.
type ChartRepository interface {
	Save(ctx context.Context, chart *models.Chart) error
	FindByDate(ctx context.Context, date string) (*models.Chart, error)
	ListDates(ctx context.Context, limit int) ([]string, error)
	DeleteByDate(ctx context.Context, date string) error
	Count(ctx context.Context) (int64, error)
}
