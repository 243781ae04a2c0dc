package services

import (
	"context"
	"log/slog"

	"hitcapsule/internal/models"
	"hitcapsule/internal/repositories"
)

// ArchivedChartSource serves charts from the archive and falls back to the
// wrapped source on a miss, archiving what it fetched. Published charts never
// change, so archived copies do not expire. Archive failures are logged and
// never fail the fetch.
type ArchivedChartSource struct {
	source ChartSource
	repo   repositories.ChartRepository
	logger *slog.Logger
}

// NewArchivedChartSource wraps source with the chart archive repo
func NewArchivedChartSource(source ChartSource, repo repositories.ChartRepository) *ArchivedChartSource {
	return &ArchivedChartSource{
		source: source,
		repo:   repo,
		logger: slog.Default().With("component", "chart_archive"),
	}
}

// FetchChart returns the archived chart for date, fetching it on a miss
func (a *ArchivedChartSource) FetchChart(ctx context.Context, date string) (*models.Chart, error) {
	archived, err := a.repo.FindByDate(ctx, date)
	if err != nil {
		a.logger.Warn("Chart archive lookup failed", "date", date, "error", err)
	} else if archived != nil && len(archived.Entries) > 0 {
		a.logger.Debug("Serving archived chart", "date", date)
		return archived, nil
	}

	chart, err := a.source.FetchChart(ctx, date)
	if err != nil {
		return nil, err
	}

	if err := a.repo.Save(ctx, chart); err != nil {
		a.logger.Warn("Failed to archive chart", "date", date, "error", err)
	}
	return chart, nil
}
