package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hitcapsule/internal/repositories"

	"golang.org/x/time/rate"
)

// Backfill outcomes reported per date
const (
	BackfillArchived = "archived"
	BackfillSkipped  = "skipped"
	BackfillFailed   = "failed"
)

// BackfillOptions describes which chart weeks to archive
type BackfillOptions struct {
	From time.Time
	To   time.Time

	// StepDays between chart dates, 7 for weekly charts
	StepDays int

	// Interval between page fetches
	Interval time.Duration
}

// BackfillReport counts what a backfill did
type BackfillReport struct {
	Archived    int      `json:"archived"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	FailedDates []string `json:"failed_dates,omitempty"`
}

// ChartBackfiller walks a date range and archives every chart not yet stored
type ChartBackfiller struct {
	source ChartSource
	repo   repositories.ChartRepository
	logger *slog.Logger
}

// NewChartBackfiller creates a backfiller. source should be the scraper
// itself, not the archived decorator.
func NewChartBackfiller(source ChartSource, repo repositories.ChartRepository) *ChartBackfiller {
	return &ChartBackfiller{
		source: source,
		repo:   repo,
		logger: slog.Default().With("component", "backfill"),
	}
}

// Dates lists the chart dates between from and to, inclusive
func (o BackfillOptions) Dates() ([]string, error) {
	if o.StepDays <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d days", o.StepDays)
	}
	if o.To.Before(o.From) {
		return nil, fmt.Errorf("range end %s is before start %s", o.To.Format(chartDateLayout), o.From.Format(chartDateLayout))
	}

	var dates []string
	for d := o.From; !d.After(o.To); d = d.AddDate(0, 0, o.StepDays) {
		dates = append(dates, d.Format(chartDateLayout))
	}
	return dates, nil
}

// Run archives each date in order. Single date failures are counted and the
// walk continues; cancellation stops it and returns the report so far.
func (b *ChartBackfiller) Run(ctx context.Context, opts BackfillOptions, progress func(date string, status string)) (BackfillReport, error) {
	var report BackfillReport

	dates, err := opts.Dates()
	if err != nil {
		return report, err
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, date := range dates {
		status, err := b.archive(ctx, limiter, date)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		switch status {
		case BackfillArchived:
			report.Archived++
		case BackfillSkipped:
			report.Skipped++
		default:
			report.Failed++
			report.FailedDates = append(report.FailedDates, date)
			b.logger.Warn("Failed to backfill chart", "date", date, "error", err)
		}
		if progress != nil {
			progress(date, status)
		}
	}

	b.logger.Info("Backfill complete",
		"archived", report.Archived,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

func (b *ChartBackfiller) archive(ctx context.Context, limiter *rate.Limiter, date string) (string, error) {
	existing, err := b.repo.FindByDate(ctx, date)
	if err != nil {
		return BackfillFailed, err
	}
	if existing != nil && len(existing.Entries) > 0 {
		return BackfillSkipped, nil
	}

	if err := limiter.Wait(ctx); err != nil {
		return BackfillFailed, err
	}
	chart, err := b.source.FetchChart(ctx, date)
	if err != nil {
		return BackfillFailed, err
	}
	if err := b.repo.Save(ctx, chart); err != nil {
		return BackfillFailed, err
	}
	return BackfillArchived, nil
}
