package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hitcapsule/internal/models"
)

// mongoChartRepository implements ChartRepository using MongoDB
type mongoChartRepository struct {
	collection *mongo.Collection
}

// NewMongoChartRepository creates a new MongoDB-backed chart repository
func NewMongoChartRepository(db *models.Database) ChartRepository {
	return &mongoChartRepository{
		collection: db.DB.Collection(models.ChartsCollection),
	}
}

// Save upserts the chart keyed by its date
func (r *mongoChartRepository) Save(ctx context.Context, chart *models.Chart) error {
	if chart.Date == "" {
		return fmt.Errorf("chart date is required")
	}

	chart.SchemaVersion = models.CurrentSchemaVersion
	if chart.FetchedAt.IsZero() {
		chart.FetchedAt = time.Now()
	}

	doc := bson.M{
		"schema_version": chart.SchemaVersion,
		"date":           chart.Date,
		"entries":        chart.Entries,
		"fetched_at":     chart.FetchedAt,
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"date": chart.Date},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save chart %s: %w", chart.Date, err)
	}
	return nil
}

// FindByDate finds the archived chart for a date
func (r *mongoChartRepository) FindByDate(ctx context.Context, date string) (*models.Chart, error) {
	var chart models.Chart
	err := r.collection.FindOne(ctx, bson.M{"date": date}).Decode(&chart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find chart by date: %w", err)
	}

	r.handleSchemaEvolution(&chart)
	return &chart, nil
}

// ListDates returns archived chart dates, newest first
func (r *mongoChartRepository) ListDates(ctx context.Context, limit int) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetProjection(bson.M{"date": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chart dates: %w", err)
	}
	defer cursor.Close(ctx)

	var dates []string
	for cursor.Next(ctx) {
		var doc struct {
			Date string `bson:"date"`
		}
		if err := cursor.Decode(&doc); err != nil {
			slog.Error("Failed to decode chart date", "error", err)
			continue
		}
		dates = append(dates, doc.Date)
	}
	return dates, cursor.Err()
}

// DeleteByDate removes the chart for a date
func (r *mongoChartRepository) DeleteByDate(ctx context.Context, date string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"date": date}); err != nil {
		return fmt.Errorf("failed to delete chart: %w", err)
	}
	return nil
}

// Count returns the number of archived charts
func (r *mongoChartRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count charts: %w", err)
	}
	return count, nil
}

// handleSchemaEvolution upgrades documents written before schema versioning.
// Version 0 documents may carry duplicate entries, so they are re-deduplicated.
func (r *mongoChartRepository) handleSchemaEvolution(chart *models.Chart) {
	if chart.SchemaVersion >= models.CurrentSchemaVersion {
		return
	}

	chart.Entries = models.DedupeEntries(chart.Entries, models.MaxChartEntries)
	chart.SchemaVersion = models.CurrentSchemaVersion

	go func(c models.Chart) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Save(ctx, &c); err != nil {
			slog.Error("Failed to update chart schema version", "date", c.Date, "error", err)
		}
	}(*chart)
}
