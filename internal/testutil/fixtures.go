package testutil

import (
	"fmt"
	"time"

	"hitcapsule/internal/models"
)

// Common test dates
const (
	TestChartDate  = "1997-03-06"
	TestSecondDate = "2003-11-14"
)

// ChartBuilder provides a fluent interface for creating test charts
type ChartBuilder struct {
	chart *models.Chart
}

// NewChartBuilder creates a chart builder for TestChartDate with no entries
func NewChartBuilder() *ChartBuilder {
	return &ChartBuilder{
		chart: &models.Chart{
			SchemaVersion: models.CurrentSchemaVersion,
			Date:          TestChartDate,
			FetchedAt:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

// WithDate sets the chart date
func (b *ChartBuilder) WithDate(date string) *ChartBuilder {
	b.chart.Date = date
	return b
}

// WithEntry appends an entry ranked after the existing ones
func (b *ChartBuilder) WithEntry(title, artist string) *ChartBuilder {
	b.chart.Entries = append(b.chart.Entries, models.ChartEntry{
		Rank:   len(b.chart.Entries) + 1,
		Title:  title,
		Artist: artist,
	})
	return b
}

// WithGeneratedEntries appends n entries titled "Song N" by "Artist N"
func (b *ChartBuilder) WithGeneratedEntries(n int) *ChartBuilder {
	start := len(b.chart.Entries)
	for i := start; i < start+n; i++ {
		b.WithEntry(fmt.Sprintf("Song %d", i+1), fmt.Sprintf("Artist %d", i+1))
	}
	return b
}

// Build returns the constructed chart
func (b *ChartBuilder) Build() *models.Chart {
	return b.chart
}

// SampleEntries returns a small realistic chart
func SampleEntries() []models.ChartEntry {
	return []models.ChartEntry{
		{Rank: 1, Title: "Wannabe", Artist: "Spice Girls"},
		{Rank: 2, Title: "Can't Nobody Hold Me Down", Artist: "Puff Daddy Featuring Mase"},
		{Rank: 3, Title: "Un-Break My Heart", Artist: "Toni Braxton"},
	}
}

// TrackURIs returns n synthetic catalog track URIs
func TrackURIs(n int) []string {
	uris := make([]string, n)
	for i := range uris {
		uris[i] = fmt.Sprintf("spotify:track:%022d", i)
	}
	return uris
}
