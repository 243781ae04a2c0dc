package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CurrentSchemaVersion = 1

// MaxChartEntries is the number of positions on the Hot 100
const MaxChartEntries = 100

// ChartEntry is one position on a chart
type ChartEntry struct {
	Rank   int    `bson:"rank" json:"rank"`
	Title  string `bson:"title" json:"title"`
	Artist string `bson:"artist" json:"artist"`
}

// Key returns the dedupe key for an entry (lowercased title and artist)
func (e ChartEntry) Key() string {
	return strings.ToLower(strings.TrimSpace(e.Title)) + " — " + strings.ToLower(strings.TrimSpace(e.Artist))
}

// Chart is a scraped chart for a single date
type Chart struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SchemaVersion int                `bson:"schema_version" json:"-"`

	Date      string       `bson:"date" json:"date"` // YYYY-MM-DD
	Entries   []ChartEntry `bson:"entries" json:"entries"`
	FetchedAt time.Time    `bson:"fetched_at" json:"fetched_at"`
}

// NewChart creates a chart with entries deduplicated and ranked
func NewChart(date string, entries []ChartEntry) *Chart {
	return &Chart{
		SchemaVersion: CurrentSchemaVersion,
		Date:          date,
		Entries:       DedupeEntries(entries, MaxChartEntries),
		FetchedAt:     time.Now(),
	}
}

// Year returns the year part of the chart date
func (c *Chart) Year() string {
	if len(c.Date) < 4 {
		return ""
	}
	return c.Date[:4]
}

// Top returns the first n entries
func (c *Chart) Top(n int) []ChartEntry {
	if n > len(c.Entries) {
		n = len(c.Entries)
	}
	return c.Entries[:n]
}

// DedupeEntries drops entries with an empty title or a repeated Key,
// keeps the first limit survivors and renumbers ranks from 1.
func DedupeEntries(entries []ChartEntry, limit int) []ChartEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]ChartEntry, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		key := e.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
