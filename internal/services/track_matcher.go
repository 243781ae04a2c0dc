package services

import (
	"context"
	"log/slog"

	"hitcapsule/internal/models"
	"hitcapsule/internal/scoring"
	"hitcapsule/internal/search"
)

// ProgressFunc is called after each chart entry is matched
type ProgressFunc func(done, total int)

// TrackMatcher resolves chart entries to catalog tracks
type TrackMatcher struct {
	catalog CatalogSearcher
	scorer  *scoring.MatchScorer
	limit   int
	logger  *slog.Logger
}

// NewTrackMatcher creates a matcher; limit is the per-query result count
func NewTrackMatcher(catalog CatalogSearcher, scorer *scoring.MatchScorer, limit int) *TrackMatcher {
	if scorer == nil {
		scorer = scoring.NewMatchScorer(nil)
	}
	return &TrackMatcher{
		catalog: catalog,
		scorer:  scorer,
		limit:   limit,
		logger:  slog.Default().With("component", "matcher"),
	}
}

// MatchEntry tries every title candidate with progressively looser queries.
// The first query that returns any candidates decides the match: its best
// scoring candidate is taken and later queries are not run.
func (m *TrackMatcher) MatchEntry(ctx context.Context, entry models.ChartEntry, year string) (models.MatchResult, error) {
	nq := search.Normalize(entry)
	result := models.MatchResult{Entry: entry}

	for _, title := range nq.TitleCandidates {
		for _, q := range search.BuildQueries(title, nq.PrimaryArtist, year) {
			query := q.String()
			candidates, err := m.catalog.Search(ctx, query, m.limit)
			if err != nil {
				return result, err
			}
			if len(candidates) == 0 {
				continue
			}

			best, score, _ := m.scorer.Best(candidates, title, nq.PrimaryArtist)
			result.URI = best.URI
			result.Score = score
			result.Query = query
			m.logger.Debug("Matched chart entry",
				"rank", entry.Rank,
				"title", entry.Title,
				"uri", best.URI,
				"score", score,
				"query", query)
			return result, nil
		}
	}

	m.logger.Debug("No match for chart entry", "rank", entry.Rank, "title", entry.Title, "artist", entry.Artist)
	return result, nil
}

// MatchChart matches entries one at a time, in order. Duplicate entries are
// matched independently. On cancellation the results so far are returned
// together with the context error.
func (m *TrackMatcher) MatchChart(ctx context.Context, entries []models.ChartEntry, yearHint string, progress ProgressFunc) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(entries))
	for i, entry := range entries {
		res, err := m.MatchEntry(ctx, entry, yearHint)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if progress != nil {
			progress(i+1, len(entries))
		}
	}

	uris, missing := Summary(results)
	m.logger.Info("Chart matched", "entries", len(entries), "matched", len(uris), "missing", len(missing))
	return results, nil
}

// Summary splits results into matched URIs (in rank order) and unmatched entries
func Summary(results []models.MatchResult) (uris []string, missing []models.ChartEntry) {
	uris = make([]string, 0, len(results))
	for _, r := range results {
		if r.Matched() {
			uris = append(uris, r.URI)
		} else {
			missing = append(missing, r.Entry)
		}
	}
	return uris, missing
}
