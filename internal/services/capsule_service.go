package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"hitcapsule/internal/models"
)

const posterTopN = 10

// ArtworkRenderer draws the playlist cover and the shareable poster
type ArtworkRenderer interface {
	RenderCover(dateText, name, path string) error
	RenderPoster(dateText string, top []models.ChartEntry, playlistURL, name, subtitle, path string) error
}

// CapsuleRequest asks for a playlist of one chart, or of two charts blended
type CapsuleRequest struct {
	Date        string `json:"date" binding:"required"`
	SecondDate  string `json:"second_date,omitempty"`
	Name        string `json:"name,omitempty"`
	Public      bool   `json:"public"`
	UploadCover bool   `json:"upload_cover"`
}

// Blended reports whether a second chart is requested
func (r CapsuleRequest) Blended() bool {
	return r.SecondDate != ""
}

// CapsuleResult summarizes a created or updated playlist
type CapsuleResult struct {
	Name           string              `json:"name"`
	Date           string              `json:"date"`
	URL            string              `json:"url"`
	PlaylistID     string              `json:"playlist_id"`
	Added          int                 `json:"added"`
	Missing        int                 `json:"missing"`
	MissingEntries []models.ChartEntry `json:"missing_entries"`
	CreatedNew     bool                `json:"created_new"`
	CoverPath      string              `json:"cover_path,omitempty"`
	PosterPath     string              `json:"poster_path,omitempty"`
	Uploaded       bool                `json:"uploaded"`
	Duration       time.Duration       `json:"duration_ns"`
}

// CapsuleService runs the whole chart to playlist workflow
type CapsuleService struct {
	charts       ChartSource
	matcher      *TrackMatcher
	playlists    *PlaylistService
	artwork      ArtworkRenderer
	artifactsDir string
	now          func() time.Time
	logger       *slog.Logger
}

// NewCapsuleService wires the workflow. artwork may be nil to skip images.
func NewCapsuleService(charts ChartSource, matcher *TrackMatcher, playlists *PlaylistService, artwork ArtworkRenderer, artifactsDir string) *CapsuleService {
	return &CapsuleService{
		charts:       charts,
		matcher:      matcher,
		playlists:    playlists,
		artwork:      artwork,
		artifactsDir: artifactsDir,
		now:          time.Now,
		logger:       slog.Default().With("component", "capsule"),
	}
}

// Chart validates date and fetches its chart
func (s *CapsuleService) Chart(ctx context.Context, date string) (*models.Chart, error) {
	if err := ValidateChartDate(date, s.now()); err != nil {
		return nil, err
	}
	chart, err := s.charts.FetchChart(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(chart.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChartEmpty, date)
	}
	return chart, nil
}

// Create fetches the chart(s), matches every entry and upserts the playlist.
// Nothing is written to the catalog unless every chart was fetched.
// Image rendering and cover upload happen after the playlist exists and
// never fail the request.
func (s *CapsuleService) Create(ctx context.Context, req CapsuleRequest, progress ProgressFunc) (*CapsuleResult, error) {
	start := s.now()

	if err := ValidateChartDate(req.Date, start); err != nil {
		return nil, err
	}
	if req.Blended() {
		if err := ValidateChartDate(req.SecondDate, start); err != nil {
			return nil, err
		}
	}

	entries, yearHint, err := s.entries(ctx, req)
	if err != nil {
		return nil, err
	}

	results, err := s.matcher.MatchChart(ctx, entries, yearHint, progress)
	if err != nil {
		return nil, err
	}
	uris, missing := Summary(results)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultPlaylistName(req)
	}

	id, createdNew, err := s.playlists.Upsert(ctx, name, req.Public, PlaylistDescription(req), uris, true)
	if err != nil {
		return nil, err
	}

	result := &CapsuleResult{
		Name:           name,
		Date:           dateText(req),
		URL:            PlaylistURL(id),
		PlaylistID:     id,
		Added:          len(uris),
		Missing:        len(missing),
		MissingEntries: missing,
		CreatedNew:     createdNew,
	}

	s.renderArtwork(ctx, req, result, entries)

	result.Duration = s.now().Sub(start)
	s.logger.Info("Capsule ready",
		"name", name,
		"playlist_id", id,
		"added", result.Added,
		"missing", result.Missing,
		"created_new", createdNew,
		"duration", result.Duration)
	return result, nil
}

// entries returns the entries to match and the year hint for the queries.
// Blends span two years, so they get no year hint.
func (s *CapsuleService) entries(ctx context.Context, req CapsuleRequest) ([]models.ChartEntry, string, error) {
	first, err := s.Chart(ctx, req.Date)
	if err != nil {
		return nil, "", err
	}
	if !req.Blended() {
		return first.Entries, first.Year(), nil
	}

	second, err := s.Chart(ctx, req.SecondDate)
	if err != nil {
		return nil, "", err
	}
	return Blend(first.Entries, second.Entries, models.MaxChartEntries), "", nil
}

func (s *CapsuleService) renderArtwork(ctx context.Context, req CapsuleRequest, result *CapsuleResult, entries []models.ChartEntry) {
	if s.artwork == nil {
		return
	}
	slug := strings.ReplaceAll(result.Date, " × ", "_")

	if req.UploadCover {
		path := filepath.Join(s.artifactsDir, "cover_"+slug+".jpg")
		if err := s.artwork.RenderCover(result.Date, result.Name, path); err != nil {
			s.logger.Warn("Failed to render cover", "path", path, "error", err)
		} else {
			result.CoverPath = path
			result.Uploaded = s.playlists.UploadCover(ctx, result.PlaylistID, path)
		}
	}

	subtitle := ""
	if req.Blended() {
		subtitle = "Bestie Blend"
	}
	top := entries[:min(len(entries), posterTopN)]
	path := filepath.Join(s.artifactsDir, "poster_"+slug+".png")
	if err := s.artwork.RenderPoster(result.Date, top, result.URL, result.Name, subtitle, path); err != nil {
		s.logger.Warn("Failed to render poster", "path", path, "error", err)
		return
	}
	result.PosterPath = path
}

func dateText(req CapsuleRequest) string {
	if req.Blended() {
		return req.Date + " × " + req.SecondDate
	}
	return req.Date
}

// DefaultPlaylistName is used when the request carries no name
func DefaultPlaylistName(req CapsuleRequest) string {
	if req.Blended() {
		return "Bestie Blend — " + dateText(req)
	}
	return req.Date + " Billboard Hot 100"
}

// PlaylistDescription is the description written to the playlist
func PlaylistDescription(req CapsuleRequest) string {
	if req.Blended() {
		return "Bestie Blend — " + dateText(req) + ". Generated by hitcapsule."
	}
	return "Billboard Hot 100 - " + req.Date + ". Generated by hitcapsule."
}
