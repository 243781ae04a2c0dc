package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"hitcapsule/internal/models"
)

const (
	defaultSearchLimit   = 10
	maxSearchLimit       = 50
	defaultRetryAfter    = 2 * time.Second
	catalogSearchTimeout = 15 * time.Second
)

// CatalogSearcher runs free-text track searches against the catalog
type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error)
}

// CatalogOptions configures a CatalogService
type CatalogOptions struct {
	BaseURL             string  // e.g. https://api.spotify.com/v1
	Market              string  // ISO country code, empty for none
	RateLimit           float64 // requests per second, 0 for unlimited
	MaxRateLimitRetries int
}

// CatalogService is the catalog search gateway. It never fails a search
// because of the catalog: errors are logged and reported as no results.
// Only context cancellation is returned to the caller.
type CatalogService struct {
	client     *resty.Client
	baseURL    string
	market     string
	limiter    *rate.Limiter
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// NewCatalogService creates a gateway that sends requests through httpClient,
// which is expected to attach the user's access token.
func NewCatalogService(httpClient *http.Client, opts CatalogOptions) *CatalogService {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	maxRetries := opts.MaxRateLimitRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &CatalogService{
		client:     resty.NewWithClient(httpClient),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		market:     opts.Market,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		sleep:      sleepContext,
		logger:     slog.Default().With("component", "catalog"),
	}
}

// Search returns up to limit track candidates for query. A rate limited
// request is retried after the server's Retry-After delay, at most
// maxRetries times.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]models.SearchCandidate, error) {
	limit = clampSearchLimit(limit)

	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("Rate limiter refused search", "query", query, "error", err)
			return nil, nil
		}

		resp, result, err := s.doSearch(ctx, query, limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("Catalog search failed", "query", query, "error", err)
			return nil, nil
		}

		switch status := resp.StatusCode(); {
		case status == http.StatusTooManyRequests:
			if attempt >= s.maxRetries {
				s.logger.Warn("Catalog rate limit retries exhausted", "query", query, "attempts", attempt+1)
				return nil, nil
			}
			wait := parseRetryAfter(resp.Header().Get("Retry-After"))
			s.logger.Info("Catalog rate limited, backing off", "query", query, "retry_after", wait, "attempt", attempt+1)
			if err := s.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case status != http.StatusOK:
			s.logger.Warn("Catalog search failed", "query", query, "error", &ServiceError{
				Service:   "spotify",
				Operation: "search",
				Message:   fmt.Sprintf("API returned status %d", status),
			})
			return nil, nil
		}

		return result.candidates(), nil
	}
}

func (s *CatalogService) doSearch(ctx context.Context, query string, limit int) (*resty.Response, *catalogSearchResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, catalogSearchTimeout)
	defer cancel()

	params := map[string]string{
		"q":     query,
		"type":  "track",
		"limit": strconv.Itoa(limit),
	}
	if s.market != "" {
		params["market"] = s.market
	}

	var result catalogSearchResponse
	resp, err := s.client.R().
		SetContext(reqCtx).
		SetQueryParams(params).
		SetResult(&result).
		Get(s.baseURL + "/search")
	if err != nil {
		return nil, nil, &ServiceError{Service: "spotify", Operation: "search", Message: "request failed", Err: err}
	}
	return resp, &result, nil
}

// Catalog search response schema. Only the fields used for matching are decoded.
type catalogSearchResponse struct {
	Tracks struct {
		Items []catalogTrack `json:"items"`
	} `json:"tracks"`
}

type catalogTrack struct {
	ID      string `json:"id"`
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Popularity int `json:"popularity"`
}

// candidates converts the decoded items, dropping any without a URI or name
func (r *catalogSearchResponse) candidates() []models.SearchCandidate {
	out := make([]models.SearchCandidate, 0, len(r.Tracks.Items))
	for _, item := range r.Tracks.Items {
		if item.URI == "" || item.Name == "" {
			continue
		}
		names := make([]string, 0, len(item.Artists))
		for _, a := range item.Artists {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		out = append(out, models.SearchCandidate{
			URI:        item.URI,
			Title:      item.Name,
			Artists:    strings.Join(names, ", "),
			Popularity: min(max(item.Popularity, 0), 100),
		})
	}
	return out
}

func clampSearchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

// parseRetryAfter reads a Retry-After header in whole seconds
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
