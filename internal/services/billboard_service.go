package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"hitcapsule/internal/models"
)

const (
	// DefaultBillboardURL is the Hot 100 chart page; the date is appended
	DefaultBillboardURL = "https://www.billboard.com/charts/hot-100/"

	chartDateLayout = "2006-01-02"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0"
)

// FirstChartDate is the first published Hot 100
var FirstChartDate = time.Date(1958, time.August, 4, 0, 0, 0, 0, time.UTC)

// ChartSource fetches a chart for a YYYY-MM-DD date
type ChartSource interface {
	FetchChart(ctx context.Context, date string) (*models.Chart, error)
}

// ValidateChartDate checks that date is YYYY-MM-DD and within the range of
// published charts, relative to now.
func ValidateChartDate(date string, now time.Time) error {
	t, err := time.Parse(chartDateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, date)
	}
	if t.Before(FirstChartDate) {
		return fmt.Errorf("%w: %s is before the first Hot 100 (%s)", ErrInvalidDate, date, FirstChartDate.Format(chartDateLayout))
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(today) {
		return fmt.Errorf("%w: %s is in the future", ErrInvalidDate, date)
	}
	return nil
}

// BillboardOptions configures a BillboardService
type BillboardOptions struct {
	BaseURL string
	Timeout time.Duration
}

// BillboardService scrapes Hot 100 chart pages
type BillboardService struct {
	client  *resty.Client
	baseURL string
	now     func() time.Time
	logger  *slog.Logger
}

// NewBillboardService creates a chart scraper. Transport errors and 5xx
// responses are retried twice with exponential backoff.
func NewBillboardService(opts BillboardOptions) *BillboardService {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBillboardURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(6*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &BillboardService{
		client:  client,
		baseURL: baseURL,
		now:     time.Now,
		logger:  slog.Default().With("component", "billboard"),
	}
}

// FetchChart downloads and parses the chart page for date
func (s *BillboardService) FetchChart(ctx context.Context, date string) (*models.Chart, error) {
	if err := ValidateChartDate(date, s.now()); err != nil {
		return nil, err
	}

	url := s.baseURL + date
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &ServiceError{Service: "billboard", Operation: "fetch_chart", Message: "request failed", URL: url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &ServiceError{
			Service:   "billboard",
			Operation: "fetch_chart",
			Message:   fmt.Sprintf("page returned status %d", resp.StatusCode()),
			URL:       url,
		}
	}

	entries, err := ParseChartHTML(resp.Body())
	if err != nil {
		return nil, &ServiceError{Service: "billboard", Operation: "parse_chart", URL: url, Err: err}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChartEmpty, date)
	}

	chart := models.NewChart(date, entries)
	s.logger.Info("Fetched chart", "date", date, "entries", len(chart.Entries))
	return chart, nil
}

var (
	titleSelectors  = []string{"h3#title-of-a-story", "h3.c-title", "h3"}
	artistSelectors = []string{"span.c-label.a-no-truncate", "span.a-no-truncate", "span.c-label", "span"}
)

// ParseChartHTML extracts entries from a chart page. The current layout is
// tried first, then the older nested-list layout. Entries are deduplicated,
// capped at 100 and ranked from 1.
func ParseChartHTML(page []byte) ([]models.ChartEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var entries []models.ChartEntry
	doc.Find("li.o-chart-results-list__item").Each(func(_ int, item *goquery.Selection) {
		title := firstText(item, titleSelectors)
		if title == "" {
			return
		}
		entries = append(entries, models.ChartEntry{
			Rank:   len(entries) + 1,
			Title:  title,
			Artist: firstText(item, artistSelectors),
		})
	})

	if len(entries) == 0 {
		titles := doc.Find("li ul li h3")
		artists := doc.Find("li ul li span")
		titles.Each(func(i int, h *goquery.Selection) {
			title := cleanText(h.Text())
			if title == "" {
				return
			}
			artist := ""
			if i < artists.Length() {
				artist = cleanText(artists.Eq(i).Text())
			}
			entries = append(entries, models.ChartEntry{Rank: len(entries) + 1, Title: title, Artist: artist})
		})
	}

	return models.DedupeEntries(entries, models.MaxChartEntries), nil
}

// firstText returns the text of the first selector that yields non-empty text
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := cleanText(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Blend interleaves two charts A, B, A, B, ... dropping repeats by entry key,
// until limit entries are collected. Ranks are renumbered from 1.
func Blend(a, b []models.ChartEntry, limit int) []models.ChartEntry {
	if limit <= 0 {
		limit = models.MaxChartEntries
	}
	interleaved := make([]models.ChartEntry, 0, len(a)+len(b))
	for i := 0; i < max(len(a), len(b)); i++ {
		if i < len(a) {
			interleaved = append(interleaved, a[i])
		}
		if i < len(b) {
			interleaved = append(interleaved, b[i])
		}
	}
	return models.DedupeEntries(interleaved, limit)
}
