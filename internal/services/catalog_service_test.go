package services

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"hitcapsule/internal/models"
	"hitcapsule/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, server *testutil.MockHTTPServer, maxRetries int) (*CatalogService, *[]time.Duration) {
	t.Helper()
	svc := NewCatalogService(&http.Client{}, CatalogOptions{
		BaseURL:             server.URL() + "/v1/",
		Market:              "US",
		MaxRateLimitRetries: maxRetries,
	})
	var slept []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return svc, &slept
}

func TestCatalogService_Search(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	defer server.Close()

	server.On("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, testutil.SpotifySearchResponse(
			testutil.SpotifyTrackResponse("1", "Wannabe", 80, "Spice Girls"),
			testutil.SpotifyTrackResponse("2", "Say You'll Be There", 140, "Spice Girls", "", "Guest"),
			map[string]interface{}{"name": "No URI"},
			map[string]interface{}{"uri": "spotify:track:3"},
		))
	})

	svc, _ := newTestCatalog(t, server, 5)
	got, err := svc.Search(context.Background(), `track:"Wannabe" artist:"Spice Girls"`, 0)
	require.NoError(t, err)

	assert.Equal(t, []models.SearchCandidate{
		{URI: "spotify:track:1", Title: "Wannabe", Artists: "Spice Girls", Popularity: 80},
		{URI: "spotify:track:2", Title: "Say You'll Be There", Artists: "Spice Girls, Guest", Popularity: 100},
	}, got)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	q := reqs[0].URL.Query()
	assert.Equal(t, `track:"Wannabe" artist:"Spice Girls"`, q.Get("q"))
	assert.Equal(t, "track", q.Get("type"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "US", q.Get("market"))
}

func TestCatalogService_LimitCapped(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	defer server.Close()
	server.On("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, testutil.SpotifySearchResponse())
	})

	svc, _ := newTestCatalog(t, server, 5)
	got, err := svc.Search(context.Background(), "q", 500)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "50", server.Requests()[0].URL.Query().Get("limit"))
}

func TestCatalogService_RateLimitRetry(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	defer server.Close()

	var calls int32
	server.On("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			testutil.WriteJSON(w, http.StatusOK, testutil.SpotifySearchResponse(
				testutil.SpotifyTrackResponse("1", "Wannabe", 80, "Spice Girls"),
			))
		}
	})

	svc, slept := newTestCatalog(t, server, 5)
	got, err := svc.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Same query each time, with the header delay then the default delay
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second}, *slept)
	reqs := server.Requests()
	require.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.Equal(t, "q", r.URL.Query().Get("q"))
	}
}

func TestCatalogService_RateLimitExhausted(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	defer server.Close()
	server.On("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	svc, slept := newTestCatalog(t, server, 2)
	got, err := svc.Search(context.Background(), "q", 10)

	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, server.Requests(), 3)
	assert.Len(t, *slept, 2)
}

func TestCatalogService_FailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "expired"})
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"tracks": [`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockHTTPServer()
			defer server.Close()
			server.On("/v1/search", tt.handler)

			svc, _ := newTestCatalog(t, server, 5)
			got, err := svc.Search(context.Background(), "q", 10)
			assert.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestCatalogService_TransportFailureFailsOpen(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	svc, _ := newTestCatalog(t, server, 5)
	server.Close()

	got, err := svc.Search(context.Background(), "q", 10)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogService_ContextCanceled(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	defer server.Close()
	server.On("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, testutil.SpotifySearchResponse())
	})

	svc, _ := newTestCatalog(t, server, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, "q", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalogService_CanceledDuringBackoff(t *testing.T) {
	server := testutil.NewMockHTTPServer()
	defer server.Close()
	server.On("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	svc, _ := newTestCatalog(t, server, 5)
	svc.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	_, err := svc.Search(context.Background(), "q", 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, server.Requests(), 1)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, 0*time.Second, parseRetryAfter("0"))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter(""))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter("soon"))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter("-1"))
}
