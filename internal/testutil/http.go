package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// HTTPTestHelper provides utilities for HTTP testing against a gin router
type HTTPTestHelper struct {
	t      *testing.T
	router *gin.Engine
}

// NewHTTPTestHelper creates a new HTTP test helper
func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	gin.SetMode(gin.TestMode)
	return &HTTPTestHelper{
		t:      t,
		router: gin.New(),
	}
}

// Router returns the gin router under test
func (h *HTTPTestHelper) Router() *gin.Engine {
	return h.router
}

// SetRouter sets the gin router to use for testing
func (h *HTTPTestHelper) SetRouter(router *gin.Engine) {
	h.router = router
}

// PostJSON performs a POST request with JSON payload and optional headers
func (h *HTTPTestHelper) PostJSON(url string, payload interface{}, headers ...map[string]string) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(h.t, err, "Failed to marshal JSON payload")

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	require.NoError(h.t, err, "Failed to create HTTP request")
	req.Header.Set("Content-Type", "application/json")

	return h.serve(req, headers)
}

// GetJSON performs a GET request expecting JSON response
func (h *HTTPTestHelper) GetJSON(url string, headers ...map[string]string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(h.t, err, "Failed to create HTTP request")
	req.Header.Set("Accept", "application/json")

	return h.serve(req, headers)
}

// Serve performs an arbitrary request with optional headers
func (h *HTTPTestHelper) Serve(req *http.Request, headers ...map[string]string) *httptest.ResponseRecorder {
	return h.serve(req, headers)
}

func (h *HTTPTestHelper) serve(req *http.Request, headers []map[string]string) *httptest.ResponseRecorder {
	for _, hdr := range headers {
		for key, value := range hdr {
			req.Header.Set(key, value)
		}
	}
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

// AssertJSONResponse asserts that the response is valid JSON and unmarshals it
func (h *HTTPTestHelper) AssertJSONResponse(recorder *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code: %s", recorder.Body.String())
	require.Equal(h.t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"), "Expected JSON content type")

	err := json.Unmarshal(recorder.Body.Bytes(), target)
	require.NoError(h.t, err, "Failed to unmarshal JSON response")
}

// AssertErrorResponse asserts that the response contains an error
func (h *HTTPTestHelper) AssertErrorResponse(recorder *httptest.ResponseRecorder, expectedStatus int, expectedErrorSubstring string) {
	require.Equal(h.t, expectedStatus, recorder.Code, "Unexpected status code")

	var errorResponse map[string]interface{}
	err := json.Unmarshal(recorder.Body.Bytes(), &errorResponse)
	require.NoError(h.t, err, "Failed to unmarshal error response")

	errorMessage, exists := errorResponse["error"]
	require.True(h.t, exists, "Expected error field in response")
	require.Contains(h.t, errorMessage, expectedErrorSubstring, "Error message should contain expected substring")
}

// MockHTTPServer provides a mock HTTP server for testing external API calls.
// Requests are recorded so tests can assert on what was sent.
type MockHTTPServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

// NewMockHTTPServer creates a new mock HTTP server
func NewMockHTTPServer() *MockHTTPServer {
	m := &MockHTTPServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.routeRequest))
	return m
}

// URL returns the mock server URL
func (m *MockHTTPServer) URL() string {
	return m.server.URL
}

// Close closes the mock server
func (m *MockHTTPServer) Close() {
	m.server.Close()
}

// On registers a handler for a specific path
func (m *MockHTTPServer) On(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	m.handlers[path] = handler
	m.mu.Unlock()
}

// Requests returns the requests received so far
func (m *MockHTTPServer) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

func (m *MockHTTPServer) routeRequest(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.Clone(r.Context()))
	handler, exists := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SpotifyTrackResponse creates a mock catalog track object
func SpotifyTrackResponse(trackID, title string, popularity int, artists ...string) map[string]interface{} {
	artistObjs := make([]map[string]interface{}, 0, len(artists))
	for _, a := range artists {
		artistObjs = append(artistObjs, map[string]interface{}{"name": a})
	}
	return map[string]interface{}{
		"id":         trackID,
		"uri":        "spotify:track:" + trackID,
		"name":       title,
		"artists":    artistObjs,
		"popularity": popularity,
		"external_urls": map[string]string{
			"spotify": "https://open.spotify.com/track/" + trackID,
		},
	}
}

// SpotifySearchResponse creates a mock catalog search response
func SpotifySearchResponse(tracks ...map[string]interface{}) map[string]interface{} {
	if tracks == nil {
		tracks = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"tracks": map[string]interface{}{
			"items": tracks,
			"total": len(tracks),
		},
	}
}
