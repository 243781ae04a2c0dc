package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"hitcapsule/internal/handlers/render"
	"hitcapsule/internal/models"
	"hitcapsule/internal/services"
	"hitcapsule/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCapsuleWorkflow is a mock for testing handlers
type MockCapsuleWorkflow struct {
	mock.Mock
}

func (m *MockCapsuleWorkflow) Chart(ctx context.Context, date string) (*models.Chart, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chart), args.Error(1)
}

func (m *MockCapsuleWorkflow) Create(ctx context.Context, req services.CapsuleRequest, progress services.ProgressFunc) (*services.CapsuleResult, error) {
	args := m.Called(ctx, req, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CapsuleResult), args.Error(1)
}

func setupRouter(t *testing.T, workflow *MockCapsuleWorkflow, secret string) *testutil.HTTPTestHelper {
	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(RouterConfig{
		Capsules:  NewCapsuleHandler(workflow),
		Health:    NewHealthHandler(nil),
		JWTSecret: secret,
	}))
	return helper
}

func TestGetChart(t *testing.T) {
	workflow := &MockCapsuleWorkflow{}
	chart := testutil.NewChartBuilder().WithEntry("Wannabe", "Spice Girls").WithEntry("Un-Break My Heart", "Toni Braxton").Build()
	workflow.On("Chart", mock.Anything, testutil.TestChartDate).Return(chart, nil)
	helper := setupRouter(t, workflow, "")

	var resp render.ChartResponse
	helper.AssertJSONResponse(helper.GetJSON("/api/v1/charts/"+testutil.TestChartDate), http.StatusOK, &resp)

	assert.Equal(t, testutil.TestChartDate, resp.Date)
	assert.Equal(t, "1997", resp.Year)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, render.ChartEntry{Rank: 1, Title: "Wannabe", Artist: "Spice Girls"}, resp.Entries[0])
}

func TestGetChart_HTML(t *testing.T) {
	workflow := &MockCapsuleWorkflow{}
	chart := testutil.NewChartBuilder().WithEntry("Wannabe", "Spice Girls").Build()
	workflow.On("Chart", mock.Anything, testutil.TestChartDate).Return(chart, nil)
	helper := setupRouter(t, workflow, "")

	w := helper.GetJSON("/charts/"+testutil.TestChartDate, map[string]string{"Accept": "text/html"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Wannabe")
	assert.Contains(t, w.Body.String(), "Spice Girls")
}

func TestGetChart_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid date", fmt.Errorf("%w: %q", services.ErrInvalidDate, "1900-01-01"), http.StatusBadRequest},
		{"empty chart", services.ErrChartEmpty, http.StatusBadGateway},
		{"upstream failure", &services.ServiceError{Service: "billboard", Operation: "fetch", Message: "status 503"}, http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflow := &MockCapsuleWorkflow{}
			workflow.On("Chart", mock.Anything, "1900-01-01").Return(nil, tt.err)
			helper := setupRouter(t, workflow, "")

			helper.AssertErrorResponse(helper.GetJSON("/api/v1/charts/1900-01-01"), tt.wantStatus, "Failed to get chart")
		})
	}
}

func TestCreateCapsule(t *testing.T) {
	workflow := &MockCapsuleWorkflow{}
	want := &services.CapsuleResult{
		Name:       "1997-03-06 Billboard Hot 100",
		Date:       testutil.TestChartDate,
		URL:        services.PlaylistURL("pl1"),
		PlaylistID: "pl1",
		Added:      97,
		Missing:    3,
		CreatedNew: true,
		Duration:   2 * time.Second,
	}
	req := services.CapsuleRequest{Date: testutil.TestChartDate, Public: true, UploadCover: true}
	workflow.On("Create", mock.Anything, req, mock.Anything).Return(want, nil)
	helper := setupRouter(t, workflow, "")

	var got services.CapsuleResult
	helper.AssertJSONResponse(helper.PostJSON("/api/v1/capsules", map[string]any{
		"date":         testutil.TestChartDate,
		"public":       true,
		"upload_cover": true,
	}), http.StatusOK, &got)

	assert.Equal(t, *want, got)
	workflow.AssertExpectations(t)
}

func TestCreateCapsule_BadRequests(t *testing.T) {
	workflow := &MockCapsuleWorkflow{}
	workflow.On("Create", mock.Anything, services.CapsuleRequest{Date: "2999-01-01"}, mock.Anything).
		Return(nil, fmt.Errorf("%w: in the future", services.ErrInvalidDate))
	helper := setupRouter(t, workflow, "")

	helper.AssertErrorResponse(helper.PostJSON("/api/v1/capsules", map[string]any{"public": true}), http.StatusBadRequest, "Invalid request body")
	helper.AssertErrorResponse(helper.PostJSON("/api/v1/capsules", map[string]any{"date": "2999-01-01"}), http.StatusBadRequest, "Failed to create playlist")
}

func TestCreateCapsule_UpstreamFailure(t *testing.T) {
	workflow := &MockCapsuleWorkflow{}
	workflow.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &services.ServiceError{Service: "spotify", Operation: "create_playlist", Message: "forbidden"})
	helper := setupRouter(t, workflow, "")

	helper.AssertErrorResponse(helper.PostJSON("/api/v1/capsules", map[string]any{"date": testutil.TestChartDate}), http.StatusBadGateway, "Failed to create playlist")
}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "cli",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWTAuth(t *testing.T) {
	secret := "s3cret"
	workflow := &MockCapsuleWorkflow{}
	workflow.On("Chart", mock.Anything, testutil.TestChartDate).Return(testutil.NewChartBuilder().WithGeneratedEntries(1).Build(), nil)
	helper := setupRouter(t, workflow, secret)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing bearer token"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Missing bearer token"},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), time.Hour), http.StatusUnauthorized, "Invalid token"},
		{"wrong alg", "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(secret), time.Hour), http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(secret), -time.Hour), http.StatusUnauthorized, "Token expired"},
		{"valid", "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(secret), time.Hour), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := helper.GetJSON("/api/v1/charts/"+testutil.TestChartDate, map[string]string{"Authorization": tt.header})
			if tt.wantError != "" {
				helper.AssertErrorResponse(w, tt.wantStatus, tt.wantError)
				return
			}
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	// Health stays open
	assert.Equal(t, http.StatusOK, helper.GetJSON("/health").Code)
}

func TestScrubQuery(t *testing.T) {
	assert.Equal(t, "", scrubQuery(""))
	assert.Equal(t, "date=1997-03-06&access_token=REDACTED", scrubQuery("date=1997-03-06&access_token=abc"))
	assert.Equal(t, "code=REDACTED&state=REDACTED&flag", scrubQuery("code=x&state=y&flag"))
	assert.False(t, strings.Contains(scrubQuery("API_KEY=zzz"), "zzz"))
}
