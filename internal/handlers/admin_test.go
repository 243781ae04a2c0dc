package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"hitcapsule/internal/cache"
	"hitcapsule/internal/repositories"
	"hitcapsule/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAdmin(t *testing.T, repo repositories.ChartRepository, c cache.Cache) *testutil.HTTPTestHelper {
	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(RouterConfig{
		Capsules: NewCapsuleHandler(&MockCapsuleWorkflow{}),
		Admin:    NewAdminHandler(repo, c, nil),
		Health:   NewHealthHandler(nil),
	}))
	return helper
}

func TestGetArchiveStats(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryChartRepository()
	require.NoError(t, repo.Save(ctx, testutil.NewChartBuilder().WithGeneratedEntries(2).Build()))
	require.NoError(t, repo.Save(ctx, testutil.NewChartBuilder().WithDate(testutil.TestSecondDate).WithGeneratedEntries(2).Build()))
	helper := setupAdmin(t, repo, cache.NewMemoryCache(10))

	var stats ArchiveStats
	helper.AssertJSONResponse(helper.GetJSON("/api/v1/admin/archive?limit=1"), http.StatusOK, &stats)

	assert.Equal(t, int64(2), stats.Charts)
	assert.Equal(t, []string{testutil.TestSecondDate}, stats.RecentDates)
	assert.Nil(t, stats.Database)

	helper.AssertErrorResponse(helper.GetJSON("/api/v1/admin/archive?limit=zero"), http.StatusBadRequest, "Invalid limit")
}

func TestGetArchiveStats_RepoError(t *testing.T) {
	repo := &testutil.MockChartRepository{}
	repo.On("Count", mock.Anything).Return(int64(0), errors.New("connection refused"))
	helper := setupAdmin(t, repo, cache.NewMemoryCache(10))

	helper.AssertErrorResponse(helper.GetJSON("/api/v1/admin/archive"), http.StatusInternalServerError, "Failed to collect archive statistics")
}

func TestDeleteChart(t *testing.T) {
	repo := &testutil.MockChartRepository{}
	c := &testutil.MockCache{}
	repo.On("DeleteByDate", mock.Anything, testutil.TestChartDate).Return(nil)
	c.On("Delete", mock.Anything, cache.ChartKey(testutil.TestChartDate)).Return(errors.New("cache down"))
	helper := setupAdmin(t, repo, c)

	req, err := http.NewRequest(http.MethodDelete, "/api/v1/admin/charts/"+testutil.TestChartDate, nil)
	require.NoError(t, err)
	w := helper.Serve(req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestNumber(t *testing.T) {
	assert.Equal(t, 3.0, number(int32(3)))
	assert.Equal(t, 4.0, number(int64(4)))
	assert.Equal(t, 1.5, number(1.5))
	assert.Equal(t, 0.0, number("x"))
	assert.Equal(t, 1.0, megabytes(int64(1024*1024)))
}
