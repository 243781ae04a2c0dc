package services

import (
	"context"
	"testing"

	"hitcapsule/internal/models"
	"hitcapsule/internal/repositories"
	"hitcapsule/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockChartSource is a ChartSource driven by testify expectations
type mockChartSource struct {
	mock.Mock
}

func (m *mockChartSource) FetchChart(ctx context.Context, date string) (*models.Chart, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chart), args.Error(1)
}

func TestArchivedChartSource_FetchesOnceThenServesArchive(t *testing.T) {
	ctx := context.Background()
	source := &mockChartSource{}
	chart := testutil.NewChartBuilder().WithGeneratedEntries(3).Build()
	source.On("FetchChart", mock.Anything, testutil.TestChartDate).Return(chart, nil).Once()

	archived := NewArchivedChartSource(source, repositories.NewMemoryChartRepository())

	first, err := archived.FetchChart(ctx, testutil.TestChartDate)
	require.NoError(t, err)
	second, err := archived.FetchChart(ctx, testutil.TestChartDate)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	source.AssertNumberOfCalls(t, "FetchChart", 1)
}

func TestArchivedChartSource_ArchiveFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	source := &mockChartSource{}
	repo := &testutil.MockChartRepository{}
	chart := testutil.NewChartBuilder().WithGeneratedEntries(1).Build()

	repo.On("FindByDate", mock.Anything, testutil.TestChartDate).Return(nil, assert.AnError)
	repo.On("Save", mock.Anything, chart).Return(assert.AnError)
	source.On("FetchChart", mock.Anything, testutil.TestChartDate).Return(chart, nil)

	got, err := NewArchivedChartSource(source, repo).FetchChart(ctx, testutil.TestChartDate)
	require.NoError(t, err)
	assert.Equal(t, chart, got)
	repo.AssertExpectations(t)
}

func TestArchivedChartSource_SourceErrorPropagates(t *testing.T) {
	source := &mockChartSource{}
	source.On("FetchChart", mock.Anything, testutil.TestChartDate).Return(nil, ErrChartEmpty)

	_, err := NewArchivedChartSource(source, repositories.NewMemoryChartRepository()).FetchChart(context.Background(), testutil.TestChartDate)
	assert.ErrorIs(t, err, ErrChartEmpty)
}
