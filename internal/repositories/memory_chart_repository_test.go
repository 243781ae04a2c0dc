package repositories

import (
	"context"
	"testing"

	"hitcapsule/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChartRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChartRepository()

	chart := testutil.NewChartBuilder().WithGeneratedEntries(3).Build()
	require.NoError(t, repo.Save(ctx, chart))

	found, err := repo.FindByDate(ctx, testutil.TestChartDate)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, chart.Entries, found.Entries)

	// Mutating the returned copy must not leak into the store
	found.Entries[0].Title = "changed"
	again, err := repo.FindByDate(ctx, testutil.TestChartDate)
	require.NoError(t, err)
	assert.Equal(t, "Song 1", again.Entries[0].Title)
}

func TestMemoryChartRepository_Miss(t *testing.T) {
	found, err := NewMemoryChartRepository().FindByDate(context.Background(), "1960-01-04")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryChartRepository_ListDeleteCount(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChartRepository()

	for _, d := range []string{"1980-01-05", "1999-12-25", "1990-06-02"} {
		require.NoError(t, repo.Save(ctx, testutil.NewChartBuilder().WithDate(d).Build()))
	}

	dates, err := repo.ListDates(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1999-12-25", "1990-06-02"}, dates)

	require.NoError(t, repo.DeleteByDate(ctx, "1990-06-02"))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
