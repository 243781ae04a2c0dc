package services

import (
	"context"
	"testing"
	"time"

	"hitcapsule/internal/repositories"
	"hitcapsule/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse(chartDateLayout, s)
	return t
}

func TestBackfillOptions_Dates(t *testing.T) {
	dates, err := BackfillOptions{From: day("1997-03-01"), To: day("1997-03-15"), StepDays: 7}.Dates()
	require.NoError(t, err)
	assert.Equal(t, []string{"1997-03-01", "1997-03-08", "1997-03-15"}, dates)

	_, err = BackfillOptions{From: day("1997-03-15"), To: day("1997-03-01"), StepDays: 7}.Dates()
	assert.Error(t, err)

	_, err = BackfillOptions{From: day("1997-03-01"), To: day("1997-03-15")}.Dates()
	assert.Error(t, err)
}

func TestChartBackfiller_Run(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryChartRepository()
	require.NoError(t, repo.Save(ctx, testutil.NewChartBuilder().WithDate("1997-03-08").WithGeneratedEntries(1).Build()))

	source := &mockChartSource{}
	source.On("FetchChart", mock.Anything, "1997-03-01").
		Return(testutil.NewChartBuilder().WithDate("1997-03-01").WithGeneratedEntries(2).Build(), nil)
	source.On("FetchChart", mock.Anything, "1997-03-15").Return(nil, ErrChartEmpty)

	var seen []string
	report, err := NewChartBackfiller(source, repo).Run(ctx, BackfillOptions{
		From:     day("1997-03-01"),
		To:       day("1997-03-15"),
		StepDays: 7,
	}, func(date, status string) {
		seen = append(seen, date+":"+status)
	})
	require.NoError(t, err)

	assert.Equal(t, BackfillReport{Archived: 1, Skipped: 1, Failed: 1, FailedDates: []string{"1997-03-15"}}, report)
	assert.Equal(t, []string{"1997-03-01:archived", "1997-03-08:skipped", "1997-03-15:failed"}, seen)
	source.AssertNotCalled(t, "FetchChart", mock.Anything, "1997-03-08")

	archived, err := repo.FindByDate(ctx, "1997-03-01")
	require.NoError(t, err)
	require.NotNil(t, archived)
	assert.Len(t, archived.Entries, 2)
}

func TestChartBackfiller_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &mockChartSource{}
	source.On("FetchChart", mock.Anything, "1997-03-01").Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled)

	report, err := NewChartBackfiller(source, repositories.NewMemoryChartRepository()).Run(ctx, BackfillOptions{
		From:     day("1997-03-01"),
		To:       day("1997-03-29"),
		StepDays: 7,
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, BackfillReport{}, report)
	source.AssertNumberOfCalls(t, "FetchChart", 1)
}
