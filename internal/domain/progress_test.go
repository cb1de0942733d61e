package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionPercentage(t *testing.T) {
	cases := []struct {
		completed, total int
		want             float64
	}{
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{5, 4, 100},
		{3, 0, 0},
		{-1, 2, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CompletionPercentage(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, OverviewStats{}, stats)
}

func TestSummarize(t *testing.T) {
	records := []Progress{
		{ProgressPercentage: 100, Completed: true, TotalTimeSpent: 600},
		{ProgressPercentage: 50, TotalTimeSpent: 120},
		{ProgressPercentage: 0, TotalTimeSpent: 0},
	}
	stats := Summarize(records)
	assert.Equal(t, 3, stats.TotalCourses)
	assert.Equal(t, 1, stats.CompletedCourses)
	assert.Equal(t, 1, stats.InProgressCourses)
	assert.Equal(t, int64(720), stats.TotalTimeSpent)
	assert.InDelta(t, 50.0, stats.AverageProgress, 1e-9)
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("enroll: %w", ErrAlreadyEnrolled)
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, kind)
	assert.True(t, errors.Is(err, ErrAlreadyEnrolled))

	_, ok = KindOf(errors.New("boom"))
	assert.False(t, ok)
}
