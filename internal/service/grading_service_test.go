package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStudentCounter struct {
	counts map[time.Time]int
	err    error
	calls  []time.Time
}

func (s *stubStudentCounter) CountCreatedSince(_ context.Context, _ string, since time.Time) (int, error) {
	s.calls = append(s.calls, since)
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[since], nil
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		name      string
		six       int
		twelve    int
		wantGrade string
		wantStars string
	}{
		{"zero students", 0, 0, "D", "★"},
		{"six month upper edge of D", 9, 9, "D", "★"},
		{"six month lower edge of C", 10, 12, "C", "★★"},
		{"six month upper edge of C", 25, 40, "C", "★★"},
		{"twelve month lower edge of B", 26, 26, "B", "★★★"},
		{"twelve month upper edge of B", 30, 50, "B", "★★★"},
		{"twelve month lower edge of A", 40, 51, "A", "★★★★"},
		{"twelve month upper edge of A", 60, 90, "A", "★★★★"},
		{"twelve month lower edge of A plus", 95, 91, "A+", "★★★★★"},
		{"large centre", 500, 1200, "A+", "★★★★★"},
		{"falls through every rule", 26, 25, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grade, stars := GradeFor(tc.six, tc.twelve)
			assert.Equal(t, tc.wantGrade, grade)
			assert.Equal(t, tc.wantStars, stars)
		})
	}
}

func TestGradingServiceRate(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	sixMonthsAgo := now.AddDate(0, -6, 0)
	twelveMonthsAgo := now.AddDate(-1, 0, 0)

	counter := &stubStudentCounter{counts: map[time.Time]int{
		sixMonthsAgo:    30,
		twelveMonthsAgo: 30,
	}}

	svc := NewGradingService(counter, nil)
	svc.now = func() time.Time { return now }

	rating, err := svc.Rate(context.Background(), "TC-001")
	require.NoError(t, err)

	assert.Equal(t, 30, rating.SixMonthCount)
	assert.Equal(t, 30, rating.TwelveMonthCount)
	assert.Equal(t, "B", rating.Grade)
	assert.Equal(t, "★★★", rating.Stars)

	require.Len(t, counter.calls, 2)
	assert.Equal(t, sixMonthsAgo, counter.calls[0])
	assert.Equal(t, twelveMonthsAgo, counter.calls[1])
}

func TestGradingServiceRateSixMonthWindowWins(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	counter := &stubStudentCounter{counts: map[time.Time]int{
		now.AddDate(0, -6, 0): 5,
		now.AddDate(-1, 0, 0): 95,
	}}

	svc := NewGradingService(counter, nil)
	svc.now = func() time.Time { return now }

	rating, err := svc.Rate(context.Background(), "TC-001")
	require.NoError(t, err)

	// The six-month rule sits above the twelve-month rules, so a recent
	// slump outranks a strong year.
	assert.Equal(t, "D", rating.Grade)
	assert.Equal(t, "★", rating.Stars)
}

func TestGradingServiceRateCountError(t *testing.T) {
	counter := &stubStudentCounter{err: errors.New("db gone")}
	svc := NewGradingService(counter, nil)

	rating, err := svc.Rate(context.Background(), "TC-001")
	require.Error(t, err)
	assert.Nil(t, rating)
}
