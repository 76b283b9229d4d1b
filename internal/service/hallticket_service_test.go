package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

type hallTicketUpdate struct {
	id        string
	applied   bool
	status    models.HallTicketStatus
	appliedAt *time.Time
}

type stubHallTicketRepo struct {
	students map[string]*models.StudentDetail
	listed   []models.StudentDetail
	updates  []hallTicketUpdate
	findErr  error
}

func (s *stubHallTicketRepo) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	detail, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *detail
	return &copied, nil
}

func (s *stubHallTicketRepo) List(_ context.Context, _ models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, len(s.listed))
	copy(out, s.listed)
	return out, len(out), nil
}

func (s *stubHallTicketRepo) UpdateHallTicket(_ context.Context, id string, applied bool, status models.HallTicketStatus, appliedAt *time.Time) error {
	s.updates = append(s.updates, hallTicketUpdate{id: id, applied: applied, status: status, appliedAt: appliedAt})
	return nil
}

func newHallTicketStudent(id string, status models.HallTicketStatus, appliedAt *time.Time) *models.StudentDetail {
	return &models.StudentDetail{Student: models.Student{
		ID:                   id,
		RegNo:                "REG-" + id,
		FullName:             "Student " + id,
		AppliedForHallTicket: status != models.HallTicketNotApplied,
		HallTicketStatus:     status,
		HallTicketAppliedAt:  appliedAt,
	}}
}

func TestHallTicketApply(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubHallTicketRepo{students: map[string]*models.StudentDetail{
		"s1": newHallTicketStudent("s1", models.HallTicketNotApplied, nil),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)
	svc.now = func() time.Time { return now }

	detail, err := svc.Apply(context.Background(), "s1")
	require.NoError(t, err)

	assert.True(t, detail.AppliedForHallTicket)
	assert.Equal(t, models.HallTicketPending, detail.HallTicketStatus)
	require.NotNil(t, detail.HallTicketAppliedAt)
	assert.Equal(t, now, *detail.HallTicketAppliedAt)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, models.HallTicketPending, repo.updates[0].status)
}

func TestHallTicketApplyNotFound(t *testing.T) {
	svc := NewHallTicketService(&stubHallTicketRepo{students: map[string]*models.StudentDetail{}}, nil, "", 12*time.Hour, nil)

	_, err := svc.Apply(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound, err)
}

func TestHallTicketReApplyResetsClock(t *testing.T) {
	firstApplied := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := firstApplied.Add(20 * time.Hour)
	repo := &stubHallTicketRepo{students: map[string]*models.StudentDetail{
		"s1": newHallTicketStudent("s1", models.HallTicketApproved, &firstApplied),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)
	svc.now = func() time.Time { return now }

	detail, err := svc.Apply(context.Background(), "s1")
	require.NoError(t, err)

	// A fresh application demotes even an approved ticket and restarts
	// the waiting period from now.
	assert.Equal(t, models.HallTicketPending, detail.HallTicketStatus)
	require.NotNil(t, detail.HallTicketAppliedAt)
	assert.Equal(t, now, *detail.HallTicketAppliedAt)
}

func TestHallTicketRipen(t *testing.T) {
	appliedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  models.HallTicketStatus
		at      *time.Time
		elapsed time.Duration
		want    bool
	}{
		{"one hour short", models.HallTicketPending, &appliedAt, 11 * time.Hour, false},
		{"exactly at the delay", models.HallTicketPending, &appliedAt, 12 * time.Hour, true},
		{"past the delay", models.HallTicketPending, &appliedAt, 13 * time.Hour, true},
		{"never applied", models.HallTicketNotApplied, nil, 48 * time.Hour, false},
		{"already approved", models.HallTicketApproved, &appliedAt, 48 * time.Hour, false},
		{"pending without timestamp", models.HallTicketPending, nil, 48 * time.Hour, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubHallTicketRepo{}
			svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)
			svc.now = func() time.Time { return appliedAt.Add(tc.elapsed) }

			detail := newHallTicketStudent("s1", tc.status, tc.at)
			promoted, err := svc.Ripen(context.Background(), detail)
			require.NoError(t, err)
			assert.Equal(t, tc.want, promoted)

			if tc.want {
				assert.Equal(t, models.HallTicketApproved, detail.HallTicketStatus)
				require.Len(t, repo.updates, 1)
				assert.Equal(t, models.HallTicketApproved, repo.updates[0].status)
				assert.Equal(t, &appliedAt, repo.updates[0].appliedAt)
			} else {
				assert.Equal(t, tc.status, detail.HallTicketStatus)
				assert.Empty(t, repo.updates)
			}
		})
	}
}

func TestHallTicketStatusRipensOnRead(t *testing.T) {
	appliedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubHallTicketRepo{students: map[string]*models.StudentDetail{
		"s1": newHallTicketStudent("s1", models.HallTicketPending, &appliedAt),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)
	svc.now = func() time.Time { return appliedAt.Add(14 * time.Hour) }

	panel, err := svc.Status(context.Background(), "s1")
	require.NoError(t, err)

	assert.True(t, panel.Applied)
	assert.Equal(t, models.HallTicketApproved, panel.Status)
	assert.True(t, panel.AutoApproved)
	require.Len(t, repo.updates, 1)
}

func TestHallTicketStatusApprovedStaysApproved(t *testing.T) {
	appliedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubHallTicketRepo{students: map[string]*models.StudentDetail{
		"s1": newHallTicketStudent("s1", models.HallTicketApproved, &appliedAt),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)
	svc.now = func() time.Time { return appliedAt.Add(100 * time.Hour) }

	panel, err := svc.Status(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, models.HallTicketApproved, panel.Status)
	assert.False(t, panel.AutoApproved)
	assert.Empty(t, repo.updates)
}

func TestHallTicketManualApprove(t *testing.T) {
	appliedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubHallTicketRepo{students: map[string]*models.StudentDetail{
		"s1": newHallTicketStudent("s1", models.HallTicketPending, &appliedAt),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)

	detail, err := svc.Approve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.HallTicketApproved, detail.HallTicketStatus)
}

func TestHallTicketManualApproveRequiresPending(t *testing.T) {
	repo := &stubHallTicketRepo{students: map[string]*models.StudentDetail{
		"s1": newHallTicketStudent("s1", models.HallTicketNotApplied, nil),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)

	_, err := svc.Approve(context.Background(), "s1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.updates)
}

func TestHallTicketListPendingPromotesRipeRows(t *testing.T) {
	ripe := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	fresh := ripe.Add(10 * time.Hour)
	repo := &stubHallTicketRepo{listed: []models.StudentDetail{
		*newHallTicketStudent("old", models.HallTicketPending, &ripe),
		*newHallTicketStudent("new", models.HallTicketPending, &fresh),
	}}

	svc := NewHallTicketService(repo, nil, "", 12*time.Hour, nil)
	svc.now = func() time.Time { return ripe.Add(13 * time.Hour) }

	pending, total, err := svc.ListPending(context.Background(), models.StudentFilter{})
	require.NoError(t, err)

	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].ID)
	assert.Equal(t, 1, total)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, "old", repo.updates[0].id)
}
