package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

type stubBatchRepo struct {
	batches map[string]*models.Batch
	deleted []string
}

func (s *stubBatchRepo) List(_ context.Context, _ models.BatchFilter) ([]models.Batch, int, error) {
	out := make([]models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (s *stubBatchRepo) FindByID(_ context.Context, id string) (*models.Batch, error) {
	batch, ok := s.batches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *batch
	return &copied, nil
}

func (s *stubBatchRepo) Create(_ context.Context, batch *models.Batch) error {
	batch.ID = "b-new"
	if s.batches == nil {
		s.batches = map[string]*models.Batch{}
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *stubBatchRepo) Update(_ context.Context, batch *models.Batch) error {
	s.batches[batch.ID] = batch
	return nil
}

func (s *stubBatchRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.batches, id)
	return nil
}

func TestBatchServiceCreateCopiesCentreName(t *testing.T) {
	repo := &stubBatchRepo{}
	centres := &stubCentreRepo{centres: map[string]*models.Centre{
		"TC-001": {Code: "TC-001", Name: "City Centre"},
	}}
	svc := NewBatchService(repo, centres, nil, nil)

	batch, err := svc.Create(context.Background(), BatchRequest{
		Name:       "  Batch 2026  ",
		CentreCode: "TC-001",
		Active:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Batch 2026", batch.Name)
	assert.Equal(t, "City Centre", batch.CentreName)
	assert.True(t, batch.Active)
}

func TestBatchServiceCreateUnknownCentre(t *testing.T) {
	svc := NewBatchService(&stubBatchRepo{}, &stubCentreRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), BatchRequest{Name: "Batch 2026", CentreCode: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceUpdateKeepsCentreBinding(t *testing.T) {
	repo := &stubBatchRepo{batches: map[string]*models.Batch{
		"b1": {ID: "b1", Name: "Old Name", CentreCode: "TC-001", CentreName: "City Centre", Active: true},
	}}
	svc := NewBatchService(repo, &stubCentreRepo{}, nil, nil)

	// Request names a different centre; the binding must not move.
	batch, err := svc.Update(context.Background(), "b1", BatchRequest{
		Name:       "New Name",
		CentreCode: "TC-999",
		Active:     false,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", batch.Name)
	assert.Equal(t, "TC-001", batch.CentreCode)
	assert.Equal(t, "City Centre", batch.CentreName)
	assert.False(t, batch.Active)
}

func TestBatchServiceUpdateNotFound(t *testing.T) {
	svc := NewBatchService(&stubBatchRepo{}, &stubCentreRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), "missing", BatchRequest{Name: "New Name"})
	assert.Equal(t, appErrors.ErrNotFound, err)
}

func TestBatchServiceDelete(t *testing.T) {
	repo := &stubBatchRepo{batches: map[string]*models.Batch{
		"b1": {ID: "b1", Name: "Batch 2026"},
	}}
	svc := NewBatchService(repo, &stubCentreRepo{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "b1"))
	assert.Equal(t, []string{"b1"}, repo.deleted)

	assert.Equal(t, appErrors.ErrNotFound, svc.Delete(context.Background(), "b1"))
}
