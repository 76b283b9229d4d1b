package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

type batchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id string) error
}

type batchCentreReader interface {
	FindByCode(ctx context.Context, code string) (*models.Centre, error)
}

// BatchRequest carries the create/update payload for a batch.
type BatchRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=200"`
	CentreCode string `json:"centre_code" validate:"required"`
	Active     bool   `json:"active"`
}

// BatchService manages batch cohorts. The parent centre's name is copied
// onto the batch at creation time; later centre renames are not propagated.
type BatchService struct {
	batches  batchRepository
	centres  batchCentreReader
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBatchService constructs the batch service.
func NewBatchService(batches batchRepository, centres batchCentreReader, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{batches: batches, centres: centres, validate: validate, logger: logger}
}

// List returns batches matching the filter.
func (s *BatchService) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, *models.Pagination, error) {
	batches, total, err := s.batches.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return batches, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single batch.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// Create registers a batch under an existing centre, copying the centre's
// current name onto the batch row.
func (s *BatchService) Create(ctx context.Context, req BatchRequest) (*models.Batch, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	centre, err := s.centres.FindByCode(ctx, req.CentreCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "centre does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load centre")
	}

	batch := &models.Batch{
		Name:       strings.TrimSpace(req.Name),
		CentreCode: centre.Code,
		CentreName: centre.Name,
		Active:     req.Active,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}

	s.logger.Info("batch created",
		zap.String("batch_id", batch.ID),
		zap.String("centre_code", batch.CentreCode))
	return batch, nil
}

// Update renames a batch or toggles its active flag. The centre binding and
// the denormalised centre name are immutable.
func (s *BatchService) Update(ctx context.Context, id string, req BatchRequest) (*models.Batch, error) {
	if err := s.validate.StructPartial(req, "Name"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	batch.Name = strings.TrimSpace(req.Name)
	batch.Active = req.Active
	if err := s.batches.Update(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch")
	}
	return batch, nil
}

// Delete removes a batch. Students keep their batch_id pointing at the
// removed row; their batch name simply stops resolving.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.batches.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	s.logger.Info("batch deleted", zap.String("batch_id", id))
	return nil
}
