package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

type centreRepository interface {
	List(ctx context.Context, filter models.CentreFilter) ([]models.Centre, int, error)
	FindByCode(ctx context.Context, code string) (*models.Centre, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, centre *models.Centre) error
	Update(ctx context.Context, centre *models.Centre) error
	UpdateLogos(ctx context.Context, code, logoPath, deptLogoPath string) error
	Delete(ctx context.Context, code string) error
}

type centreOptionRepository interface {
	ListByKind(ctx context.Context, kind models.OptionKind) ([]models.CentreOption, error)
	Exists(ctx context.Context, kind models.OptionKind, value string) (bool, error)
	Append(ctx context.Context, option *models.CentreOption) error
}

type centreGrader interface {
	Rate(ctx context.Context, centreCode string) (*Rating, error)
}

type centreCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type logoStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// CentreRequest carries the registration form fields. The selection fields
// accept any value; unseen ones are appended to their option list.
type CentreRequest struct {
	Code       string `json:"code" validate:"required,min=2,max=32"`
	Name       string `json:"name" validate:"required,min=2,max=200"`
	Address    string `json:"address" validate:"required"`
	Director   string `json:"director" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Scheme     string `json:"scheme" validate:"required"`
	College    string `json:"college" validate:"required"`
	Sector     string `json:"sector" validate:"required"`
	Department string `json:"department" validate:"required"`
	Course     string `json:"course" validate:"required"`
}

// CentreService manages centre registration and exposes read models with the
// derived rating attached.
type CentreService struct {
	centres  centreRepository
	options  centreOptionRepository
	grader   centreGrader
	cache    centreCache
	logos    logoStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCentreService constructs the centre service.
func NewCentreService(
	centres centreRepository,
	options centreOptionRepository,
	grader centreGrader,
	cache centreCache,
	logos logoStore,
	validate *validator.Validate,
	logger *zap.Logger,
) *CentreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CentreService{
		centres:  centres,
		options:  options,
		grader:   grader,
		cache:    cache,
		logos:    logos,
		validate: validate,
		logger:   logger,
	}
}

const dashboardCachePattern = "dashboard:*"

// List returns centres matching the filter, each with its current rating.
func (s *CentreService) List(ctx context.Context, filter models.CentreFilter) ([]models.CentreDetail, *models.Pagination, error) {
	centres, total, err := s.centres.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list centres")
	}

	details := make([]models.CentreDetail, 0, len(centres))
	for _, centre := range centres {
		detail, err := s.attachRating(ctx, centre)
		if err != nil {
			return nil, nil, err
		}
		details = append(details, *detail)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one centre with its rating.
func (s *CentreService) Get(ctx context.Context, code string) (*models.CentreDetail, error) {
	centre, err := s.centres.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load centre")
	}
	return s.attachRating(ctx, *centre)
}

// Create registers a new centre. The centre code is the caller-supplied
// business identifier and must be unique.
func (s *CentreService) Create(ctx context.Context, req CentreRequest) (*models.CentreDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid centre payload")
	}

	exists, err := s.centres.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check centre code")
	}
	if exists {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("centre code %s is already registered", req.Code))
	}

	centre := &models.Centre{
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		Address:    req.Address,
		Director:   req.Director,
		Email:      req.Email,
		Scheme:     req.Scheme,
		College:    req.College,
		Sector:     req.Sector,
		Department: req.Department,
		Course:     req.Course,
	}
	if err := s.centres.Create(ctx, centre); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create centre")
	}

	s.absorbOptions(ctx, req)
	s.invalidateDashboards(ctx)

	s.logger.Info("centre registered", zap.String("code", centre.Code), zap.String("name", centre.Name))
	return s.attachRating(ctx, *centre)
}

// Update modifies an existing centre. The code is immutable.
func (s *CentreService) Update(ctx context.Context, code string, req CentreRequest) (*models.CentreDetail, error) {
	req.Code = code
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid centre payload")
	}

	centre, err := s.centres.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load centre")
	}

	centre.Name = strings.TrimSpace(req.Name)
	centre.Address = req.Address
	centre.Director = req.Director
	centre.Email = req.Email
	centre.Scheme = req.Scheme
	centre.College = req.College
	centre.Sector = req.Sector
	centre.Department = req.Department
	centre.Course = req.Course

	if err := s.centres.Update(ctx, centre); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update centre")
	}

	s.absorbOptions(ctx, req)
	s.invalidateDashboards(ctx)

	return s.attachRating(ctx, *centre)
}

// UploadLogos stores one or both centre logos and records their paths.
// Empty payloads leave the corresponding logo untouched.
func (s *CentreService) UploadLogos(ctx context.Context, code string, logo, deptLogo []byte, logoName, deptLogoName string) (*models.CentreDetail, error) {
	centre, err := s.centres.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load centre")
	}

	var logoPath, deptLogoPath string
	if len(logo) > 0 {
		logoPath, err = s.saveLogo(code, "logo", logoName, logo)
		if err != nil {
			return nil, err
		}
	}
	if len(deptLogo) > 0 {
		deptLogoPath, err = s.saveLogo(code, "dept-logo", deptLogoName, deptLogo)
		if err != nil {
			return nil, err
		}
	}
	if logoPath == "" && deptLogoPath == "" {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no logo file provided")
	}

	if err := s.centres.UpdateLogos(ctx, code, logoPath, deptLogoPath); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record logo paths")
	}

	if logoPath != "" {
		centre.LogoPath = logoPath
	}
	if deptLogoPath != "" {
		centre.DeptLogoPath = deptLogoPath
	}
	return s.attachRating(ctx, *centre)
}

// Delete removes a centre registration.
func (s *CentreService) Delete(ctx context.Context, code string) error {
	exists, err := s.centres.ExistsByCode(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check centre code")
	}
	if !exists {
		return appErrors.ErrNotFound
	}
	if err := s.centres.Delete(ctx, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete centre")
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("centre deleted", zap.String("code", code))
	return nil
}

// Options returns the custom values appended to one selection list.
func (s *CentreService) Options(ctx context.Context, kind models.OptionKind) ([]models.CentreOption, error) {
	if !validOptionKind(kind) {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown option list %q", kind))
	}
	options, err := s.options.ListByKind(ctx, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list options")
	}
	return options, nil
}

// AddOption appends a value to one of the selection lists. Duplicates are
// silently accepted without a second insert.
func (s *CentreService) AddOption(ctx context.Context, kind models.OptionKind, value string) (*models.CentreOption, error) {
	value = strings.TrimSpace(value)
	if !validOptionKind(kind) || value == "" {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "option kind and value are required")
	}

	exists, err := s.options.Exists(ctx, kind, value)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check option")
	}
	option := &models.CentreOption{Kind: kind, Value: value}
	if !exists {
		if err := s.options.Append(ctx, option); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append option")
		}
	}
	return option, nil
}

func (s *CentreService) attachRating(ctx context.Context, centre models.Centre) (*models.CentreDetail, error) {
	rating, err := s.grader.Rate(ctx, centre.Code)
	if err != nil {
		return nil, err
	}
	return &models.CentreDetail{
		Centre:           centre,
		SixMonthCount:    rating.SixMonthCount,
		TwelveMonthCount: rating.TwelveMonthCount,
		Grade:            rating.Grade,
		Stars:            rating.Stars,
	}, nil
}

// absorbOptions appends any unseen selection values so the next registration
// form offers them. Failures are logged, not surfaced; the centre write
// already succeeded.
func (s *CentreService) absorbOptions(ctx context.Context, req CentreRequest) {
	values := map[models.OptionKind]string{
		models.OptionScheme:     req.Scheme,
		models.OptionCollege:    req.College,
		models.OptionSector:     req.Sector,
		models.OptionDepartment: req.Department,
		models.OptionCourse:     req.Course,
	}
	for kind, value := range values {
		if value == "" {
			continue
		}
		if _, err := s.AddOption(ctx, kind, value); err != nil {
			s.logger.Warn("failed to absorb centre option",
				zap.String("kind", string(kind)),
				zap.String("value", value),
				zap.Error(err))
		}
	}
}

func (s *CentreService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *CentreService) saveLogo(code, slot, originalName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unsupported logo format %q", ext))
	}

	filename := fmt.Sprintf("centres/%s/%s-%s%s", code, slot, uuid.NewString(), ext)
	path, err := s.logos.Save(filename, data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store logo")
	}
	return path, nil
}

func validOptionKind(kind models.OptionKind) bool {
	switch kind {
	case models.OptionScheme, models.OptionCollege, models.OptionSector, models.OptionDepartment, models.OptionCourse:
		return true
	}
	return false
}
