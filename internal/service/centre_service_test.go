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

type stubCentreRepo struct {
	centres map[string]*models.Centre
	created []*models.Centre
	updated []*models.Centre
	deleted []string
}

func (s *stubCentreRepo) List(_ context.Context, _ models.CentreFilter) ([]models.Centre, int, error) {
	out := make([]models.Centre, 0, len(s.centres))
	for _, c := range s.centres {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (s *stubCentreRepo) FindByCode(_ context.Context, code string) (*models.Centre, error) {
	centre, ok := s.centres[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *centre
	return &copied, nil
}

func (s *stubCentreRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	_, ok := s.centres[code]
	return ok, nil
}

func (s *stubCentreRepo) Create(_ context.Context, centre *models.Centre) error {
	centre.ID = "c-" + centre.Code
	s.created = append(s.created, centre)
	if s.centres == nil {
		s.centres = map[string]*models.Centre{}
	}
	s.centres[centre.Code] = centre
	return nil
}

func (s *stubCentreRepo) Update(_ context.Context, centre *models.Centre) error {
	s.updated = append(s.updated, centre)
	s.centres[centre.Code] = centre
	return nil
}

func (s *stubCentreRepo) UpdateLogos(_ context.Context, code, logoPath, deptLogoPath string) error {
	return nil
}

func (s *stubCentreRepo) Delete(_ context.Context, code string) error {
	s.deleted = append(s.deleted, code)
	delete(s.centres, code)
	return nil
}

type stubOptionRepo struct {
	values   map[string]bool
	appended []models.CentreOption
}

func (s *stubOptionRepo) ListByKind(_ context.Context, kind models.OptionKind) ([]models.CentreOption, error) {
	return nil, nil
}

func (s *stubOptionRepo) Exists(_ context.Context, kind models.OptionKind, value string) (bool, error) {
	return s.values[string(kind)+":"+value], nil
}

func (s *stubOptionRepo) Append(_ context.Context, option *models.CentreOption) error {
	if s.values == nil {
		s.values = map[string]bool{}
	}
	s.values[string(option.Kind)+":"+option.Value] = true
	s.appended = append(s.appended, *option)
	return nil
}

type stubGrader struct {
	rating Rating
}

func (s *stubGrader) Rate(_ context.Context, _ string) (*Rating, error) {
	copied := s.rating
	return &copied, nil
}

type stubCacheInvalidator struct {
	patterns []string
}

func (s *stubCacheInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type stubLogoStore struct {
	saved map[string][]byte
}

func (s *stubLogoStore) Save(filename string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *stubLogoStore) Delete(string) error { return nil }

func validCentreRequest() CentreRequest {
	return CentreRequest{
		Code:       "TC-001",
		Name:       "City Centre",
		Address:    "1 Main St",
		Director:   "A Director",
		Email:      "centre@example.com",
		Scheme:     "Scheme A",
		College:    "City College",
		Sector:     "Public",
		Department: "Computing",
		Course:     "Diploma CS",
	}
}

func newCentreService(repo *stubCentreRepo, options *stubOptionRepo, grader centreGrader, cache *stubCacheInvalidator) *CentreService {
	if options == nil {
		options = &stubOptionRepo{}
	}
	if grader == nil {
		grader = &stubGrader{}
	}
	var invalidator centreCache
	if cache != nil {
		invalidator = cache
	}
	return NewCentreService(repo, options, grader, invalidator, &stubLogoStore{}, nil, nil)
}

func TestCentreServiceCreate(t *testing.T) {
	repo := &stubCentreRepo{}
	options := &stubOptionRepo{}
	cache := &stubCacheInvalidator{}
	svc := newCentreService(repo, options, &stubGrader{rating: Rating{Grade: "D", Stars: "★"}}, cache)

	detail, err := svc.Create(context.Background(), validCentreRequest())
	require.NoError(t, err)

	assert.Equal(t, "TC-001", detail.Code)
	assert.Equal(t, "D", detail.Grade)
	require.Len(t, repo.created, 1)

	// Every selection value is absorbed into its option list.
	assert.Len(t, options.appended, 5)
	assert.Contains(t, cache.patterns, dashboardCachePattern)
}

func TestCentreServiceCreateDuplicateCode(t *testing.T) {
	repo := &stubCentreRepo{centres: map[string]*models.Centre{
		"TC-001": {Code: "TC-001", Name: "Existing"},
	}}
	svc := newCentreService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCentreRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestCentreServiceCreateValidation(t *testing.T) {
	svc := newCentreService(&stubCentreRepo{}, nil, nil, nil)

	req := validCentreRequest()
	req.Name = ""
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCentreServiceGetNotFound(t *testing.T) {
	svc := newCentreService(&stubCentreRepo{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound, err)
}

func TestCentreServiceGetAttachesDerivedGrade(t *testing.T) {
	// Thirty students enrolled in the last year put a centre squarely in
	// grade B through the real rule chain.
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	counter := &stubStudentCounter{counts: map[time.Time]int{
		now.AddDate(0, -6, 0): 30,
		now.AddDate(-1, 0, 0): 30,
	}}
	grading := NewGradingService(counter, nil)
	grading.now = func() time.Time { return now }

	repo := &stubCentreRepo{centres: map[string]*models.Centre{
		"TC-001": {Code: "TC-001", Name: "City Centre"},
	}}
	svc := newCentreService(repo, nil, grading, nil)

	detail, err := svc.Get(context.Background(), "TC-001")
	require.NoError(t, err)
	assert.Equal(t, "B", detail.Grade)
	assert.Equal(t, "★★★", detail.Stars)
	assert.Equal(t, 30, detail.SixMonthCount)
}

func TestCentreServiceAddOptionDeduplicates(t *testing.T) {
	options := &stubOptionRepo{}
	svc := newCentreService(&stubCentreRepo{}, options, nil, nil)

	_, err := svc.AddOption(context.Background(), models.OptionScheme, "Scheme B")
	require.NoError(t, err)
	_, err = svc.AddOption(context.Background(), models.OptionScheme, "Scheme B")
	require.NoError(t, err)

	assert.Len(t, options.appended, 1)
}

func TestCentreServiceAddOptionUnknownKind(t *testing.T) {
	svc := newCentreService(&stubCentreRepo{}, nil, nil, nil)

	_, err := svc.AddOption(context.Background(), models.OptionKind("flavour"), "Vanilla")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCentreServiceUploadLogosRejectsUnknownFormat(t *testing.T) {
	repo := &stubCentreRepo{centres: map[string]*models.Centre{
		"TC-001": {Code: "TC-001"},
	}}
	svc := newCentreService(repo, nil, nil, nil)

	_, err := svc.UploadLogos(context.Background(), "TC-001", []byte("x"), nil, "logo.exe", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCentreServiceDelete(t *testing.T) {
	repo := &stubCentreRepo{centres: map[string]*models.Centre{
		"TC-001": {Code: "TC-001"},
	}}
	cache := &stubCacheInvalidator{}
	svc := newCentreService(repo, nil, nil, cache)

	require.NoError(t, svc.Delete(context.Background(), "TC-001"))
	assert.Equal(t, []string{"TC-001"}, repo.deleted)
	assert.Contains(t, cache.patterns, dashboardCachePattern)

	assert.Equal(t, appErrors.ErrNotFound, svc.Delete(context.Background(), "TC-001"))
}
