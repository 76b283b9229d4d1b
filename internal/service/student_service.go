package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

// birthDateLayout is the wire format for student birth dates.
const birthDateLayout = "2006-01-02"

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByRegNo(ctx context.Context, regNo string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	ReplaceQualifications(ctx context.Context, studentID string, quals []models.Qualification) error
	ListQualifications(ctx context.Context, studentID string) ([]models.Qualification, error)
}

type studentBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

type studentMarkRepository interface {
	Upsert(ctx context.Context, mark *models.ExamMark) error
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamMark, error)
}

// QualificationRequest is one prior-education entry in the student form.
type QualificationRequest struct {
	Education string `json:"education" validate:"required"`
	Board     string `json:"board" validate:"required"`
	Year      string `json:"year" validate:"required,len=4,numeric"`
	Marks     string `json:"marks" validate:"required"`
}

// StudentRequest carries the student create/update payload. BirthDate uses
// the YYYY-MM-DD layout.
type StudentRequest struct {
	RegNo          string                 `json:"reg_no" validate:"required,min=4,max=32"`
	FullName       string                 `json:"full_name" validate:"required,min=2,max=200"`
	BirthDate      string                 `json:"birth_date" validate:"required"`
	Email          string                 `json:"email" validate:"omitempty,email"`
	Phone          string                 `json:"phone" validate:"omitempty,min=7,max=20"`
	BatchID        string                 `json:"batch_id" validate:"required"`
	Qualifications []QualificationRequest `json:"qualifications" validate:"omitempty,dive"`
}

// MarkRequest records one exam score for a student.
type MarkRequest struct {
	Subject string `json:"subject" validate:"required"`
	Attempt string `json:"attempt" validate:"required,oneof=REGULAR SUPPLY"`
	Marks   int    `json:"marks" validate:"gte=0,lte=100"`
}

// StudentService manages student records, their qualification history, and
// their exam marks. The student's centre is derived from the batch, never
// taken from the payload.
type StudentService struct {
	students studentRepository
	batches  studentBatchReader
	marks    studentMarkRepository
	cache    centreCache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(
	students studentRepository,
	batches studentBatchReader,
	marks studentMarkRepository,
	cache centreCache,
	validate *validator.Validate,
	logger *zap.Logger,
) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students: students,
		batches:  batches,
		marks:    marks,
		cache:    cache,
		validate: validate,
		logger:   logger,
	}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one student with batch/centre context.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

// Create registers a student under a batch. The registration number must be
// unique board-wide.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.StudentDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	batch, err := s.batches.FindByID(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "batch does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	taken, err := s.students.ExistsByRegNo(ctx, req.RegNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
	}
	if taken {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("registration number %s is already in use", req.RegNo))
	}

	student := &models.Student{
		RegNo:            strings.TrimSpace(req.RegNo),
		FullName:         strings.TrimSpace(req.FullName),
		BirthDate:        birthDate,
		Email:            req.Email,
		Phone:            req.Phone,
		CentreCode:       batch.CentreCode,
		BatchID:          batch.ID,
		HallTicketStatus: models.HallTicketNotApplied,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if len(req.Qualifications) > 0 {
		if err := s.students.ReplaceQualifications(ctx, student.ID, mapQualifications(req.Qualifications)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store qualifications")
		}
	}

	s.invalidateDashboards(ctx)
	s.logger.Info("student registered",
		zap.String("student_id", student.ID),
		zap.String("reg_no", student.RegNo),
		zap.String("centre_code", student.CentreCode))
	return s.Get(ctx, student.ID)
}

// Update modifies a student. Moving the student to a batch under a different
// centre is rejected; hall-ticket state is untouched.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.StudentDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.BatchID != detail.BatchID {
		batch, err := s.batches.FindByID(ctx, req.BatchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "batch does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
		}
		if batch.CentreCode != detail.CentreCode {
			return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "batch belongs to a different centre")
		}
	}

	if req.RegNo != detail.RegNo {
		taken, err := s.students.ExistsByRegNo(ctx, req.RegNo, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
		}
		if taken {
			return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("registration number %s is already in use", req.RegNo))
		}
	}

	student := detail.Student
	student.RegNo = strings.TrimSpace(req.RegNo)
	student.FullName = strings.TrimSpace(req.FullName)
	student.BirthDate = birthDate
	student.Email = req.Email
	student.Phone = req.Phone
	student.BatchID = req.BatchID

	if err := s.students.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if req.Qualifications != nil {
		if err := s.students.ReplaceQualifications(ctx, id, mapQualifications(req.Qualifications)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store qualifications")
		}
	}

	return s.Get(ctx, id)
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidateDashboards(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// Qualifications returns the student's prior-education records.
func (s *StudentService) Qualifications(ctx context.Context, studentID string) ([]models.Qualification, error) {
	quals, err := s.students.ListQualifications(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qualifications")
	}
	return quals, nil
}

// RecordMark stores one exam score, replacing any previous score for the
// same subject and attempt.
func (s *StudentService) RecordMark(ctx context.Context, studentID string, req MarkRequest) (*models.ExamMark, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}

	mark := &models.ExamMark{
		StudentID: studentID,
		Subject:   strings.TrimSpace(req.Subject),
		Attempt:   models.ExamAttempt(req.Attempt),
		Marks:     req.Marks,
	}
	if err := s.marks.Upsert(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record mark")
	}
	return mark, nil
}

// Marks returns all exam scores for one student.
func (s *StudentService) Marks(ctx context.Context, studentID string) ([]models.ExamMark, error) {
	marks, err := s.marks.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}

func (s *StudentService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func parseBirthDate(raw string) (time.Time, error) {
	birthDate, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "birth_date must use the YYYY-MM-DD format")
	}
	return birthDate, nil
}

func mapQualifications(reqs []QualificationRequest) []models.Qualification {
	quals := make([]models.Qualification, 0, len(reqs))
	for _, q := range reqs {
		quals = append(quals, models.Qualification{
			Education: q.Education,
			Board:     q.Board,
			Year:      q.Year,
			Marks:     q.Marks,
		})
	}
	return quals
}
