package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
	"github.com/examcell/centre-portal-api/pkg/export"
)

type hallTicketStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	UpdateHallTicket(ctx context.Context, id string, applied bool, status models.HallTicketStatus, appliedAt *time.Time) error
}

// HallTicketService owns the hall-ticket lifecycle. Approval is pull-based:
// no background timer runs, pending applications ripen when somebody reads
// them after the approval delay has elapsed.
type HallTicketService struct {
	students  hallTicketStudentRepository
	centres   batchCentreReader
	pdf       *export.HallTicketPDF
	boardName string
	delay     time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewHallTicketService constructs the hall-ticket service.
func NewHallTicketService(students hallTicketStudentRepository, centres batchCentreReader, boardName string, delay time.Duration, logger *zap.Logger) *HallTicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = 12 * time.Hour
	}
	if boardName == "" {
		boardName = "State Board of Technical Examinations"
	}
	return &HallTicketService{
		students:  students,
		centres:   centres,
		pdf:       export.NewHallTicketPDF(),
		boardName: boardName,
		delay:     delay,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply records a hall-ticket application for the student. Re-applying
// always restamps the application time and drops the student back to
// PENDING, even from APPROVED; the clock restarts from the newest request.
func (s *HallTicketService) Apply(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	detail, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	appliedAt := s.now().UTC()
	if err := s.students.UpdateHallTicket(ctx, studentID, true, models.HallTicketPending, &appliedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record hall ticket application")
	}

	detail.AppliedForHallTicket = true
	detail.HallTicketStatus = models.HallTicketPending
	detail.HallTicketAppliedAt = &appliedAt

	s.logger.Info("hall ticket application recorded",
		zap.String("student_id", studentID),
		zap.Time("applied_at", appliedAt))
	return detail, nil
}

// Approve moves a pending application to APPROVED by admin action.
func (s *HallTicketService) Approve(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	detail, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if detail.HallTicketStatus != models.HallTicketPending {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "only pending hall ticket applications can be approved")
	}

	if err := s.students.UpdateHallTicket(ctx, studentID, true, models.HallTicketApproved, detail.HallTicketAppliedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve hall ticket")
	}
	detail.HallTicketStatus = models.HallTicketApproved

	s.logger.Info("hall ticket approved", zap.String("student_id", studentID))
	return detail, nil
}

// Ripen checks a single loaded student against the approval delay and
// promotes the application in place when it has waited long enough.
// Returns whether a promotion happened. Non-pending students and pending
// rows missing their application timestamp are left untouched.
func (s *HallTicketService) Ripen(ctx context.Context, detail *models.StudentDetail) (bool, error) {
	if detail == nil || detail.HallTicketStatus != models.HallTicketPending || detail.HallTicketAppliedAt == nil {
		return false, nil
	}
	if s.now().UTC().Sub(detail.HallTicketAppliedAt.UTC()) < s.delay {
		return false, nil
	}

	if err := s.students.UpdateHallTicket(ctx, detail.ID, true, models.HallTicketApproved, detail.HallTicketAppliedAt); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to auto-approve hall ticket")
	}
	detail.HallTicketStatus = models.HallTicketApproved

	s.logger.Info("hall ticket auto-approved",
		zap.String("student_id", detail.ID),
		zap.Timep("applied_at", detail.HallTicketAppliedAt))
	return true, nil
}

// Status loads the student's hall-ticket panel, ripening the application
// first so a read after the delay always shows APPROVED.
func (s *HallTicketService) Status(ctx context.Context, studentID string) (*models.HallTicketPanel, error) {
	detail, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	autoApproved, err := s.Ripen(ctx, detail)
	if err != nil {
		return nil, err
	}

	return &models.HallTicketPanel{
		Applied:      detail.AppliedForHallTicket,
		Status:       detail.HallTicketStatus,
		AppliedAt:    detail.HallTicketAppliedAt,
		AutoApproved: autoApproved,
	}, nil
}

// ListPending returns pending applications for admin review, ripening each
// one on the way out so stale PENDING rows never reach the review screen.
func (s *HallTicketService) ListPending(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	filter.HallTicketStatus = models.HallTicketPending
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hall ticket applications")
	}

	remaining := students[:0]
	for i := range students {
		promoted, err := s.Ripen(ctx, &students[i])
		if err != nil {
			return nil, 0, err
		}
		if promoted {
			total--
			continue
		}
		remaining = append(remaining, students[i])
	}
	return remaining, total, nil
}

// Document renders the printable hall ticket. The application is ripened
// first; anything short of APPROVED is rejected.
func (s *HallTicketService) Document(ctx context.Context, studentID string) ([]byte, error) {
	detail, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.Ripen(ctx, detail); err != nil {
		return nil, err
	}
	if detail.HallTicketStatus != models.HallTicketApproved {
		return nil, appErrors.New(appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "hall ticket is not approved yet")
	}

	data := export.HallTicketData{
		BoardName:   s.boardName,
		CentreCode:  detail.CentreCode,
		RegNo:       detail.RegNo,
		StudentName: detail.FullName,
		DateOfBirth: detail.BirthDate.UTC().Format(birthDateLayout),
		Status:      string(detail.HallTicketStatus),
		ApprovedOn:  detail.UpdatedAt.UTC().Format(birthDateLayout),
	}
	if detail.CentreName != nil {
		data.CentreName = *detail.CentreName
	}
	if detail.BatchName != nil {
		data.BatchName = *detail.BatchName
	}
	if s.centres != nil {
		if centre, err := s.centres.FindByCode(ctx, detail.CentreCode); err == nil {
			data.Course = centre.Course
			data.LogoPath = centre.LogoPath
			data.CentreName = centre.Name
		}
	}

	return s.pdf.Render(data)
}
