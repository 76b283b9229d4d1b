package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/examcell/centre-portal-api/internal/models"
	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

const adminDashboardCacheKey = "dashboard:admin"

type dashboardCentreReader interface {
	List(ctx context.Context, filter models.CentreFilter) ([]models.Centre, int, error)
	Count(ctx context.Context) (int, error)
}

type dashboardStudentReader interface {
	Count(ctx context.Context) (int, error)
	CountByHallTicketStatus(ctx context.Context, status models.HallTicketStatus) (int, error)
}

type dashboardCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService assembles the admin landing page and the student portal
// home. The admin aggregate is cached; mutations on centres and students
// invalidate it.
type DashboardService struct {
	centres     dashboardCentreReader
	students    dashboardStudentReader
	grader      centreGrader
	hallTickets *HallTicketService
	studentSvc  *StudentService
	cache       dashboardCacheStore
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(
	centres dashboardCentreReader,
	students dashboardStudentReader,
	grader centreGrader,
	hallTickets *HallTicketService,
	studentSvc *StudentService,
	cache dashboardCacheStore,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		centres:     centres,
		students:    students,
		grader:      grader,
		hallTickets: hallTickets,
		studentSvc:  studentSvc,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// Admin builds the portal-wide dashboard, serving a cached copy when fresh.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	if s.cache != nil {
		cached := &models.AdminDashboard{}
		if err := s.cache.Get(ctx, adminDashboardCacheKey, cached); err == nil {
			return cached, nil
		}
	}

	totalCentres, err := s.centres.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count centres")
	}
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	pending, err := s.students.CountByHallTicketStatus(ctx, models.HallTicketPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending hall tickets")
	}

	// The rating table covers every centre, not one listing page.
	centres, _, err := s.centres.List(ctx, models.CentreFilter{Page: 1, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list centres")
	}

	summaries := make([]models.CentreGradeSummary, 0, len(centres))
	for _, centre := range centres {
		rating, err := s.grader.Rate(ctx, centre.Code)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.CentreGradeSummary{
			Code:             centre.Code,
			Name:             centre.Name,
			SixMonthCount:    rating.SixMonthCount,
			TwelveMonthCount: rating.TwelveMonthCount,
			Grade:            rating.Grade,
			Stars:            rating.Stars,
		})
	}

	dashboard := &models.AdminDashboard{
		TotalCentres:       totalCentres,
		TotalStudents:      totalStudents,
		PendingHallTickets: pending,
		Centres:            summaries,
		GeneratedAt:        s.now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, adminDashboardCacheKey, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache admin dashboard", zap.Error(err))
		}
	}
	return dashboard, nil
}

// Student builds the student landing payload. Loading it runs the lazy
// hall-ticket approval check, so this is the read that usually ripens a
// pending application.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	detail, err := s.studentSvc.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	autoApproved, err := s.hallTickets.Ripen(ctx, detail)
	if err != nil {
		return nil, err
	}

	quals, err := s.studentSvc.Qualifications(ctx, studentID)
	if err != nil {
		return nil, err
	}
	marks, err := s.studentSvc.Marks(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &models.StudentDashboard{
		Student:        *detail,
		Qualifications: quals,
		Marks:          marks,
		HallTicket: models.HallTicketPanel{
			Applied:      detail.AppliedForHallTicket,
			Status:       detail.HallTicketStatus,
			AppliedAt:    detail.HallTicketAppliedAt,
			AutoApproved: autoApproved,
		},
	}, nil
}
