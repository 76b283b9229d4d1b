package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/examcell/centre-portal-api/pkg/errors"
)

// ruleWindow selects which enrollment count a grade rule inspects.
type ruleWindow int

const (
	windowSixMonths ruleWindow = iota
	windowTwelveMonths
)

// gradeRule is one entry of the ordered rating table. max < 0 means
// unbounded above.
type gradeRule struct {
	window ruleWindow
	min    int
	max    int
	grade  string
	stars  string
}

// gradeRules is evaluated top to bottom, first match wins. The order is
// load-bearing: rule 1 exhausts every six-month count ≤ 9, so a six-month
// count of 26+ falls through rules 1 and 2 and is rated on the twelve-month
// window. The final empty rating is kept for counts no rule claims.
var gradeRules = []gradeRule{
	{windowSixMonths, 0, 9, "D", "★"},
	{windowSixMonths, 10, 25, "C", "★★"},
	{windowTwelveMonths, 26, 50, "B", "★★★"},
	{windowTwelveMonths, 51, 90, "A", "★★★★"},
	{windowTwelveMonths, 91, -1, "A+", "★★★★★"},
}

// GradeFor rates a centre from its trailing six- and twelve-month
// enrollment counts. Pure; a centre with zero students gets the lowest
// grade, never an error.
func GradeFor(sixMonthCount, twelveMonthCount int) (grade, stars string) {
	for _, rule := range gradeRules {
		count := sixMonthCount
		if rule.window == windowTwelveMonths {
			count = twelveMonthCount
		}
		if count < rule.min {
			continue
		}
		if rule.max >= 0 && count > rule.max {
			continue
		}
		return rule.grade, rule.stars
	}
	return "", ""
}

// Rating bundles the derived grade with the counts it was computed from.
type Rating struct {
	SixMonthCount    int    `json:"six_month_count"`
	TwelveMonthCount int    `json:"twelve_month_count"`
	Grade            string `json:"grade"`
	Stars            string `json:"stars"`
}

type gradingStudentCounter interface {
	CountCreatedSince(ctx context.Context, centreCode string, since time.Time) (int, error)
}

// GradingService derives centre ratings from student creation timestamps.
// Nothing is persisted; the rating can change between reads as time passes.
type GradingService struct {
	students gradingStudentCounter
	logger   *zap.Logger
	now      func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(students gradingStudentCounter, logger *zap.Logger) *GradingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{students: students, logger: logger, now: time.Now}
}

// Rate computes the centre's rating at the current instant.
func (s *GradingService) Rate(ctx context.Context, centreCode string) (*Rating, error) {
	now := s.now().UTC()

	six, err := s.students.CountCreatedSince(ctx, centreCode, now.AddDate(0, -6, 0))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count six-month enrollments")
	}
	twelve, err := s.students.CountCreatedSince(ctx, centreCode, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count twelve-month enrollments")
	}

	grade, stars := GradeFor(six, twelve)
	return &Rating{
		SixMonthCount:    six,
		TwelveMonthCount: twelve,
		Grade:            grade,
		Stars:            stars,
	}, nil
}
