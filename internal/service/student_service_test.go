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

type stubStudentRepo struct {
	students map[string]*models.StudentDetail
	quals    map[string][]models.Qualification
	deleted  []string
}

func (s *stubStudentRepo) List(_ context.Context, _ models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *st)
	}
	return out, len(out), nil
}

func (s *stubStudentRepo) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	detail, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *detail
	return &copied, nil
}

func (s *stubStudentRepo) ExistsByRegNo(_ context.Context, regNo string, excludeID string) (bool, error) {
	for _, st := range s.students {
		if st.RegNo == regNo && st.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStudentRepo) Create(_ context.Context, student *models.Student) error {
	student.ID = "s-new"
	if s.students == nil {
		s.students = map[string]*models.StudentDetail{}
	}
	s.students[student.ID] = &models.StudentDetail{Student: *student}
	return nil
}

func (s *stubStudentRepo) Update(_ context.Context, student *models.Student) error {
	s.students[student.ID] = &models.StudentDetail{Student: *student}
	return nil
}

func (s *stubStudentRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.students, id)
	return nil
}

func (s *stubStudentRepo) ReplaceQualifications(_ context.Context, studentID string, quals []models.Qualification) error {
	if s.quals == nil {
		s.quals = map[string][]models.Qualification{}
	}
	s.quals[studentID] = quals
	return nil
}

func (s *stubStudentRepo) ListQualifications(_ context.Context, studentID string) ([]models.Qualification, error) {
	return s.quals[studentID], nil
}

type stubMarkRepo struct {
	marks []models.ExamMark
}

func (s *stubMarkRepo) Upsert(_ context.Context, mark *models.ExamMark) error {
	mark.ID = "m-new"
	s.marks = append(s.marks, *mark)
	return nil
}

func (s *stubMarkRepo) ListByStudent(_ context.Context, studentID string) ([]models.ExamMark, error) {
	out := make([]models.ExamMark, 0)
	for _, m := range s.marks {
		if m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func validStudentRequest() StudentRequest {
	return StudentRequest{
		RegNo:     "REG-1001",
		FullName:  "Student One",
		BirthDate: "2002-06-01",
		Email:     "s1@example.com",
		BatchID:   "b1",
	}
}

func newStudentService(students *stubStudentRepo, batches *stubBatchRepo) *StudentService {
	if batches == nil {
		batches = &stubBatchRepo{batches: map[string]*models.Batch{
			"b1": {ID: "b1", Name: "Batch 2026", CentreCode: "TC-001", CentreName: "City Centre"},
		}}
	}
	return NewStudentService(students, batches, &stubMarkRepo{}, nil, nil, nil)
}

func TestStudentServiceCreateDerivesCentreFromBatch(t *testing.T) {
	repo := &stubStudentRepo{}
	svc := newStudentService(repo, nil)

	detail, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)

	assert.Equal(t, "TC-001", detail.CentreCode)
	assert.Equal(t, "b1", detail.BatchID)
	assert.Equal(t, models.HallTicketNotApplied, detail.HallTicketStatus)
	assert.Equal(t, time.Date(2002, 6, 1, 0, 0, 0, 0, time.UTC), detail.BirthDate)
}

func TestStudentServiceCreateUnknownBatch(t *testing.T) {
	svc := newStudentService(&stubStudentRepo{}, &stubBatchRepo{})

	_, err := svc.Create(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDuplicateRegNo(t *testing.T) {
	repo := &stubStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", RegNo: "REG-1001"}},
	}}
	svc := newStudentService(repo, nil)

	_, err := svc.Create(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateBadBirthDate(t *testing.T) {
	svc := newStudentService(&stubStudentRepo{}, nil)

	req := validStudentRequest()
	req.BirthDate = "01/06/2002"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateStoresQualifications(t *testing.T) {
	repo := &stubStudentRepo{}
	svc := newStudentService(repo, nil)

	req := validStudentRequest()
	req.Qualifications = []QualificationRequest{
		{Education: "SSC", Board: "State Board", Year: "2018", Marks: "82%"},
	}
	detail, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, repo.quals[detail.ID], 1)
	assert.Equal(t, "SSC", repo.quals[detail.ID][0].Education)
}

func TestStudentServiceUpdateRejectsCrossCentreBatch(t *testing.T) {
	repo := &stubStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", RegNo: "REG-1001", CentreCode: "TC-001", BatchID: "b1"}},
	}}
	batches := &stubBatchRepo{batches: map[string]*models.Batch{
		"b1": {ID: "b1", CentreCode: "TC-001"},
		"b2": {ID: "b2", CentreCode: "TC-002"},
	}}
	svc := newStudentService(repo, batches)

	req := validStudentRequest()
	req.BatchID = "b2"
	_, err := svc.Update(context.Background(), "s1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "b1", repo.students["s1"].BatchID)
}

func TestStudentServiceUpdatePreservesHallTicketState(t *testing.T) {
	appliedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &stubStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{
			ID: "s1", RegNo: "REG-1001", CentreCode: "TC-001", BatchID: "b1",
			AppliedForHallTicket: true,
			HallTicketStatus:     models.HallTicketPending,
			HallTicketAppliedAt:  &appliedAt,
		}},
	}}
	svc := newStudentService(repo, nil)

	req := validStudentRequest()
	req.FullName = "Renamed Student"
	detail, err := svc.Update(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Student", detail.FullName)
	assert.Equal(t, models.HallTicketPending, detail.HallTicketStatus)
	require.NotNil(t, detail.HallTicketAppliedAt)
	assert.True(t, detail.HallTicketAppliedAt.Equal(appliedAt))
}

func TestStudentServiceRecordMark(t *testing.T) {
	repo := &stubStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", RegNo: "REG-1001"}},
	}}
	marks := &stubMarkRepo{}
	svc := NewStudentService(repo, &stubBatchRepo{}, marks, nil, nil, nil)

	mark, err := svc.RecordMark(context.Background(), "s1", MarkRequest{
		Subject: " Mathematics ",
		Attempt: "REGULAR",
		Marks:   74,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", mark.Subject)
	assert.Equal(t, models.AttemptRegular, mark.Attempt)
	require.Len(t, marks.marks, 1)
}

func TestStudentServiceRecordMarkRejectsBadAttempt(t *testing.T) {
	repo := &stubStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1"}},
	}}
	svc := NewStudentService(repo, &stubBatchRepo{}, &stubMarkRepo{}, nil, nil, nil)

	_, err := svc.RecordMark(context.Background(), "s1", MarkRequest{
		Subject: "Mathematics",
		Attempt: "RETAKE",
		Marks:   74,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
