package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examcell/centre-portal-api/internal/models"
)

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reg_no", "full_name", "birth_date", "email", "phone", "centre_code", "batch_id",
		"applied_for_hall_ticket", "hall_ticket_status", "hall_ticket_applied_at", "created_at", "updated_at",
		"batch_name", "centre_name",
	}).AddRow("s1", "REG-1001", "Student One", time.Date(2002, 6, 1, 0, 0, 0, 0, time.UTC),
		"s1@example.com", "5550001", "TC-001", "b1", false, "NOT_APPLIED", nil, time.Now(), time.Now(),
		"Batch 2026", "City Centre")
}

func TestStudentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM students s .+ WHERE 1=1 AND s.centre_code = \\$1 AND s.hall_ticket_status = \\$2").
		WithArgs("TC-001", "PENDING").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("TC-001", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.StudentFilter{
		CentreCode:       "TC-001",
		HallTicketStatus: models.HallTicketPending,
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByRegNo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM students s .+ WHERE s.reg_no = \\$1").
		WithArgs("REG-1001").
		WillReturnRows(studentRows())

	detail, err := repo.FindByRegNo(context.Background(), "REG-1001")
	require.NoError(t, err)
	assert.Equal(t, "Student One", detail.FullName)
	require.NotNil(t, detail.BatchName)
	assert.Equal(t, "Batch 2026", *detail.BatchName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDefaultsHallTicket(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{RegNo: "REG-1002", FullName: "Student Two", CentreCode: "TC-001", BatchID: "b1"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.HallTicketNotApplied, student.HallTicketStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateHallTicket(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	appliedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE students SET applied_for_hall_ticket").
		WithArgs("s1", true, "PENDING", &appliedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateHallTicket(context.Background(), "s1", true, models.HallTicketPending, &appliedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountCreatedSince(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students WHERE centre_code = \\$1 AND created_at >= \\$2").
		WithArgs("TC-001", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))

	total, err := repo.CountCreatedSince(context.Background(), "TC-001", since)
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryReplaceQualifications(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("DELETE FROM qualifications WHERE student_id = \\$1").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO qualifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	quals := []models.Qualification{{Education: "SSC", Board: "State Board", Year: "2018", Marks: "82%"}}
	require.NoError(t, repo.ReplaceQualifications(context.Background(), "s1", quals))
	assert.NoError(t, mock.ExpectationsWereMet())
}
