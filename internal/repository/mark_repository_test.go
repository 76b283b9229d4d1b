package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examcell/centre-portal-api/internal/models"
)

func TestMarkRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectExec("INSERT INTO exam_marks").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mark := &models.ExamMark{StudentID: "s1", Subject: "Mathematics", Attempt: models.AttemptRegular, Marks: 74}
	require.NoError(t, repo.Upsert(context.Background(), mark))
	assert.NotEmpty(t, mark.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryAllRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"reg_no", "student_name", "centre_code", "subject", "attempt", "marks"}).
		AddRow("REG-1001", "Student One", "TC-001", "Mathematics", "REGULAR", 74).
		AddRow("REG-1001", "Student One", "TC-001", "Mathematics", "SUPPLY", 81)
	mock.ExpectQuery("SELECT s.reg_no, s.full_name AS student_name").
		WillReturnRows(rows)

	exported, err := repo.AllRows(context.Background())
	require.NoError(t, err)
	require.Len(t, exported, 2)
	assert.Equal(t, models.AttemptSupply, exported[1].Attempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
