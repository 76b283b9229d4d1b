package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/examcell/centre-portal-api/internal/models"
)

// MarkRepository manages persistence for exam mark rows.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs a MarkRepository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// Upsert stores one mark per student/subject/attempt, replacing any
// previous score.
func (r *MarkRepository) Upsert(ctx context.Context, mark *models.ExamMark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now
	const query = `INSERT INTO exam_marks (id, student_id, subject, attempt, marks, created_at, updated_at)
        VALUES (:id, :student_id, :subject, :attempt, :marks, :created_at, :updated_at)
        ON CONFLICT (student_id, subject, attempt)
        DO UPDATE SET marks = EXCLUDED.marks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("upsert exam mark: %w", err)
	}
	return nil
}

// ListByStudent returns all mark rows for one student.
func (r *MarkRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ExamMark, error) {
	var marks []models.ExamMark
	const query = `SELECT id, student_id, subject, attempt, marks, created_at, updated_at
        FROM exam_marks WHERE student_id = $1 ORDER BY subject, attempt`
	if err := r.db.SelectContext(ctx, &marks, query, studentID); err != nil {
		return nil, fmt.Errorf("list exam marks: %w", err)
	}
	return marks, nil
}

// AllRows returns every mark row joined with student identity, one row per
// subject per attempt, for the backup export.
func (r *MarkRepository) AllRows(ctx context.Context) ([]models.ExamMarkRow, error) {
	var rows []models.ExamMarkRow
	const query = `SELECT s.reg_no, s.full_name AS student_name, s.centre_code, m.subject, m.attempt, m.marks
        FROM exam_marks m
        JOIN students s ON s.id = m.student_id
        ORDER BY s.reg_no, m.subject, m.attempt`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("export exam marks: %w", err)
	}
	return rows, nil
}
