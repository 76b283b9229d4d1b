package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/examcell/centre-portal-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentSelect = `SELECT s.id, s.reg_no, s.full_name, s.birth_date, s.email, s.phone, s.centre_code, s.batch_id,
        s.applied_for_hall_ticket, s.hall_ticket_status, s.hall_ticket_applied_at, s.created_at, s.updated_at,
        b.name AS batch_name, c.name AS centre_name`

const studentJoin = `FROM students s
        LEFT JOIN batches b ON b.id = s.batch_id
        LEFT JOIN centres c ON c.code = s.centre_code`

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.CentreCode != "" {
		conditions = append(conditions, fmt.Sprintf("s.centre_code = $%d", len(args)+1))
		args = append(args, filter.CentreCode)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("s.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.HallTicketStatus != "" {
		conditions = append(conditions, fmt.Sprintf("s.hall_ticket_status = $%d", len(args)+1))
		args = append(args, filter.HallTicketStatus)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.reg_no) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base := fmt.Sprintf("%s WHERE %s", studentJoin, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"reg_no":     "s.reg_no",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentSelect, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("%s %s WHERE s.id = $1", studentSelect, studentJoin)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByRegNo fetches a student detail by registration number.
func (r *StudentRepository) FindByRegNo(ctx context.Context, regNo string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("%s %s WHERE s.reg_no = $1", studentSelect, studentJoin)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, regNo); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByRegNo checks if a student with given registration number exists,
// optionally excluding an ID.
func (r *StudentRepository) ExistsByRegNo(ctx context.Context, regNo string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE reg_no = $1"
	args := []interface{}{regNo}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check reg_no: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.HallTicketStatus == "" {
		student.HallTicketStatus = models.HallTicketNotApplied
	}
	const query = `INSERT INTO students (id, reg_no, full_name, birth_date, email, phone, centre_code, batch_id, applied_for_hall_ticket, hall_ticket_status, hall_ticket_applied_at, created_at, updated_at)
        VALUES (:id, :reg_no, :full_name, :birth_date, :email, :phone, :centre_code, :batch_id, :applied_for_hall_ticket, :hall_ticket_status, :hall_ticket_applied_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. Hall-ticket fields mutate through
// UpdateHallTicket only.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET reg_no = :reg_no, full_name = :full_name, birth_date = :birth_date, email = :email, phone = :phone, batch_id = :batch_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateHallTicket persists a hall-ticket state transition.
func (r *StudentRepository) UpdateHallTicket(ctx context.Context, id string, applied bool, status models.HallTicketStatus, appliedAt *time.Time) error {
	const query = `UPDATE students SET applied_for_hall_ticket = $2, hall_ticket_status = $3, hall_ticket_applied_at = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, applied, status, appliedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update hall ticket: %w", err)
	}
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// CountCreatedSince counts the centre's students created at or after the
// given instant. Feeds the grading windows.
func (r *StudentRepository) CountCreatedSince(ctx context.Context, centreCode string, since time.Time) (int, error) {
	var total int
	const query = "SELECT COUNT(*) FROM students WHERE centre_code = $1 AND created_at >= $2"
	if err := r.db.GetContext(ctx, &total, query, centreCode, since); err != nil {
		return 0, fmt.Errorf("count students since: %w", err)
	}
	return total, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountByHallTicketStatus counts students in the given lifecycle state.
func (r *StudentRepository) CountByHallTicketStatus(ctx context.Context, status models.HallTicketStatus) (int, error) {
	var total int
	const query = "SELECT COUNT(*) FROM students WHERE hall_ticket_status = $1"
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, fmt.Errorf("count hall ticket status: %w", err)
	}
	return total, nil
}

// ReplaceQualifications swaps the full qualification set for a student.
// Executed as sequential statements, not a transaction.
func (r *StudentRepository) ReplaceQualifications(ctx context.Context, studentID string, quals []models.Qualification) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM qualifications WHERE student_id = $1", studentID); err != nil {
		return fmt.Errorf("clear qualifications: %w", err)
	}
	const query = `INSERT INTO qualifications (id, student_id, education, board, year, marks)
        VALUES (:id, :student_id, :education, :board, :year, :marks)`
	for i := range quals {
		if quals[i].ID == "" {
			quals[i].ID = uuid.NewString()
		}
		quals[i].StudentID = studentID
		if _, err := r.db.NamedExecContext(ctx, query, quals[i]); err != nil {
			return fmt.Errorf("insert qualification: %w", err)
		}
	}
	return nil
}

// ListQualifications returns the student's qualification records.
func (r *StudentRepository) ListQualifications(ctx context.Context, studentID string) ([]models.Qualification, error) {
	var quals []models.Qualification
	const query = "SELECT id, student_id, education, board, year, marks FROM qualifications WHERE student_id = $1 ORDER BY year"
	if err := r.db.SelectContext(ctx, &quals, query, studentID); err != nil {
		return nil, fmt.Errorf("list qualifications: %w", err)
	}
	return quals, nil
}
