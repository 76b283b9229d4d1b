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

// CentreRepository manages persistence for examination centres.
type CentreRepository struct {
	db *sqlx.DB
}

// NewCentreRepository constructs a CentreRepository.
func NewCentreRepository(db *sqlx.DB) *CentreRepository {
	return &CentreRepository{db: db}
}

const centreColumns = "id, code, name, address, director, email, scheme, college, sector, department, course, logo_path, dept_logo_path, created_at, updated_at"

// List returns centres matching the provided filters.
func (r *CentreRepository) List(ctx context.Context, filter models.CentreFilter) ([]models.Centre, int, error) {
	base := "FROM centres"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", centreColumns, base, size, offset)

	var centres []models.Centre
	if err := r.db.SelectContext(ctx, &centres, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list centres: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count centres: %w", err)
	}
	return centres, total, nil
}

// FindByCode fetches a centre by its business code.
func (r *CentreRepository) FindByCode(ctx context.Context, code string) (*models.Centre, error) {
	query := fmt.Sprintf("SELECT %s FROM centres WHERE code = $1 LIMIT 1", centreColumns)
	var centre models.Centre
	if err := r.db.GetContext(ctx, &centre, query, code); err != nil {
		return nil, err
	}
	return &centre, nil
}

// ExistsByCode checks if a centre with the given code exists.
func (r *CentreRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM centres WHERE code = $1 LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check centre code: %w", err)
	}
	return true, nil
}

// Create inserts a new centre record.
func (r *CentreRepository) Create(ctx context.Context, centre *models.Centre) error {
	if centre.ID == "" {
		centre.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if centre.CreatedAt.IsZero() {
		centre.CreatedAt = now
	}
	centre.UpdatedAt = now
	const query = `INSERT INTO centres (id, code, name, address, director, email, scheme, college, sector, department, course, logo_path, dept_logo_path, created_at, updated_at)
        VALUES (:id, :code, :name, :address, :director, :email, :scheme, :college, :sector, :department, :course, :logo_path, :dept_logo_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, centre); err != nil {
		return fmt.Errorf("create centre: %w", err)
	}
	return nil
}

// Update modifies an existing centre.
func (r *CentreRepository) Update(ctx context.Context, centre *models.Centre) error {
	centre.UpdatedAt = time.Now().UTC()
	const query = `UPDATE centres SET name = :name, address = :address, director = :director, email = :email, scheme = :scheme, college = :college, sector = :sector, department = :department, course = :course, updated_at = :updated_at WHERE code = :code`
	if _, err := r.db.NamedExecContext(ctx, query, centre); err != nil {
		return fmt.Errorf("update centre: %w", err)
	}
	return nil
}

// UpdateLogos stores new logo paths for the centre.
func (r *CentreRepository) UpdateLogos(ctx context.Context, code, logoPath, deptLogoPath string) error {
	const query = `UPDATE centres SET logo_path = COALESCE(NULLIF($2, ''), logo_path), dept_logo_path = COALESCE(NULLIF($3, ''), dept_logo_path), updated_at = $4 WHERE code = $1`
	if _, err := r.db.ExecContext(ctx, query, code, logoPath, deptLogoPath, time.Now().UTC()); err != nil {
		return fmt.Errorf("update centre logos: %w", err)
	}
	return nil
}

// Delete removes a centre by code.
func (r *CentreRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM centres WHERE code = $1", code); err != nil {
		return fmt.Errorf("delete centre: %w", err)
	}
	return nil
}

// Count returns the total number of centres.
func (r *CentreRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM centres"); err != nil {
		return 0, fmt.Errorf("count centres: %w", err)
	}
	return total, nil
}
