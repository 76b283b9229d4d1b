package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/examcell/centre-portal-api/internal/models"
)

// OptionRepository manages the extensible selection lists on the centre form.
type OptionRepository struct {
	db *sqlx.DB
}

// NewOptionRepository constructs an OptionRepository.
func NewOptionRepository(db *sqlx.DB) *OptionRepository {
	return &OptionRepository{db: db}
}

// ListByKind returns the appended custom values for one list.
func (r *OptionRepository) ListByKind(ctx context.Context, kind models.OptionKind) ([]models.CentreOption, error) {
	var options []models.CentreOption
	const query = "SELECT id, kind, value, created_at FROM centre_options WHERE kind = $1 ORDER BY value"
	if err := r.db.SelectContext(ctx, &options, query, kind); err != nil {
		return nil, fmt.Errorf("list centre options: %w", err)
	}
	return options, nil
}

// Exists reports whether the value is already present in the list.
func (r *OptionRepository) Exists(ctx context.Context, kind models.OptionKind, value string) (bool, error) {
	var exists int
	const query = "SELECT 1 FROM centre_options WHERE kind = $1 AND value = $2 LIMIT 1"
	if err := r.db.GetContext(ctx, &exists, query, kind, value); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check centre option: %w", err)
	}
	return true, nil
}

// Append adds a custom value to a list.
func (r *OptionRepository) Append(ctx context.Context, option *models.CentreOption) error {
	if option.ID == "" {
		option.ID = uuid.NewString()
	}
	if option.CreatedAt.IsZero() {
		option.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO centre_options (id, kind, value, created_at) VALUES (:id, :kind, :value, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, option); err != nil {
		return fmt.Errorf("append centre option: %w", err)
	}
	return nil
}
