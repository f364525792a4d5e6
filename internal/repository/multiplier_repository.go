package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// MultiplierRepository persists the learned estimate multipliers. Wildcard
// keys store NULL; the unique index coalesces NULLs so upserts still hit the
// wildcard rows.
type MultiplierRepository struct {
	db *sqlx.DB
}

// NewMultiplierRepository constructs repository.
func NewMultiplierRepository(db *sqlx.DB) *MultiplierRepository {
	return &MultiplierRepository{db: db}
}

// ListByUser returns every multiplier record for the user.
func (r *MultiplierRepository) ListByUser(ctx context.Context, userID string) ([]models.UserMultiplier, error) {
	const query = `SELECT id, user_id, course_id, task_type, multiplier, created_at, updated_at
FROM user_multipliers WHERE user_id = $1`
	var records []models.UserMultiplier
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list multipliers: %w", err)
	}
	return records, nil
}

// Find returns the record for an exact (user, course, type) key, or
// sql.ErrNoRows when none exists yet.
func (r *MultiplierRepository) Find(ctx context.Context, userID string, courseID *string, taskType *models.TaskType) (*models.UserMultiplier, error) {
	const query = `SELECT id, user_id, course_id, task_type, multiplier, created_at, updated_at
FROM user_multipliers
WHERE user_id = $1 AND course_id IS NOT DISTINCT FROM $2 AND task_type IS NOT DISTINCT FROM $3 LIMIT 1`
	var record models.UserMultiplier
	if err := r.db.GetContext(ctx, &record, query, userID, courseID, taskType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find multiplier: %w", err)
	}
	return &record, nil
}

// Upsert writes the smoothed multiplier for a key, creating the record on
// first completion.
func (r *MultiplierRepository) Upsert(ctx context.Context, record *models.UserMultiplier) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `
INSERT INTO user_multipliers (id, user_id, course_id, task_type, multiplier, created_at, updated_at)
VALUES (:id, :user_id, :course_id, :task_type, :multiplier, :created_at, :updated_at)
ON CONFLICT (user_id, COALESCE(course_id, ''), COALESCE(task_type, '')) DO UPDATE SET
	multiplier = EXCLUDED.multiplier,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert multiplier: %w", err)
	}
	return nil
}
