package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// MealRepository persists per-user meal preference windows.
type MealRepository struct {
	db *sqlx.DB
}

// NewMealRepository constructs repository.
func NewMealRepository(db *sqlx.DB) *MealRepository {
	return &MealRepository{db: db}
}

func (r *MealRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByUser returns the user's meal windows in stored order.
func (r *MealRepository) ListByUser(ctx context.Context, userID string) ([]models.MealPreference, error) {
	const query = `SELECT id, user_id, meal_type, earliest_time, latest_time, typical_duration_min, importance, created_at, updated_at
FROM meal_preferences WHERE user_id = $1 ORDER BY created_at`
	var prefs []models.MealPreference
	if err := r.db.SelectContext(ctx, &prefs, query, userID); err != nil {
		return nil, fmt.Errorf("list meal preferences: %w", err)
	}
	return prefs, nil
}

// ReplaceForUser swaps the user's full preference set, used by onboarding.
func (r *MealRepository) ReplaceForUser(ctx context.Context, exec sqlx.ExtContext, userID string, prefs []models.MealPreference) error {
	target := r.exec(exec)
	const deleteQuery = `DELETE FROM meal_preferences WHERE user_id = $1`
	if _, err := target.ExecContext(ctx, deleteQuery, userID); err != nil {
		return fmt.Errorf("delete meal preferences: %w", err)
	}
	const insertQuery = `
INSERT INTO meal_preferences (id, user_id, meal_type, earliest_time, latest_time, typical_duration_min, importance, created_at, updated_at)
VALUES (:id, :user_id, :meal_type, :earliest_time, :latest_time, :typical_duration_min, :importance, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range prefs {
		pref := &prefs[i]
		if pref.ID == "" {
			pref.ID = uuid.NewString()
		}
		pref.UserID = userID
		if pref.CreatedAt.IsZero() {
			pref.CreatedAt = now
		}
		pref.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, pref); err != nil {
			return fmt.Errorf("insert meal preference: %w", err)
		}
	}
	return nil
}
