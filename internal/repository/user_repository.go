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

// UserRepository provides database access for accounts and their settings.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	const query = `
INSERT INTO users (id, email, password_hash, name, time_zone, created_at, updated_at)
VALUES (:id, :email, :password_hash, :name, :time_zone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, name, time_zone, created_at, updated_at FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, name, time_zone, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// GetSettings returns the scheduling settings for a user. sql.ErrNoRows is
// passed through so callers can distinguish incomplete onboarding.
func (r *UserRepository) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	const query = `SELECT id, user_id, wake_time, sleep_time, building_walk_buffer_minutes, commute_buffer_minutes,
max_study_minutes_per_day, max_study_block_minutes, time_zone, onboarding_complete, created_at, updated_at
FROM user_settings WHERE user_id = $1 LIMIT 1`
	var settings models.UserSettings
	if err := r.db.GetContext(ctx, &settings, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get user settings: %w", err)
	}
	return &settings, nil
}

// UpsertSettings writes the onboarding settings, replacing any prior row.
func (r *UserRepository) UpsertSettings(ctx context.Context, exec sqlx.ExtContext, settings *models.UserSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	const query = `
INSERT INTO user_settings (id, user_id, wake_time, sleep_time, building_walk_buffer_minutes, commute_buffer_minutes,
	max_study_minutes_per_day, max_study_block_minutes, time_zone, onboarding_complete, created_at, updated_at)
VALUES (:id, :user_id, :wake_time, :sleep_time, :building_walk_buffer_minutes, :commute_buffer_minutes,
	:max_study_minutes_per_day, :max_study_block_minutes, :time_zone, :onboarding_complete, :created_at, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET
	wake_time = EXCLUDED.wake_time,
	sleep_time = EXCLUDED.sleep_time,
	building_walk_buffer_minutes = EXCLUDED.building_walk_buffer_minutes,
	commute_buffer_minutes = EXCLUDED.commute_buffer_minutes,
	max_study_minutes_per_day = EXCLUDED.max_study_minutes_per_day,
	max_study_block_minutes = EXCLUDED.max_study_block_minutes,
	time_zone = EXCLUDED.time_zone,
	onboarding_complete = EXCLUDED.onboarding_complete,
	updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, settings); err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
