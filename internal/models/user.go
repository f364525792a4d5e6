package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	TimeZone     string    `db:"time_zone" json:"time_zone"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserSettings holds the per-user scheduling knobs captured during onboarding.
// Wake/sleep and meal windows are "HH:MM" strings in the user's timezone.
type UserSettings struct {
	ID                        string    `db:"id" json:"id"`
	UserID                    string    `db:"user_id" json:"user_id"`
	WakeTime                  string    `db:"wake_time" json:"wake_time"`
	SleepTime                 string    `db:"sleep_time" json:"sleep_time"`
	BuildingWalkBufferMinutes int       `db:"building_walk_buffer_minutes" json:"building_walk_buffer_minutes"`
	CommuteBufferMinutes      int       `db:"commute_buffer_minutes" json:"commute_buffer_minutes"`
	MaxStudyMinutesPerDay     int       `db:"max_study_minutes_per_day" json:"max_study_minutes_per_day"`
	MaxStudyBlockMinutes      int       `db:"max_study_block_minutes" json:"max_study_block_minutes"`
	TimeZone                  string    `db:"time_zone" json:"time_zone"`
	OnboardingComplete        bool      `db:"onboarding_complete" json:"onboarding_complete"`
	CreatedAt                 time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time `db:"updated_at" json:"updated_at"`
}

// JWTClaims carries the authenticated user identity inside access tokens.
type JWTClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
