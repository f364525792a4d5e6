package models

import "time"

// MealType identifies a meal preference window.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Valid reports whether the meal type is a known value.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// MealPreference describes when and how long a user likes to eat.
// Importance (1-3) decides who wins when meal windows compete for slots.
type MealPreference struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	MealType           MealType  `db:"meal_type" json:"meal_type"`
	EarliestTime       string    `db:"earliest_time" json:"earliest_time"`
	LatestTime         string    `db:"latest_time" json:"latest_time"`
	TypicalDurationMin int       `db:"typical_duration_min" json:"typical_duration_min"`
	Importance         int       `db:"importance" json:"importance"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
