package models

import "time"

// CourseDifficulty scales task estimates for a course.
type CourseDifficulty string

const (
	DifficultyEasy   CourseDifficulty = "easy"
	DifficultyMedium CourseDifficulty = "medium"
	DifficultyHard   CourseDifficulty = "hard"
)

// Factor returns the estimate boost applied to tasks of a course.
func (d CourseDifficulty) Factor() float64 {
	switch d {
	case DifficultyEasy:
		return 0.85
	case DifficultyMedium:
		return 1.0
	case DifficultyHard:
		return 1.25
	}
	return 1.0
}

// Valid reports whether the difficulty is a known value.
func (d CourseDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Course is a class a user is enrolled in.
type Course struct {
	ID         string           `db:"id" json:"id"`
	UserID     string           `db:"user_id" json:"user_id"`
	Name       string           `db:"name" json:"name"`
	Code       string           `db:"code" json:"code"`
	Difficulty CourseDifficulty `db:"difficulty" json:"difficulty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`

	Meetings []ClassMeeting `db:"-" json:"meetings,omitempty"`
}

// ClassMeeting is a weekly recurring meeting of a course.
// DayOfWeek follows time.Weekday numbering: 0=Sunday .. 6=Saturday.
type ClassMeeting struct {
	ID        string `db:"id" json:"id"`
	CourseID  string `db:"course_id" json:"course_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	Building  string `db:"building" json:"building"`
}
