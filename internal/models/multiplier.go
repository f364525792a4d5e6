package models

import "time"

// UserMultiplier is a learned scale factor correcting a user's systematic over-
// or under-estimation, keyed by (user, course, task type). Nil course or task
// type act as wildcards in the estimator's fallback chain.
type UserMultiplier struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CourseID   *string   `db:"course_id" json:"course_id,omitempty"`
	TaskType   *TaskType `db:"task_type" json:"task_type,omitempty"`
	Multiplier float64   `db:"multiplier" json:"multiplier"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
