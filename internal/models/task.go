package models

import "time"

// TaskType classifies a task and drives default estimates and tie-break priority.
type TaskType string

const (
	TaskHomework TaskType = "homework"
	TaskExam     TaskType = "exam"
	TaskProject  TaskType = "project"
	TaskReading  TaskType = "reading"
	TaskQuiz     TaskType = "quiz"
	TaskOther    TaskType = "other"
	TaskLife     TaskType = "life"
)

// BaseMinutes returns the default estimate used when a task carries none.
func (t TaskType) BaseMinutes() int {
	switch t {
	case TaskHomework:
		return 120
	case TaskExam:
		return 240
	case TaskProject:
		return 300
	case TaskReading:
		return 60
	case TaskQuiz:
		return 90
	case TaskOther:
		return 90
	case TaskLife:
		return 60
	}
	return 60
}

// Priority ranks task types for same-deadline tie-breaks; lower is more urgent.
func (t TaskType) Priority() int {
	switch t {
	case TaskExam:
		return 1
	case TaskProject:
		return 2
	case TaskHomework:
		return 3
	case TaskQuiz:
		return 4
	case TaskReading:
		return 5
	case TaskOther:
		return 6
	case TaskLife:
		return 7
	}
	return 99
}

// Valid reports whether the task type is a known value.
func (t TaskType) Valid() bool {
	switch t {
	case TaskHomework, TaskExam, TaskProject, TaskReading, TaskQuiz, TaskOther, TaskLife:
		return true
	}
	return false
}

// TaskStatus tracks the task lifecycle. Only pending and in_progress tasks are
// eligible for scheduling.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskOverdue    TaskStatus = "overdue"
)

// Schedulable reports whether tasks in this status participate in planning.
func (s TaskStatus) Schedulable() bool {
	return s == TaskPending || s == TaskInProgress
}

// Task is a deadline-bound unit of work to be fit into the schedule.
// AtRisk is derived: the scheduler resets and re-marks it on every run.
type Task struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	Title            string     `db:"title" json:"title"`
	Type             TaskType   `db:"type" json:"type"`
	DueAt            time.Time  `db:"due_at" json:"due_at"`
	EstimatedMinutes int        `db:"estimated_minutes" json:"estimated_minutes"`
	CourseID         *string    `db:"course_id" json:"course_id,omitempty"`
	Status           TaskStatus `db:"status" json:"status"`
	AtRisk           bool       `db:"at_risk" json:"at_risk"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`

	Course *Course `db:"-" json:"course,omitempty"`
}

// TaskTimeLog records an actual working session against a task.
type TaskTimeLog struct {
	ID              string    `db:"id" json:"id"`
	TaskID          string    `db:"task_id" json:"task_id"`
	StartAt         time.Time `db:"start_at" json:"start_at"`
	EndAt           time.Time `db:"end_at" json:"end_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
