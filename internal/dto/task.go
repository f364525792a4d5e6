package dto

import (
	"time"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// CreateTaskRequest registers a deadline-bound task. When EstimatedMinutes is
// zero the per-type default applies.
type CreateTaskRequest struct {
	Title            string          `json:"title" validate:"required"`
	Type             models.TaskType `json:"type" validate:"required"`
	DueAt            time.Time       `json:"dueAt" validate:"required"`
	EstimatedMinutes int             `json:"estimatedMinutes" validate:"omitempty,min=5,max=6000"`
	CourseID         *string         `json:"courseId" validate:"omitempty,uuid"`
}

// CompleteTaskRequest logs a working session against a task so the estimator
// can learn. DurationMinutes overrides the wall-clock span when the session
// had interruptions; MarkComplete additionally flips the task to completed.
type CompleteTaskRequest struct {
	StartedAt       time.Time `json:"startedAt" validate:"required"`
	FinishedAt      time.Time `json:"finishedAt" validate:"required"`
	DurationMinutes *int      `json:"durationMinutes" validate:"omitempty,min=1,max=1440"`
	MarkComplete    bool      `json:"markComplete"`
}

// CompleteTaskResponse reports the learning outcome of a completion.
type CompleteTaskResponse struct {
	Task          models.Task `json:"task"`
	ActualMinutes int         `json:"actualMinutes"`
	Multiplier    *float64    `json:"multiplier,omitempty"`
	Rescheduled   bool        `json:"rescheduled"`
}

// TaskQuery filters task listings.
type TaskQuery struct {
	Status   models.TaskStatus `form:"status" validate:"omitempty,oneof=pending in_progress completed overdue"`
	CourseID string            `form:"courseId" validate:"omitempty,uuid"`
	AtRisk   *bool             `form:"atRisk"`
}
