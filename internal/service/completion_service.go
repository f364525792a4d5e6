package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	"github.com/novaticstar/hoosgottime/internal/scheduler"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
	"github.com/novaticstar/hoosgottime/pkg/jobs"
)

type completionTaskStore interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	CreateTimeLog(ctx context.Context, log *models.TaskTimeLog) error
	SumLoggedMinutes(ctx context.Context, taskID string) (int, error)
}

type completionCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type multiplierStore interface {
	Find(ctx context.Context, userID string, courseID *string, taskType *models.TaskType) (*models.UserMultiplier, error)
	Upsert(ctx context.Context, record *models.UserMultiplier) error
}

type rescheduleEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CompletionService closes the feedback loop: it records working sessions
// against a task, optionally marks it done, nudges the learned multiplier
// toward the observed actual/estimated ratio, and queues a replan of the
// user's horizon when the backlog shrinks.
type CompletionService struct {
	tasks       completionTaskStore
	courses     completionCourseReader
	multipliers multiplierStore
	queue       rescheduleEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
	reschedule  bool
}

// NewCompletionService wires dependencies. A nil queue disables the
// completion-triggered replan.
func NewCompletionService(tasks completionTaskStore, courses completionCourseReader, multipliers multiplierStore, queue rescheduleEnqueuer, validate *validator.Validate, logger *zap.Logger, reschedule bool) *CompletionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{
		tasks:       tasks,
		courses:     courses,
		multipliers: multipliers,
		queue:       queue,
		validator:   validate,
		logger:      logger,
		reschedule:  reschedule && queue != nil,
	}
}

// minimumSessionMinutes floors a logged session so a quick "done" click still
// counts as real work.
const minimumSessionMinutes = 15

// Complete records one working session for the task and, when MarkComplete is
// set, flips it to completed. Logged sessions feed the multiplier regardless,
// so partial sessions still teach the estimator.
func (s *CompletionService) Complete(ctx context.Context, userID, taskID string, req dto.CompleteTaskRequest) (*dto.CompleteTaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	if !req.FinishedAt.After(req.StartedAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "finishedAt must be after startedAt")
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if task.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task belongs to another user")
	}
	if req.MarkComplete && task.Status == models.TaskCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "task already completed")
	}

	duration := int(math.Round(req.FinishedAt.Sub(req.StartedAt).Minutes()))
	if duration < minimumSessionMinutes {
		duration = minimumSessionMinutes
	}
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	if err := s.tasks.CreateTimeLog(ctx, &models.TaskTimeLog{
		ID:              uuid.NewString(),
		TaskID:          task.ID,
		StartAt:         req.StartedAt.UTC(),
		EndAt:           req.FinishedAt.UTC(),
		DurationMinutes: duration,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record time log")
	}

	if req.MarkComplete {
		completedAt := req.FinishedAt.UTC()
		if err := s.tasks.MarkCompleted(ctx, task.ID, completedAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete task")
		}
		task.Status = models.TaskCompleted
		task.AtRisk = false
		task.CompletedAt = &completedAt
	}

	actual, err := s.tasks.SumLoggedMinutes(ctx, task.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total time logs")
	}

	resp := &dto.CompleteTaskResponse{Task: *task, ActualMinutes: actual}
	if actual > 0 {
		if updated, err := s.updateMultiplier(ctx, task, actual); err != nil {
			s.logger.Warn("multiplier update failed", zap.String("task_id", task.ID), zap.Error(err))
		} else if updated != nil {
			resp.Multiplier = updated
		}
	}

	if s.reschedule && req.MarkComplete {
		job := jobs.NewRescheduleJob(userID)
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue reschedule", zap.String("user_id", userID), zap.Error(err))
		} else {
			resp.Rescheduled = true
		}
	}
	return resp, nil
}

// updateMultiplier moves the (user, course, type) multiplier toward the
// observed ratio. Tasks without a positive estimate carry no signal, and
// ratios inside the deadband leave the multiplier untouched.
func (s *CompletionService) updateMultiplier(ctx context.Context, task *models.Task, actualMinutes int) (*float64, error) {
	estimated := task.EstimatedMinutes
	if estimated <= 0 {
		return nil, nil
	}
	// Compare against the difficulty-adjusted expectation, the same baseline
	// the planner sizes chunks from, so the multiplier learns only the
	// residual error.
	if task.CourseID != nil {
		course, err := s.courses.FindByID(ctx, *task.CourseID)
		if err == nil && course != nil {
			estimated = int(math.Round(float64(estimated) * course.Difficulty.Factor()))
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	taskType := task.Type
	record, err := s.multipliers.Find(ctx, task.UserID, task.CourseID, &taskType)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	current := 1.0
	if record != nil {
		current = record.Multiplier
	}

	next, changed := scheduler.NextMultiplier(current, actualMinutes, estimated)
	if !changed {
		return nil, nil
	}

	if record == nil {
		record = &models.UserMultiplier{
			UserID:   task.UserID,
			CourseID: task.CourseID,
			TaskType: &taskType,
		}
	}
	record.Multiplier = next
	if err := s.multipliers.Upsert(ctx, record); err != nil {
		return nil, err
	}
	s.logger.Info("multiplier updated",
		zap.String("user_id", task.UserID),
		zap.String("task_type", string(taskType)),
		zap.Float64("multiplier", next),
	)
	return &next, nil
}
