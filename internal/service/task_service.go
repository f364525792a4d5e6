package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
)

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, userID string, status models.TaskStatus, courseID string, atRisk *bool) ([]models.Task, error)
}

type taskCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// TaskService manages the deadline-bound task backlog the planner feeds on.
type TaskService struct {
	tasks     taskRepository
	courses   taskCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService wires dependencies.
func NewTaskService(tasks taskRepository, courses taskCourseReader, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, courses: courses, validator: validate, logger: logger}
}

// Create registers a task. A zero estimate is kept as zero so the planner
// applies the per-type default.
func (s *TaskService) Create(ctx context.Context, userID string, req dto.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown task type %q", req.Type))
	}
	if req.DueAt.Before(time.Now().Add(-24 * time.Hour)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due date is in the past")
	}
	if req.CourseID != nil {
		course, err := s.courses.FindByID(ctx, *req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if course.UserID != userID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another user")
		}
	}

	task := &models.Task{
		UserID:           userID,
		Title:            req.Title,
		Type:             req.Type,
		DueAt:            req.DueAt,
		EstimatedMinutes: req.EstimatedMinutes,
		CourseID:         req.CourseID,
		Status:           models.TaskPending,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	s.logger.Info("task created", zap.String("user_id", userID), zap.String("task_id", task.ID), zap.String("type", string(task.Type)))
	return task, nil
}

// List returns the user's tasks matching the query filters.
func (s *TaskService) List(ctx context.Context, userID string, query dto.TaskQuery) ([]models.Task, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task query")
	}
	tasks, err := s.tasks.List(ctx, userID, query.Status, query.CourseID, query.AtRisk)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}
