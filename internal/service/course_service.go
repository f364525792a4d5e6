package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
}

// CourseService manages courses and their weekly meeting patterns.
type CourseService struct {
	courses   courseRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService wires dependencies.
func NewCourseService(courses courseRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, tx: tx, validator: validate, logger: logger}
}

// Create stores a course with its meetings atomically.
func (s *CourseService) Create(ctx context.Context, userID string, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.Difficulty != "" && !req.Difficulty.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown difficulty %q", req.Difficulty))
	}

	course := &models.Course{
		UserID:     userID,
		Name:       req.Name,
		Code:       req.Code,
		Difficulty: req.Difficulty,
	}
	for _, meeting := range req.Meetings {
		course.Meetings = append(course.Meetings, models.ClassMeeting{
			DayOfWeek: meeting.DayOfWeek,
			StartTime: meeting.StartTime,
			EndTime:   meeting.EndTime,
			Building:  meeting.Building,
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := s.courses.Create(ctx, tx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit course")
	}
	s.logger.Info("course created", zap.String("user_id", userID), zap.String("course_id", course.ID), zap.Int("meetings", len(course.Meetings)))
	return course, nil
}

// List returns the user's courses with meetings attached.
func (s *CourseService) List(ctx context.Context, userID string) ([]models.Course, error) {
	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}
