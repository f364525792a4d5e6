package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
)

type settingsRepository interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpsertSettings(ctx context.Context, exec sqlx.ExtContext, settings *models.UserSettings) error
}

type mealRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.MealPreference, error)
	ReplaceForUser(ctx context.Context, exec sqlx.ExtContext, userID string, prefs []models.MealPreference) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// OnboardingService stores the scheduling settings and meal windows every
// planning run depends on.
type OnboardingService struct {
	settings  settingsRepository
	meals     mealRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOnboardingService wires dependencies.
func NewOnboardingService(settings settingsRepository, meals mealRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *OnboardingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{settings: settings, meals: meals, tx: tx, validator: validate, logger: logger}
}

// Save validates and persists the settings plus the full meal preference set
// in one transaction.
func (s *OnboardingService) Save(ctx context.Context, userID string, req dto.OnboardingRequest) (*dto.SettingsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid onboarding payload")
	}
	for _, meal := range req.Meals {
		if !meal.MealType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown meal type %q", meal.MealType))
		}
	}

	settings := &models.UserSettings{
		UserID:                    userID,
		WakeTime:                  req.WakeTime,
		SleepTime:                 req.SleepTime,
		BuildingWalkBufferMinutes: req.BuildingWalkBufferMinutes,
		CommuteBufferMinutes:      req.CommuteBufferMinutes,
		MaxStudyMinutesPerDay:     req.MaxStudyMinutesPerDay,
		MaxStudyBlockMinutes:      req.MaxStudyBlockMinutes,
		TimeZone:                  req.TimeZone,
		OnboardingComplete:        true,
	}
	if existing, err := s.settings.GetSettings(ctx, userID); err == nil {
		settings.ID = existing.ID
		settings.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	prefs := make([]models.MealPreference, 0, len(req.Meals))
	for _, meal := range req.Meals {
		prefs = append(prefs, models.MealPreference{
			UserID:             userID,
			MealType:           meal.MealType,
			EarliestTime:       meal.EarliestTime,
			LatestTime:         meal.LatestTime,
			TypicalDurationMin: meal.TypicalDurationMin,
			Importance:         meal.Importance,
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.settings.UpsertSettings(ctx, tx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	if err := s.meals.ReplaceForUser(ctx, tx, userID, prefs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save meal preferences")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit onboarding")
	}
	s.logger.Info("onboarding saved", zap.String("user_id", userID), zap.Int("meals", len(prefs)))

	return &dto.SettingsResponse{Settings: *settings, Meals: prefs}, nil
}

// Get returns the stored settings and meal windows.
func (s *OnboardingService) Get(ctx context.Context, userID string) (*dto.SettingsResponse, error) {
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "onboarding not completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	meals, err := s.meals.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meal preferences")
	}
	return &dto.SettingsResponse{Settings: *settings, Meals: meals}, nil
}
