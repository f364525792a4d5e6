package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	"github.com/novaticstar/hoosgottime/internal/scheduler"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
	"github.com/novaticstar/hoosgottime/pkg/export"
)

type scheduleSettingsReader interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
}

type scheduleCourseReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
}

type scheduleTaskStore interface {
	ListSchedulable(ctx context.Context, userID string) ([]models.Task, error)
	ResetAtRisk(ctx context.Context, exec sqlx.ExtContext, userID string) error
	MarkAtRisk(ctx context.Context, exec sqlx.ExtContext, taskIDs []string) error
}

type scheduleMealReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.MealPreference, error)
}

type scheduleMultiplierReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.UserMultiplier, error)
}

type scheduleBlockStore interface {
	DeleteWindow(ctx context.Context, exec sqlx.ExtContext, userID string, from, to time.Time) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error
	ListWindow(ctx context.Context, userID string, from, to time.Time) ([]models.ScheduleBlock, error)
}

// ScheduleConfig bounds planning horizons and the read cache.
type ScheduleConfig struct {
	DefaultHorizonDays int
	MaxHorizonDays     int
	CacheTTL           time.Duration
}

// ScheduleService orchestrates planning runs: load inputs, run the planner,
// and replace the persisted window atomically. Runs for the same user are
// serialized through a per-user lock so a racing pair cannot interleave their
// delete and insert phases.
type ScheduleService struct {
	settings    scheduleSettingsReader
	courses     scheduleCourseReader
	tasks       scheduleTaskStore
	meals       scheduleMealReader
	multipliers scheduleMultiplierReader
	blocks      scheduleBlockStore
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      ScheduleConfig

	csv *export.CSVExporter
	pdf *export.PDFExporter

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swapped in tests to pin the horizon.
	now func() time.Time
}

// NewScheduleService wires planner dependencies.
func NewScheduleService(
	settings scheduleSettingsReader,
	courses scheduleCourseReader,
	tasks scheduleTaskStore,
	meals scheduleMealReader,
	multipliers scheduleMultiplierReader,
	blocks scheduleBlockStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleConfig,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = scheduler.DefaultHorizonDays
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = 30
	}
	return &ScheduleService{
		settings:    settings,
		courses:     courses,
		tasks:       tasks,
		meals:       meals,
		multipliers: multipliers,
		blocks:      blocks,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      cfg,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		locks:       map[string]*sync.Mutex{},
		now:         time.Now,
	}
}

func (s *ScheduleService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *ScheduleService) clampDays(days int) int {
	if days <= 0 {
		return s.config.DefaultHorizonDays
	}
	if days > s.config.MaxHorizonDays {
		return s.config.MaxHorizonDays
	}
	return days
}

// Run executes a full planning pass for the user and replaces the persisted
// schedule window.
func (s *ScheduleService) Run(ctx context.Context, userID string, req dto.RunScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}
	days := s.clampDays(req.Days)

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	started := s.now()
	result, titles, err := s.plan(ctx, userID, days)
	if err != nil {
		s.metrics.RecordPlanRun("error", s.now().Sub(started), 0, 0, 0)
		return nil, err
	}

	if err := s.persist(ctx, userID, result); err != nil {
		s.metrics.RecordPlanRun("error", s.now().Sub(started), 0, 0, 0)
		return nil, err
	}

	s.metrics.RecordPlanRun("success", s.now().Sub(started), len(result.Blocks), len(result.AtRiskTaskIDs), len(result.MissedMeals))
	s.cache.Invalidate(ctx, fmt.Sprintf("schedule:%s:*", userID))
	s.logger.Info("schedule planned",
		zap.String("user_id", userID),
		zap.Int("days", result.Days),
		zap.Int("blocks", len(result.Blocks)),
		zap.Int("at_risk", len(result.AtRiskTaskIDs)),
		zap.Int("missed_meals", len(result.MissedMeals)),
	)

	return s.toResponse(ctx, userID, result, titles), nil
}

func (s *ScheduleService) plan(ctx context.Context, userID string, days int) (*scheduler.Result, map[string]string, error) {
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrOnboardingRequired, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if !settings.OnboardingComplete {
		return nil, nil, appErrors.Clone(appErrors.ErrOnboardingRequired, "")
	}

	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	tasks, err := s.tasks.ListSchedulable(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	meals, err := s.meals.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meal preferences")
	}
	multipliers, err := s.multipliers.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load multipliers")
	}

	titles := make(map[string]string, len(tasks))
	for _, task := range tasks {
		titles[task.ID] = task.Title
	}

	result, err := scheduler.Plan(scheduler.Input{
		Settings:    *settings,
		Courses:     courses,
		Tasks:       tasks,
		Meals:       meals,
		Multipliers: multipliers,
		Now:         s.now(),
		Days:        days,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrOnboardingRequired.Code, appErrors.ErrOnboardingRequired.Status, "scheduling failed: check saved settings")
	}
	return result, titles, nil
}

// persist replaces the window and rewrites the at-risk flags in a single
// transaction so a failed run leaves the previous schedule intact.
func (s *ScheduleService) persist(ctx context.Context, userID string, result *scheduler.Result) error {
	rows := make([]models.ScheduleBlock, 0, len(result.Blocks))
	for _, block := range result.Blocks {
		row := models.ScheduleBlock{
			UserID:     userID,
			Type:       block.Type,
			Label:      block.Label,
			StartAt:    block.StartAt,
			EndAt:      block.EndAt,
			Confidence: block.Confidence,
		}
		if block.TaskID != "" {
			taskID := block.TaskID
			row.TaskID = &taskID
		}
		if block.CourseID != "" {
			courseID := block.CourseID
			row.CourseID = &courseID
		}
		if block.Building != "" || block.MealType != "" {
			fields := map[string]string{}
			if block.Building != "" {
				fields["building"] = block.Building
			}
			if block.MealType != "" {
				fields["mealType"] = string(block.MealType)
			}
			meta, err := json.Marshal(fields)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode block meta")
			}
			row.Meta = types.JSONText(meta)
		}
		rows = append(rows, row)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	to := result.From.AddDate(0, 0, result.Days)
	if err := s.blocks.DeleteWindow(ctx, tx, userID, result.From, to); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear schedule window")
	}
	if err := s.blocks.InsertBatch(ctx, tx, rows); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write schedule blocks")
	}
	if err := s.tasks.ResetAtRisk(ctx, tx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset at-risk flags")
	}
	if err := s.tasks.MarkAtRisk(ctx, tx, result.AtRiskTaskIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark at-risk tasks")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
	}
	return nil
}

func (s *ScheduleService) toResponse(ctx context.Context, userID string, result *scheduler.Result, titles map[string]string) *dto.ScheduleResponse {
	to := result.From.AddDate(0, 0, result.Days)
	blocks, err := s.blocks.ListWindow(ctx, userID, result.From, to)
	if err != nil {
		s.logger.Warn("failed to reload planned window", zap.String("user_id", userID), zap.Error(err))
	}

	resp := &dto.ScheduleResponse{
		From:        result.From.Format("2006-01-02"),
		Days:        result.Days,
		Blocks:      blocks,
		GeneratedAt: s.now().UTC(),
	}
	for _, missed := range result.MissedMeals {
		resp.MissedMeals = append(resp.MissedMeals, dto.MissedMeal{
			Date:     missed.Date.Format("2006-01-02"),
			MealType: missed.MealType,
			Reason:   missed.Reason,
		})
	}
	for _, taskID := range result.AtRiskTaskIDs {
		resp.AtRisk = append(resp.AtRisk, dto.AtRiskTask{
			TaskID:           taskID,
			Title:            titles[taskID],
			RequiredMinutes:  result.RequiredMinutes[taskID],
			ScheduledMinutes: result.ScheduledMinutes[taskID],
			ShortfallMinutes: result.RequiredMinutes[taskID] - result.ScheduledMinutes[taskID],
		})
	}
	return resp
}

// Get returns the persisted schedule window, served from cache when warm.
func (s *ScheduleService) Get(ctx context.Context, userID string, query dto.ScheduleQuery) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	from, days, err := s.resolveWindow(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("schedule:%s:%s:%d", userID, from.Format("2006-01-02"), days)
	var cached dto.ScheduleResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	blocks, err := s.blocks.ListWindow(ctx, userID, from, from.AddDate(0, 0, days))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	resp := &dto.ScheduleResponse{
		From:        from.Format("2006-01-02"),
		Days:        days,
		Blocks:      blocks,
		GeneratedAt: s.now().UTC(),
	}
	s.cache.Set(ctx, key, resp, s.config.CacheTTL)
	return resp, nil
}

// Export renders the schedule window as CSV or PDF for printing or import
// into an external calendar.
func (s *ScheduleService) Export(ctx context.Context, userID, format string, query dto.ScheduleQuery) ([]byte, string, error) {
	resp, err := s.Get(ctx, userID, query)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Date", "Start", "End", "Type", "Label", "Building"}}
	for _, block := range resp.Blocks {
		building := ""
		if len(block.Meta) > 0 {
			var meta map[string]string
			if err := json.Unmarshal(block.Meta, &meta); err == nil {
				building = meta["building"]
			}
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":     block.StartAt.Format("2006-01-02"),
			"Start":    block.StartAt.Format("15:04"),
			"End":      block.EndAt.Format("15:04"),
			"Type":     string(block.Type),
			"Label":    block.Label,
			"Building": building,
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		subtitle := fmt.Sprintf("%s, %d days", resp.From, resp.Days)
		payload, err := s.pdf.Render(data, "Weekly Schedule", subtitle)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ScheduleService) resolveWindow(ctx context.Context, userID string, query dto.ScheduleQuery) (time.Time, int, error) {
	days := s.clampDays(query.Days)

	loc := time.UTC
	if settings, err := s.settings.GetSettings(ctx, userID); err == nil && settings.TimeZone != "" {
		if tz, err := time.LoadLocation(settings.TimeZone); err == nil {
			loc = tz
		}
	}

	if query.From != "" {
		from, err := time.ParseInLocation("2006-01-02", query.From, loc)
		if err != nil {
			return time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "invalid from date")
		}
		return from, days, nil
	}
	now := s.now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), days, nil
}
