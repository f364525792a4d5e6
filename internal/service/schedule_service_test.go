package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
)

type stubSettingsReader struct {
	settings *models.UserSettings
	err      error
}

func (s *stubSettingsReader) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	return s.settings, s.err
}

type stubCourseReader struct {
	courses []models.Course
}

func (s *stubCourseReader) ListByUser(ctx context.Context, userID string) ([]models.Course, error) {
	return s.courses, nil
}

type stubTaskStore struct {
	tasks   []models.Task
	reset   bool
	flagged []string
}

func (s *stubTaskStore) ListSchedulable(ctx context.Context, userID string) ([]models.Task, error) {
	return s.tasks, nil
}

func (s *stubTaskStore) ResetAtRisk(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	s.reset = true
	return nil
}

func (s *stubTaskStore) MarkAtRisk(ctx context.Context, exec sqlx.ExtContext, taskIDs []string) error {
	s.flagged = taskIDs
	return nil
}

type stubMealReader struct {
	meals []models.MealPreference
}

func (s *stubMealReader) ListByUser(ctx context.Context, userID string) ([]models.MealPreference, error) {
	return s.meals, nil
}

type stubMultiplierReader struct {
	records []models.UserMultiplier
}

func (s *stubMultiplierReader) ListByUser(ctx context.Context, userID string) ([]models.UserMultiplier, error) {
	return s.records, nil
}

type stubBlockStore struct {
	deleted  bool
	inserted []models.ScheduleBlock
}

func (s *stubBlockStore) DeleteWindow(ctx context.Context, exec sqlx.ExtContext, userID string, from, to time.Time) error {
	s.deleted = true
	return nil
}

func (s *stubBlockStore) InsertBatch(ctx context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error {
	s.inserted = blocks
	return nil
}

func (s *stubBlockStore) ListWindow(ctx context.Context, userID string, from, to time.Time) ([]models.ScheduleBlock, error) {
	return s.inserted, nil
}

type scheduleFixture struct {
	service *ScheduleService
	tasks   *stubTaskStore
	blocks  *stubBlockStore
	mock    sqlmock.Sqlmock
	cleanup func()
}

func newScheduleFixture(t *testing.T, settings *models.UserSettings, settingsErr error, tasks []models.Task) *scheduleFixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	taskStore := &stubTaskStore{tasks: tasks}
	blockStore := &stubBlockStore{}
	service := NewScheduleService(
		&stubSettingsReader{settings: settings, err: settingsErr},
		&stubCourseReader{},
		taskStore,
		&stubMealReader{meals: []models.MealPreference{
			{MealType: models.MealLunch, EarliestTime: "12:00", LatestTime: "14:00", TypicalDurationMin: 30, Importance: 2},
		}},
		&stubMultiplierReader{},
		blockStore,
		sqlxDB,
		NewCacheService(nil, nil, 0, nil, false),
		nil,
		nil,
		nil,
		ScheduleConfig{DefaultHorizonDays: 7, MaxHorizonDays: 30},
	)
	service.now = func() time.Time { return time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC) }
	return &scheduleFixture{
		service: service,
		tasks:   taskStore,
		blocks:  blockStore,
		mock:    mock,
		cleanup: func() { db.Close() },
	}
}

func testSettings() *models.UserSettings {
	return &models.UserSettings{
		UserID:                "u1",
		WakeTime:              "07:00",
		SleepTime:             "23:00",
		MaxStudyMinutesPerDay: 240,
		MaxStudyBlockMinutes:  90,
		TimeZone:              "UTC",
		OnboardingComplete:    true,
	}
}

func TestScheduleServiceRunPersistsWindow(t *testing.T) {
	due := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	fixture := newScheduleFixture(t, testSettings(), nil, []models.Task{
		{ID: "t1", UserID: "u1", Title: "Essay", Type: models.TaskHomework, Status: models.TaskPending, DueAt: due, EstimatedMinutes: 120},
	})
	defer fixture.cleanup()
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	resp, err := fixture.service.Run(context.Background(), "u1", dto.RunScheduleRequest{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", resp.From)
	assert.Equal(t, 7, resp.Days)
	assert.NotEmpty(t, resp.Blocks)
	assert.True(t, fixture.blocks.deleted)
	assert.True(t, fixture.tasks.reset)
	assert.Empty(t, fixture.tasks.flagged)

	var studyMinutes int
	for _, block := range fixture.blocks.inserted {
		if block.Type == models.BlockStudy {
			require.NotNil(t, block.TaskID)
			assert.Equal(t, "t1", *block.TaskID)
			studyMinutes += int(block.EndAt.Sub(block.StartAt).Minutes())
		}
	}
	assert.Equal(t, 120, studyMinutes)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleServiceRunFlagsAtRisk(t *testing.T) {
	settings := testSettings()
	settings.MaxStudyMinutesPerDay = 60
	settings.MaxStudyBlockMinutes = 60
	due := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	fixture := newScheduleFixture(t, settings, nil, []models.Task{
		{ID: "t1", UserID: "u1", Title: "Midterm prep", Type: models.TaskExam, Status: models.TaskPending, DueAt: due, EstimatedMinutes: 240},
	})
	defer fixture.cleanup()
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	resp, err := fixture.service.Run(context.Background(), "u1", dto.RunScheduleRequest{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, []string{"t1"}, fixture.tasks.flagged)
	require.Len(t, resp.AtRisk, 1)
	assert.Equal(t, "t1", resp.AtRisk[0].TaskID)
	assert.Equal(t, "Midterm prep", resp.AtRisk[0].Title)
	assert.Equal(t, 240, resp.AtRisk[0].RequiredMinutes)
	assert.LessOrEqual(t, resp.AtRisk[0].ScheduledMinutes, 120)
}

func TestScheduleServiceRunRequiresOnboarding(t *testing.T) {
	fixture := newScheduleFixture(t, nil, sql.ErrNoRows, nil)
	defer fixture.cleanup()

	_, err := fixture.service.Run(context.Background(), "u1", dto.RunScheduleRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOnboardingRequired.Code, appErr.Code)
}

func TestScheduleServiceGetClampsHorizon(t *testing.T) {
	fixture := newScheduleFixture(t, testSettings(), nil, nil)
	defer fixture.cleanup()

	resp, err := fixture.service.Get(context.Background(), "u1", dto.ScheduleQuery{Days: 90})
	require.NoError(t, err)
	assert.Equal(t, 30, resp.Days)
}

func TestScheduleServiceExportCSV(t *testing.T) {
	fixture := newScheduleFixture(t, testSettings(), nil, nil)
	defer fixture.cleanup()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	fixture.blocks.inserted = []models.ScheduleBlock{
		{UserID: "u1", Type: models.BlockClass, Label: "Calculus", StartAt: start, EndAt: start.Add(90 * time.Minute), Confidence: 1.0},
	}

	payload, contentType, err := fixture.service.Export(context.Background(), "u1", "csv", dto.ScheduleQuery{Days: 1})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Calculus")
	assert.Contains(t, string(payload), "09:00")
}
