package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	"github.com/novaticstar/hoosgottime/pkg/jobs"
)

type stubCompletionTaskStore struct {
	task      *models.Task
	logs      []models.TaskTimeLog
	completed bool
	total     int
}

func (s *stubCompletionTaskStore) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if s.task == nil {
		return nil, sql.ErrNoRows
	}
	return s.task, nil
}

func (s *stubCompletionTaskStore) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	s.completed = true
	return nil
}

func (s *stubCompletionTaskStore) CreateTimeLog(ctx context.Context, log *models.TaskTimeLog) error {
	s.logs = append(s.logs, *log)
	s.total += log.DurationMinutes
	return nil
}

func (s *stubCompletionTaskStore) SumLoggedMinutes(ctx context.Context, taskID string) (int, error) {
	return s.total, nil
}

type stubCompletionCourses struct {
	course *models.Course
}

func (s *stubCompletionCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if s.course == nil {
		return nil, sql.ErrNoRows
	}
	return s.course, nil
}

type stubMultiplierStore struct {
	record   *models.UserMultiplier
	upserted *models.UserMultiplier
}

func (s *stubMultiplierStore) Find(ctx context.Context, userID string, courseID *string, taskType *models.TaskType) (*models.UserMultiplier, error) {
	if s.record == nil {
		return nil, sql.ErrNoRows
	}
	return s.record, nil
}

func (s *stubMultiplierStore) Upsert(ctx context.Context, record *models.UserMultiplier) error {
	s.upserted = record
	return nil
}

type stubEnqueuer struct {
	jobs []jobs.Job
}

func (s *stubEnqueuer) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

func pendingTask() *models.Task {
	return &models.Task{
		ID:               "t1",
		UserID:           "u1",
		Title:            "Essay",
		Type:             models.TaskHomework,
		Status:           models.TaskPending,
		DueAt:            time.Now().Add(72 * time.Hour),
		EstimatedMinutes: 100,
	}
}

func sessionAt(start time.Time, length time.Duration) dto.CompleteTaskRequest {
	return dto.CompleteTaskRequest{StartedAt: start, FinishedAt: start.Add(length)}
}

func TestCompletionUpdatesMultiplierOnSlowFinish(t *testing.T) {
	tasks := &stubCompletionTaskStore{task: pendingTask()}
	multipliers := &stubMultiplierStore{}
	queue := &stubEnqueuer{}
	service := NewCompletionService(tasks, &stubCompletionCourses{}, multipliers, queue, nil, nil, true)

	req := sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 150*time.Minute)
	req.MarkComplete = true
	resp, err := service.Complete(context.Background(), "u1", "t1", req)
	require.NoError(t, err)

	assert.True(t, tasks.completed)
	assert.Equal(t, models.TaskCompleted, resp.Task.Status)
	assert.Equal(t, 150, resp.ActualMinutes)
	require.NotNil(t, resp.Multiplier)
	// 150 actual over 100 estimated: target 1.5, smoothed from 1.0 by 0.2.
	assert.InDelta(t, 1.1, *resp.Multiplier, 1e-9)
	require.NotNil(t, multipliers.upserted)
	assert.InDelta(t, 1.1, multipliers.upserted.Multiplier, 1e-9)
	assert.True(t, resp.Rescheduled)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, jobs.TypeReschedule, queue.jobs[0].Type)
	assert.Equal(t, "u1", queue.jobs[0].UserID)
}

func TestCompletionLogsSessionWithoutCompleting(t *testing.T) {
	tasks := &stubCompletionTaskStore{task: pendingTask()}
	queue := &stubEnqueuer{}
	service := NewCompletionService(tasks, &stubCompletionCourses{}, &stubMultiplierStore{}, queue, nil, nil, true)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	resp, err := service.Complete(context.Background(), "u1", "t1", sessionAt(start, 45*time.Minute))
	require.NoError(t, err)

	assert.False(t, tasks.completed)
	assert.Equal(t, models.TaskPending, resp.Task.Status)
	assert.Nil(t, resp.Task.CompletedAt)
	assert.False(t, resp.Rescheduled)
	assert.Empty(t, queue.jobs)
	require.Len(t, tasks.logs, 1)
	assert.Equal(t, 45, tasks.logs[0].DurationMinutes)

	// A second partial session on the same task is accepted and accumulates.
	resp, err = service.Complete(context.Background(), "u1", "t1", sessionAt(start.Add(3*time.Hour), 30*time.Minute))
	require.NoError(t, err)

	assert.False(t, tasks.completed)
	require.Len(t, tasks.logs, 2)
	assert.Equal(t, 75, resp.ActualMinutes)
}

func TestCompletionHonorsDurationOverride(t *testing.T) {
	tasks := &stubCompletionTaskStore{task: pendingTask()}
	service := NewCompletionService(tasks, &stubCompletionCourses{}, &stubMultiplierStore{}, nil, nil, nil, false)

	override := 45
	req := sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 90*time.Minute)
	req.DurationMinutes = &override
	resp, err := service.Complete(context.Background(), "u1", "t1", req)
	require.NoError(t, err)

	require.Len(t, tasks.logs, 1)
	assert.Equal(t, 45, tasks.logs[0].DurationMinutes)
	assert.Equal(t, 45, resp.ActualMinutes)
}

func TestCompletionAdjustsBaselineForCourseDifficulty(t *testing.T) {
	task := pendingTask()
	courseID := "c1"
	task.CourseID = &courseID
	tasks := &stubCompletionTaskStore{task: task}
	multipliers := &stubMultiplierStore{}
	courses := &stubCompletionCourses{course: &models.Course{ID: courseID, UserID: "u1", Name: "Algorithms", Difficulty: models.DifficultyHard}}
	service := NewCompletionService(tasks, courses, multipliers, nil, nil, nil, false)

	resp, err := service.Complete(context.Background(), "u1", "t1", sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 175*time.Minute))
	require.NoError(t, err)

	// Baseline is 100 x 1.25 for a hard course, so 175 actual is a 1.4 ratio.
	require.NotNil(t, resp.Multiplier)
	assert.InDelta(t, 1.08, *resp.Multiplier, 1e-9)
}

func TestCompletionSkipsMultiplierInsideDeadband(t *testing.T) {
	tasks := &stubCompletionTaskStore{task: pendingTask()}
	multipliers := &stubMultiplierStore{}
	service := NewCompletionService(tasks, &stubCompletionCourses{}, multipliers, nil, nil, nil, false)

	resp, err := service.Complete(context.Background(), "u1", "t1", sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 110*time.Minute))
	require.NoError(t, err)

	assert.Nil(t, resp.Multiplier)
	assert.Nil(t, multipliers.upserted)
	assert.False(t, resp.Rescheduled)
}

func TestCompletionSkipsMultiplierWithoutEstimate(t *testing.T) {
	task := pendingTask()
	task.EstimatedMinutes = 0
	tasks := &stubCompletionTaskStore{task: task}
	multipliers := &stubMultiplierStore{}
	service := NewCompletionService(tasks, &stubCompletionCourses{}, multipliers, nil, nil, nil, false)

	resp, err := service.Complete(context.Background(), "u1", "t1", sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 150*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 150, resp.ActualMinutes)
	assert.Nil(t, resp.Multiplier)
	assert.Nil(t, multipliers.upserted)
}

func TestCompletionFloorsShortSessions(t *testing.T) {
	tasks := &stubCompletionTaskStore{task: pendingTask()}
	service := NewCompletionService(tasks, &stubCompletionCourses{}, &stubMultiplierStore{}, nil, nil, nil, false)

	resp, err := service.Complete(context.Background(), "u1", "t1", sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 5*time.Minute))
	require.NoError(t, err)

	require.Len(t, tasks.logs, 1)
	assert.Equal(t, 15, tasks.logs[0].DurationMinutes)
	assert.Equal(t, 15, resp.ActualMinutes)
}

func TestCompletionRequiresSession(t *testing.T) {
	service := NewCompletionService(&stubCompletionTaskStore{task: pendingTask()}, &stubCompletionCourses{}, &stubMultiplierStore{}, nil, nil, nil, false)

	_, err := service.Complete(context.Background(), "u1", "t1", dto.CompleteTaskRequest{})
	require.Error(t, err)
}

func TestCompletionRejectsForeignTask(t *testing.T) {
	task := pendingTask()
	task.UserID = "someone-else"
	service := NewCompletionService(&stubCompletionTaskStore{task: task}, &stubCompletionCourses{}, &stubMultiplierStore{}, nil, nil, nil, false)

	_, err := service.Complete(context.Background(), "u1", "t1", sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 30*time.Minute))
	require.Error(t, err)
}

func TestCompletionRejectsDoubleComplete(t *testing.T) {
	task := pendingTask()
	task.Status = models.TaskCompleted
	service := NewCompletionService(&stubCompletionTaskStore{task: task}, &stubCompletionCourses{}, &stubMultiplierStore{}, nil, nil, nil, false)

	req := sessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	req.MarkComplete = true
	_, err := service.Complete(context.Background(), "u1", "t1", req)
	require.Error(t, err)
}
