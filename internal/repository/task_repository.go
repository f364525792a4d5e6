package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// TaskRepository persists tasks, their time logs, and the scheduler-derived
// at-risk flag.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const taskColumns = `id, user_id, title, type, due_at, estimated_minutes, course_id, status, at_risk, completed_at, created_at, updated_at`

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	const query = `
INSERT INTO tasks (id, user_id, title, type, due_at, estimated_minutes, course_id, status, at_risk, created_at, updated_at)
VALUES (:id, :user_id, :title, :type, :due_at, :estimated_minutes, :course_id, :status, :at_risk, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// FindByID returns one task.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 LIMIT 1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find task by id: %w", err)
	}
	return &task, nil
}

// List returns a user's tasks matching the filter, nearest deadline first.
func (r *TaskRepository) List(ctx context.Context, userID string, status models.TaskStatus, courseID string, atRisk *bool) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if courseID != "" {
		args = append(args, courseID)
		query += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	if atRisk != nil {
		args = append(args, *atRisk)
		query += fmt.Sprintf(" AND at_risk = $%d", len(args))
	}
	query += " ORDER BY due_at"
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListSchedulable returns pending and in-progress tasks for a planning run.
func (r *TaskRepository) ListSchedulable(ctx context.Context, userID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND status IN ('pending', 'in_progress') ORDER BY due_at`
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list schedulable tasks: %w", err)
	}
	return tasks, nil
}

// MarkCompleted sets the terminal status and clears the at-risk flag.
func (r *TaskRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	const query = `UPDATE tasks SET status = 'completed', at_risk = FALSE, completed_at = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, completedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}
	return nil
}

// ResetAtRisk clears the derived flag for every task of the user. Runs inside
// the scheduling transaction so a failed run leaves flags untouched.
func (r *TaskRepository) ResetAtRisk(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	const query = `UPDATE tasks SET at_risk = FALSE, updated_at = $2 WHERE user_id = $1 AND at_risk = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset at-risk flags: %w", err)
	}
	return nil
}

// MarkAtRisk sets the flag on the under-scheduled subset.
func (r *TaskRepository) MarkAtRisk(ctx context.Context, exec sqlx.ExtContext, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(taskIDs))
	args := make([]interface{}, 0, len(taskIDs)+1)
	args = append(args, time.Now().UTC())
	for i, id := range taskIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := `UPDATE tasks SET at_risk = TRUE, updated_at = $1 WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := r.exec(exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark at-risk tasks: %w", err)
	}
	return nil
}

// CreateTimeLog records an actual working session.
func (r *TaskRepository) CreateTimeLog(ctx context.Context, log *models.TaskTimeLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now().UTC()
	const query = `
INSERT INTO task_time_logs (id, task_id, start_at, end_at, duration_minutes, created_at)
VALUES (:id, :task_id, :start_at, :end_at, :duration_minutes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert time log: %w", err)
	}
	return nil
}

// SumLoggedMinutes totals the recorded sessions for one task.
func (r *TaskRepository) SumLoggedMinutes(ctx context.Context, taskID string) (int, error) {
	const query = `SELECT COALESCE(SUM(duration_minutes), 0) FROM task_time_logs WHERE task_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, taskID); err != nil {
		return 0, fmt.Errorf("sum logged minutes: %w", err)
	}
	return total, nil
}
