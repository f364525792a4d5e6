package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTaskRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	task := &models.Task{
		UserID: "u1",
		Title:  "Problem set",
		Type:   models.TaskHomework,
		DueAt:  time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryListSchedulable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "type", "due_at", "estimated_minutes", "course_id", "status", "at_risk", "completed_at", "created_at", "updated_at"}).
		AddRow("t1", "u1", "Essay", string(models.TaskHomework), time.Now(), 120, nil, string(models.TaskPending), false, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM tasks WHERE user_id = \\$1 AND status IN").
		WithArgs("u1").
		WillReturnRows(rows)

	tasks, err := repo.ListSchedulable(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Essay", tasks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryAtRiskFlags(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET at_risk = FALSE")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET at_risk = TRUE")).
		WithArgs(sqlmock.AnyArg(), "t1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.ResetAtRisk(context.Background(), nil, "u1"))
	require.NoError(t, repo.MarkAtRisk(context.Background(), nil, []string{"t1", "t2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryMarkAtRiskEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	require.NoError(t, repo.MarkAtRisk(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositorySumLoggedMinutes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(duration_minutes), 0) FROM task_time_logs WHERE task_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(95))

	total, err := repo.SumLoggedMinutes(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 95, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
