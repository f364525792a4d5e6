package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/models"
)

func TestScheduleBlockRepositoryReplaceWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleBlockRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_blocks WHERE user_id = $1 AND start_at >= $2 AND start_at < $3")).
		WithArgs("u1", from, to).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_blocks")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.DeleteWindow(context.Background(), nil, "u1", from, to))
	blocks := []models.ScheduleBlock{{
		UserID:     "u1",
		Type:       models.BlockStudy,
		Label:      "Essay",
		StartAt:    from.Add(9 * time.Hour),
		EndAt:      from.Add(10 * time.Hour),
		Confidence: 0.7,
	}}
	require.NoError(t, repo.InsertBatch(context.Background(), nil, blocks))
	assert.NotEmpty(t, blocks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleBlockRepositoryListWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleBlockRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "label", "start_at", "end_at", "task_id", "course_id", "confidence", "meta", "created_at"}).
		AddRow("b1", "u1", string(models.BlockSleep), "Sleep", from, from.Add(7*time.Hour), nil, nil, 1.0, []byte(`{}`), time.Now())
	mock.ExpectQuery("SELECT .+ FROM schedule_blocks WHERE user_id = \\$1").
		WithArgs("u1", from, to).
		WillReturnRows(rows)

	blocks, err := repo.ListWindow(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, models.BlockSleep, blocks[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
