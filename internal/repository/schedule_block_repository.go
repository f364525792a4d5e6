package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// ScheduleBlockRepository persists the generated schedule. A planning run
// owns its whole window: blocks are deleted and reinserted as one unit inside
// the caller's transaction.
type ScheduleBlockRepository struct {
	db *sqlx.DB
}

// NewScheduleBlockRepository constructs repository.
func NewScheduleBlockRepository(db *sqlx.DB) *ScheduleBlockRepository {
	return &ScheduleBlockRepository{db: db}
}

func (r *ScheduleBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteWindow removes every block of the user inside [from, to).
func (r *ScheduleBlockRepository) DeleteWindow(ctx context.Context, exec sqlx.ExtContext, userID string, from, to time.Time) error {
	const query = `DELETE FROM schedule_blocks WHERE user_id = $1 AND start_at >= $2 AND start_at < $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, userID, from, to); err != nil {
		return fmt.Errorf("delete schedule window: %w", err)
	}
	return nil
}

// InsertBatch writes the freshly planned blocks.
func (r *ScheduleBlockRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	target := r.exec(exec)
	const query = `
INSERT INTO schedule_blocks (id, user_id, type, label, start_at, end_at, task_id, course_id, confidence, meta, created_at)
VALUES (:id, :user_id, :type, :label, :start_at, :end_at, :task_id, :course_id, :confidence, :meta, :created_at)`
	now := time.Now().UTC()
	for i := range blocks {
		block := &blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		if len(block.Meta) == 0 {
			block.Meta = types.JSONText(`{}`)
		}
		if block.CreatedAt.IsZero() {
			block.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, block); err != nil {
			return fmt.Errorf("insert schedule block: %w", err)
		}
	}
	return nil
}

// ListWindow returns the user's blocks inside [from, to) in time order.
func (r *ScheduleBlockRepository) ListWindow(ctx context.Context, userID string, from, to time.Time) ([]models.ScheduleBlock, error) {
	const query = `SELECT id, user_id, type, label, start_at, end_at, task_id, course_id, confidence, meta, created_at
FROM schedule_blocks WHERE user_id = $1 AND start_at >= $2 AND start_at < $3 ORDER BY start_at`
	var blocks []models.ScheduleBlock
	if err := r.db.SelectContext(ctx, &blocks, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list schedule blocks: %w", err)
	}
	return blocks, nil
}
