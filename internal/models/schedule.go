package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// BlockType identifies what occupies a stretch of the day grid.
type BlockType string

const (
	BlockSleep  BlockType = "sleep"
	BlockClass  BlockType = "class"
	BlockTravel BlockType = "travel"
	BlockMeal   BlockType = "meal"
	BlockSnack  BlockType = "snack"
	BlockStudy  BlockType = "study"
	BlockEvent  BlockType = "event"
)

// ScheduleBlock is a materialized interval of the generated schedule.
// Confidence expresses how firm the block is: fixed commitments carry 1.0,
// derived blocks less.
type ScheduleBlock struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Type       BlockType      `db:"type" json:"type"`
	Label      string         `db:"label" json:"label"`
	StartAt    time.Time      `db:"start_at" json:"start_at"`
	EndAt      time.Time      `db:"end_at" json:"end_at"`
	TaskID     *string        `db:"task_id" json:"task_id,omitempty"`
	CourseID   *string        `db:"course_id" json:"course_id,omitempty"`
	Confidence float64        `db:"confidence" json:"confidence"`
	Meta       types.JSONText `db:"meta" json:"meta,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
