package scheduler

import (
	"math"

	"github.com/novaticstar/hoosgottime/internal/models"
)

const wildcard = "*"

type multiplierKey struct {
	CourseID string
	TaskType string
}

// multiplierTable resolves the learned estimate multiplier for a task through
// an ordered fallback chain: exact (course, type), then (course, *), then
// (*, type), then the global (*, *), defaulting to 1.0.
type multiplierTable map[multiplierKey]float64

func newMultiplierTable(records []models.UserMultiplier) multiplierTable {
	table := make(multiplierTable, len(records))
	for _, record := range records {
		table[multiplierKeyFor(record.CourseID, record.TaskType)] = record.Multiplier
	}
	return table
}

func multiplierKeyFor(courseID *string, taskType *models.TaskType) multiplierKey {
	key := multiplierKey{CourseID: wildcard, TaskType: wildcard}
	if courseID != nil && *courseID != "" {
		key.CourseID = *courseID
	}
	if taskType != nil && *taskType != "" {
		key.TaskType = string(*taskType)
	}
	return key
}

func (t multiplierTable) resolve(courseID string, taskType models.TaskType) float64 {
	if courseID == "" {
		courseID = wildcard
	}
	chain := []multiplierKey{
		{CourseID: courseID, TaskType: string(taskType)},
		{CourseID: courseID, TaskType: wildcard},
		{CourseID: wildcard, TaskType: string(taskType)},
		{CourseID: wildcard, TaskType: wildcard},
	}
	for _, key := range chain {
		if m, ok := t[key]; ok {
			return m
		}
	}
	return 1.0
}

// estimateMinutes converts a task to concrete study minutes: its own estimate
// (or the per-type default), scaled by course difficulty and the learned
// multiplier.
func estimateMinutes(task models.Task, course *models.Course, multipliers multiplierTable) int {
	base := task.EstimatedMinutes
	if base <= 0 {
		base = task.Type.BaseMinutes()
	}
	difficulty := 1.0
	courseID := ""
	if course != nil {
		difficulty = course.Difficulty.Factor()
		courseID = course.ID
	} else if task.CourseID != nil {
		courseID = *task.CourseID
	}
	multiplier := multipliers.resolve(courseID, task.Type)
	return int(math.Round(float64(base) * difficulty * multiplier))
}
