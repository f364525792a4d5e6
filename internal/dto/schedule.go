package dto

import (
	"time"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// RunScheduleRequest triggers a planning run. The horizon always starts on
// the current day in the user's timezone.
type RunScheduleRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=30"`
}

// ScheduleQuery selects the window returned by schedule reads.
type ScheduleQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	Days int    `form:"days" validate:"omitempty,min=1,max=30"`
}

// MissedMeal flags a meal window that found no free slot on a given day.
type MissedMeal struct {
	Date     string          `json:"date"`
	MealType models.MealType `json:"mealType"`
	Reason   string          `json:"reason"`
}

// AtRiskTask explains why a task cannot finish before its deadline.
type AtRiskTask struct {
	TaskID           string `json:"taskId"`
	Title            string `json:"title"`
	RequiredMinutes  int    `json:"requiredMinutes"`
	ScheduledMinutes int    `json:"scheduledMinutes"`
	ShortfallMinutes int    `json:"shortfallMinutes"`
}

// ScheduleResponse returns the planned blocks for a window together with the
// warnings produced by the run that built them.
type ScheduleResponse struct {
	From        string                 `json:"from"`
	Days        int                    `json:"days"`
	Blocks      []models.ScheduleBlock `json:"blocks"`
	MissedMeals []MissedMeal           `json:"missedMeals,omitempty"`
	AtRisk      []AtRiskTask           `json:"atRisk,omitempty"`
	GeneratedAt time.Time              `json:"generatedAt"`
}
