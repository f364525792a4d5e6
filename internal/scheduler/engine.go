// Package scheduler implements the pure time-blocking core: it partitions a
// multi-day horizon into half-hour slots, layers fixed commitments (sleep,
// classes and travel, meals) over them in priority order, greedily packs
// study chunks into the remaining free slots, and reports tasks that cannot
// finish before their deadline. The package performs no I/O; callers load
// all inputs up front and persist the resulting blocks.
package scheduler

import (
	"fmt"
	"time"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// DefaultHorizonDays is used when the caller does not pick a horizon.
const DefaultHorizonDays = 7

// MissedMeal flags a meal preference that found no free slot on a day.
// Advisory only; scheduling proceeds without it.
type MissedMeal struct {
	Date     time.Time
	MealType models.MealType
	Reason   string
}

// Input carries everything a planning run reads, loaded once up front.
type Input struct {
	Settings    models.UserSettings
	Courses     []models.Course
	Tasks       []models.Task
	Meals       []models.MealPreference
	Multipliers []models.UserMultiplier

	// Now anchors "today": no study is placed before it, and its date is the
	// first day of the horizon.
	Now  time.Time
	Days int
}

// Result is the full outcome of one planning run.
type Result struct {
	From        time.Time
	Days        int
	Blocks      []PlannedBlock
	MissedMeals []MissedMeal

	// RequiredMinutes and ScheduledMinutes are keyed by task ID; AtRiskTaskIDs
	// lists tasks whose scheduled time falls short of required by more than
	// one slot.
	RequiredMinutes  map[string]int
	ScheduledMinutes map[string]int
	AtRiskTaskIDs    []string
}

// Plan runs the blocker layers and the study placer over the horizon and
// extracts the resulting block set. It is deterministic: identical inputs
// produce identical results.
func Plan(in Input) (*Result, error) {
	if in.Settings.WakeTime == "" || in.Settings.SleepTime == "" {
		return nil, fmt.Errorf("user settings incomplete: wake and sleep times required")
	}
	days := in.Days
	if days <= 0 {
		days = DefaultHorizonDays
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()
	if in.Settings.TimeZone != "" {
		if tz, err := time.LoadLocation(in.Settings.TimeZone); err == nil {
			loc = tz
			now = now.In(tz)
		}
	}
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	grids := newDayGrids(from, days)

	coursesByID := make(map[string]models.Course, len(in.Courses))
	for _, course := range in.Courses {
		coursesByID[course.ID] = course
	}

	result := &Result{
		From:             from,
		Days:             days,
		RequiredMinutes:  make(map[string]int),
		ScheduledMinutes: make(map[string]int),
	}

	for _, g := range grids {
		if err := applySleep(g, in.Settings); err != nil {
			return nil, err
		}
		if err := applyClasses(g, in.Courses, in.Settings); err != nil {
			return nil, err
		}
		missed, err := applyMeals(g, in.Meals)
		if err != nil {
			return nil, err
		}
		result.MissedMeals = append(result.MissedMeals, missed...)
	}

	chunks := buildChunks(in.Tasks, coursesByID, newMultiplierTable(in.Multipliers), in.Settings.MaxStudyBlockMinutes, result.RequiredMinutes)
	nowMinute := now.Hour()*60 + now.Minute()
	placeChunks(grids, chunks, in.Settings, now.Unix(), nowMinute, result.ScheduledMinutes)
	result.AtRiskTaskIDs = atRiskTasks(result.RequiredMinutes, result.ScheduledMinutes)

	for _, g := range grids {
		result.Blocks = append(result.Blocks, extractBlocks(g)...)
	}
	return result, nil
}
