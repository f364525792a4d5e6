package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/models"
)

func fixtureSettings() models.UserSettings {
	return models.UserSettings{
		WakeTime:                  "07:00",
		SleepTime:                 "23:00",
		BuildingWalkBufferMinutes: 10,
		CommuteBufferMinutes:      30,
		MaxStudyMinutesPerDay:     240,
		MaxStudyBlockMinutes:      90,
		TimeZone:                  "UTC",
	}
}

func fixtureNow() time.Time {
	// A Monday, early morning.
	return time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestPlanRequiresSettings(t *testing.T) {
	_, err := Plan(Input{Now: fixtureNow(), Days: 1})
	require.Error(t, err)
}

func TestPlanBlocksNeverOverlap(t *testing.T) {
	in := Input{
		Settings: fixtureSettings(),
		Courses: []models.Course{
			{ID: "c1", Name: "Calculus", Difficulty: models.DifficultyMedium, Meetings: []models.ClassMeeting{
				{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30", Building: "Rice Hall"},
				{DayOfWeek: 3, StartTime: "09:00", EndTime: "10:30", Building: "Rice Hall"},
			}},
		},
		Tasks: []models.Task{
			{ID: "t1", Title: "Problem set", Type: models.TaskHomework, Status: models.TaskPending,
				DueAt: fixtureNow().AddDate(0, 0, 5), EstimatedMinutes: 180, CourseID: strPtr("c1")},
		},
		Meals: []models.MealPreference{
			{MealType: models.MealLunch, EarliestTime: "11:30", LatestTime: "13:30", TypicalDurationMin: 45, Importance: 3},
			{MealType: models.MealDinner, EarliestTime: "18:00", LatestTime: "20:00", TypicalDurationMin: 60, Importance: 3},
		},
		Now:  fixtureNow(),
		Days: 7,
	}
	res, err := Plan(in)
	require.NoError(t, err)
	require.NotEmpty(t, res.Blocks)

	byDay := map[string][]PlannedBlock{}
	for _, b := range res.Blocks {
		key := b.StartAt.Format("2006-01-02")
		byDay[key] = append(byDay[key], b)
	}
	for day, blocks := range byDay {
		for i := 0; i < len(blocks); i++ {
			for j := i + 1; j < len(blocks); j++ {
				a, b := blocks[i], blocks[j]
				overlaps := a.StartAt.Before(b.EndAt) && b.StartAt.Before(a.EndAt)
				assert.False(t, overlaps, "overlap on %s: %v/%v", day, a, b)
			}
		}
	}
}

func TestPlanSleepWrapsMidnight(t *testing.T) {
	in := Input{Settings: fixtureSettings(), Now: fixtureNow(), Days: 1}
	res, err := Plan(in)
	require.NoError(t, err)

	var sleep []PlannedBlock
	for _, b := range res.Blocks {
		require.Equal(t, models.BlockSleep, b.Type)
		sleep = append(sleep, b)
	}
	require.Len(t, sleep, 2)
	day := res.From
	assert.Equal(t, day, sleep[0].StartAt)
	assert.Equal(t, day.Add(7*time.Hour), sleep[0].EndAt)
	assert.Equal(t, day.Add(23*time.Hour), sleep[1].StartAt)
	assert.Equal(t, day.AddDate(0, 0, 1), sleep[1].EndAt)
}

func TestPlanNeverSchedulesStudyPastDeadline(t *testing.T) {
	in := Input{
		Settings: fixtureSettings(),
		Tasks: []models.Task{
			{ID: "t1", Title: "Essay", Type: models.TaskHomework, Status: models.TaskPending,
				DueAt: fixtureNow().AddDate(0, 0, 2), EstimatedMinutes: 300},
		},
		Now:  fixtureNow(),
		Days: 7,
	}
	res, err := Plan(in)
	require.NoError(t, err)

	deadline := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	for _, b := range res.Blocks {
		if b.Type != models.BlockStudy {
			continue
		}
		assert.True(t, b.EndAt.Before(deadline) || b.EndAt.Equal(deadline),
			"study block past deadline: %v", b)
	}
}

func TestPlanFlagsAtRiskTask(t *testing.T) {
	settings := fixtureSettings()
	settings.MaxStudyMinutesPerDay = 60
	settings.MaxStudyBlockMinutes = 60
	in := Input{
		Settings: settings,
		Tasks: []models.Task{
			{ID: "t1", Title: "Midterm prep", Type: models.TaskExam, Status: models.TaskPending,
				DueAt: fixtureNow().AddDate(0, 0, 1), EstimatedMinutes: 240},
		},
		Now:  fixtureNow(),
		Days: 7,
	}
	res, err := Plan(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"t1"}, res.AtRiskTaskIDs)
	assert.Equal(t, 240, res.RequiredMinutes["t1"])
	assert.LessOrEqual(t, res.ScheduledMinutes["t1"], 120)
}

func TestPlanZeroDailyCapSchedulesNoStudy(t *testing.T) {
	settings := fixtureSettings()
	settings.MaxStudyMinutesPerDay = 0
	in := Input{
		Settings: settings,
		Tasks: []models.Task{
			{ID: "t1", Title: "Essay", Type: models.TaskHomework, Status: models.TaskPending,
				DueAt: fixtureNow().AddDate(0, 0, 3), EstimatedMinutes: 120},
		},
		Now:  fixtureNow(),
		Days: 7,
	}
	res, err := Plan(in)
	require.NoError(t, err)

	for _, b := range res.Blocks {
		assert.NotEqual(t, models.BlockStudy, b.Type)
	}
	assert.Zero(t, res.ScheduledMinutes["t1"])
	assert.Equal(t, []string{"t1"}, res.AtRiskTaskIDs)
}

func TestPlanIsIdempotent(t *testing.T) {
	in := Input{
		Settings: fixtureSettings(),
		Courses: []models.Course{
			{ID: "c1", Name: "Chemistry", Difficulty: models.DifficultyHard, Meetings: []models.ClassMeeting{
				{DayOfWeek: 2, StartTime: "14:00", EndTime: "15:15", Building: "Chem Hall"},
			}},
		},
		Tasks: []models.Task{
			{ID: "t1", Title: "Lab report", Type: models.TaskHomework, Status: models.TaskInProgress,
				DueAt: fixtureNow().AddDate(0, 0, 4), EstimatedMinutes: 120, CourseID: strPtr("c1")},
		},
		Meals: []models.MealPreference{
			{MealType: models.MealLunch, EarliestTime: "12:00", LatestTime: "14:00", TypicalDurationMin: 30, Importance: 2},
		},
		Now:  fixtureNow(),
		Days: 7,
	}
	first, err := Plan(in)
	require.NoError(t, err)
	second, err := Plan(in)
	require.NoError(t, err)

	require.Equal(t, len(first.Blocks), len(second.Blocks))
	for i := range first.Blocks {
		assert.Equal(t, first.Blocks[i], second.Blocks[i])
	}
}

func TestPlanMealImportanceWinsContestedSlot(t *testing.T) {
	settings := fixtureSettings()
	// Wake late and sleep early so only 12:00-13:00 is open.
	settings.WakeTime = "12:00"
	settings.SleepTime = "13:00"
	in := Input{
		Settings: settings,
		Meals: []models.MealPreference{
			{MealType: models.MealSnack, EarliestTime: "12:00", LatestTime: "13:00", TypicalDurationMin: 60, Importance: 1},
			{MealType: models.MealLunch, EarliestTime: "12:00", LatestTime: "13:00", TypicalDurationMin: 60, Importance: 3},
		},
		Now:  fixtureNow(),
		Days: 1,
	}
	res, err := Plan(in)
	require.NoError(t, err)

	var lunchPlaced bool
	for _, b := range res.Blocks {
		if b.Type == models.BlockMeal && b.Label == "Lunch window" {
			lunchPlaced = true
		}
		assert.NotEqual(t, models.BlockSnack, b.Type)
	}
	assert.True(t, lunchPlaced)
	require.Len(t, res.MissedMeals, 1)
	assert.Equal(t, models.MealSnack, res.MissedMeals[0].MealType)
	assert.Equal(t, "No free slot", res.MissedMeals[0].Reason)
}

func TestPlanSplitsTaskIntoCappedChunks(t *testing.T) {
	in := Input{
		Settings: fixtureSettings(),
		Tasks: []models.Task{
			{ID: "t1", Title: "Reading list", Type: models.TaskReading, Status: models.TaskPending,
				DueAt: fixtureNow().AddDate(0, 0, 6), EstimatedMinutes: 150},
		},
		Now:  fixtureNow(),
		Days: 7,
	}
	res, err := Plan(in)
	require.NoError(t, err)

	var durations []int
	for _, b := range res.Blocks {
		if b.Type == models.BlockStudy {
			durations = append(durations, int(b.EndAt.Sub(b.StartAt).Minutes()))
		}
	}
	require.Len(t, durations, 2)
	assert.Equal(t, 90, durations[0])
	assert.Equal(t, 60, durations[1])
	assert.Empty(t, res.AtRiskTaskIDs)
}

func TestPlanSkipsStudyBeforeNow(t *testing.T) {
	now := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	in := Input{
		Settings: fixtureSettings(),
		Tasks: []models.Task{
			{ID: "t1", Title: "Quiz review", Type: models.TaskQuiz, Status: models.TaskPending,
				DueAt: now.AddDate(0, 0, 3), EstimatedMinutes: 60},
		},
		Now:  now,
		Days: 3,
	}
	res, err := Plan(in)
	require.NoError(t, err)

	for _, b := range res.Blocks {
		if b.Type == models.BlockStudy {
			assert.False(t, b.StartAt.Before(now), "study placed in the past: %v", b)
		}
	}
}
