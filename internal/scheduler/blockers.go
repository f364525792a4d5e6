package scheduler

import (
	"fmt"
	"sort"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// Confidence levels for the block layers. Fixed commitments carry 1.0 and
// can never be displaced because they claim first.
const (
	confidenceSleep  = 1.0
	confidenceClass  = 1.0
	confidenceTravel = 0.9
	confidenceMeal   = 0.85
	confidenceStudy  = 0.7
)

// applySleep blocks the user's sleep window on a single grid. A window
// wrapping midnight (the usual case, e.g. 23:00-07:00) is blocked as two
// segments of the same day rather than spilling into the next grid.
func applySleep(g *dayGrid, settings models.UserSettings) error {
	wake, err := parseClock(settings.WakeTime)
	if err != nil {
		return fmt.Errorf("wake time: %w", err)
	}
	sleep, err := parseClock(settings.SleepTime)
	if err != nil {
		return fmt.Errorf("sleep time: %w", err)
	}
	block := slotBlock{Type: models.BlockSleep, Label: "Sleep", Confidence: confidenceSleep}
	if sleep < wake {
		g.claimRange(sleep, wake, block)
		return nil
	}
	g.claimRange(0, wake, block)
	g.claimRange(sleep, 24*60, block)
	return nil
}

// applyClasses blocks every meeting of the day, padded by the walk buffer,
// then reserves a single commute block before the earliest departure.
func applyClasses(g *dayGrid, courses []models.Course, settings models.UserSettings) error {
	day := int(g.date.Weekday())
	earliestStart := -1
	for _, course := range courses {
		for _, meeting := range course.Meetings {
			if meeting.DayOfWeek != day {
				continue
			}
			start, err := parseClock(meeting.StartTime)
			if err != nil {
				return fmt.Errorf("course %s meeting: %w", course.ID, err)
			}
			end, err := parseClock(meeting.EndTime)
			if err != nil {
				return fmt.Errorf("course %s meeting: %w", course.ID, err)
			}
			label := course.Name
			if label == "" {
				label = course.Code
			}
			g.claimRange(start-settings.BuildingWalkBufferMinutes, end+settings.BuildingWalkBufferMinutes, slotBlock{
				Type:       models.BlockClass,
				Label:      label,
				CourseID:   course.ID,
				Confidence: confidenceClass,
				Building:   meeting.Building,
			})
			if earliestStart < 0 || start < earliestStart {
				earliestStart = start
			}
		}
	}
	if earliestStart >= 0 && settings.CommuteBufferMinutes > 0 {
		g.claimRange(earliestStart-settings.CommuteBufferMinutes, earliestStart, slotBlock{
			Type:       models.BlockTravel,
			Label:      "Commute",
			Confidence: confidenceTravel,
		})
	}
	return nil
}

// applyMeals places each meal window in descending importance order so
// higher-importance meals win contested slots. A meal that finds no free
// contiguous run inside its window is reported, not placed.
func applyMeals(g *dayGrid, prefs []models.MealPreference) ([]MissedMeal, error) {
	ordered := make([]models.MealPreference, len(prefs))
	copy(ordered, prefs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Importance > ordered[j].Importance
	})

	var missed []MissedMeal
	for _, pref := range ordered {
		earliest, err := parseClock(pref.EarliestTime)
		if err != nil {
			return nil, fmt.Errorf("meal %s: %w", pref.MealType, err)
		}
		latest, err := parseClock(pref.LatestTime)
		if err != nil {
			return nil, fmt.Errorf("meal %s: %w", pref.MealType, err)
		}
		count := slotCount(pref.TypicalDurationMin)
		if count == 0 {
			continue
		}
		// The run must sit fully inside the window.
		fromIdx := (earliest + SlotMinutes - 1) / SlotMinutes
		limitIdx := latest / SlotMinutes
		idx := g.firstFreeRun(count, fromIdx, limitIdx)
		if idx < 0 {
			missed = append(missed, MissedMeal{
				Date:     g.date,
				MealType: pref.MealType,
				Reason:   "No free slot",
			})
			continue
		}
		g.claimSlots(idx, count, mealBlock(pref.MealType))
	}
	return missed, nil
}

// Snacks get their own block type and a bare label; proper meals read as a
// flexible "window" rather than a fixed appointment.
func mealBlock(t models.MealType) slotBlock {
	block := slotBlock{Type: models.BlockMeal, Confidence: confidenceMeal, MealType: t}
	switch t {
	case models.MealBreakfast:
		block.Label = "Breakfast window"
	case models.MealLunch:
		block.Label = "Lunch window"
	case models.MealDinner:
		block.Label = "Dinner window"
	case models.MealSnack:
		block.Type = models.BlockSnack
		block.Label = "Snack"
	default:
		block.Label = string(t) + " window"
	}
	return block
}
