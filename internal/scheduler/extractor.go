package scheduler

import (
	"time"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// PlannedBlock is the extractor's output: a merged, absolute-time span ready
// to persist. Free slots produce nothing.
type PlannedBlock struct {
	Type       models.BlockType
	Label      string
	TaskID     string
	CourseID   string
	Confidence float64
	Building   string
	MealType   models.MealType
	StartAt    time.Time
	EndAt      time.Time
}

// extractBlocks run-length encodes a grid back into time ranges, merging
// consecutive slots whose slotBlock keys match.
func extractBlocks(g *dayGrid) []PlannedBlock {
	var blocks []PlannedBlock
	runStart := -1
	runKey := ""
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		slot := g.slots[runStart].block
		blocks = append(blocks, PlannedBlock{
			Type:       slot.Type,
			Label:      slot.Label,
			TaskID:     slot.TaskID,
			CourseID:   slot.CourseID,
			Confidence: slot.Confidence,
			Building:   slot.Building,
			MealType:   slot.MealType,
			StartAt:    g.date.Add(time.Duration(runStart*SlotMinutes) * time.Minute),
			EndAt:      g.date.Add(time.Duration(end*SlotMinutes) * time.Minute),
		})
		runStart = -1
		runKey = ""
	}
	for i := 0; i < SlotsPerDay; i++ {
		if g.slots[i].free {
			flush(i)
			continue
		}
		key := g.slots[i].block.key()
		if runStart >= 0 && key != runKey {
			flush(i)
		}
		if runStart < 0 {
			runStart = i
			runKey = key
		}
	}
	flush(SlotsPerDay)
	return blocks
}
