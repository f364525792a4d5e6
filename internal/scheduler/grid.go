package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/novaticstar/hoosgottime/internal/models"
)

const (
	// SlotMinutes is the planning quantum. Every placement is rounded up to
	// whole slots.
	SlotMinutes = 30
	// SlotsPerDay covers the full 00:00-24:00 day.
	SlotsPerDay = 24 * 60 / SlotMinutes
)

// slotBlock is the transient payload of a claimed slot. Two adjacent slots
// with equal key() belong to the same logical block and merge on extraction.
type slotBlock struct {
	Type       models.BlockType
	Label      string
	TaskID     string
	CourseID   string
	Confidence float64
	Building   string
	MealType   models.MealType
	// Chunk distinguishes study chunks of the same task so a capped session
	// never merges with its neighbour into one oversized block.
	Chunk int
}

func (b slotBlock) key() string {
	return string(b.Type) + "\x00" + b.Label + "\x00" + b.TaskID + "\x00" + b.CourseID + "\x00" + strconv.Itoa(b.Chunk)
}

// timeSlot is one half-hour cell of a dayGrid, addressed by minute offset
// from midnight.
type timeSlot struct {
	free  bool
	block slotBlock
}

// dayGrid models one calendar day as a fixed run of half-hour slots. It is
// built fresh per run, mutated in place by the blockers and the placer, and
// discarded after extraction.
type dayGrid struct {
	date         time.Time // midnight in the planning timezone
	slots        [SlotsPerDay]timeSlot
	studyMinutes int
}

func newDayGrid(date time.Time) *dayGrid {
	g := &dayGrid{date: date}
	for i := range g.slots {
		g.slots[i].free = true
	}
	return g
}

// newDayGrids builds grids for each date in [from, from+days-1].
func newDayGrids(from time.Time, days int) []*dayGrid {
	grids := make([]*dayGrid, 0, days)
	for i := 0; i < days; i++ {
		grids = append(grids, newDayGrid(from.AddDate(0, 0, i)))
	}
	return grids
}

// claimRange marks every slot overlapping [startMin, endMin) with block.
// Slots already claimed by an earlier blocker are left untouched, so the
// first claimant wins. Out-of-day minutes are clipped.
func (g *dayGrid) claimRange(startMin, endMin int, block slotBlock) {
	if startMin < 0 {
		startMin = 0
	}
	if endMin > 24*60 {
		endMin = 24 * 60
	}
	if endMin <= startMin {
		return
	}
	first := startMin / SlotMinutes
	last := (endMin + SlotMinutes - 1) / SlotMinutes
	for i := first; i < last && i < SlotsPerDay; i++ {
		if !g.slots[i].free {
			continue
		}
		g.slots[i].free = false
		g.slots[i].block = block
	}
}

// firstFreeRun returns the index of the first run of count consecutive free
// slots within slot indexes [fromIdx, limitIdx), or -1 when none exists.
func (g *dayGrid) firstFreeRun(count, fromIdx, limitIdx int) int {
	if fromIdx < 0 {
		fromIdx = 0
	}
	if limitIdx > SlotsPerDay {
		limitIdx = SlotsPerDay
	}
	run := 0
	for i := fromIdx; i < limitIdx; i++ {
		if g.slots[i].free {
			run++
			if run == count {
				return i - count + 1
			}
		} else {
			run = 0
		}
	}
	return -1
}

// claimSlots marks exactly [idx, idx+count) with block. Callers must have
// verified the run is free.
func (g *dayGrid) claimSlots(idx, count int, block slotBlock) {
	for i := idx; i < idx+count && i < SlotsPerDay; i++ {
		g.slots[i].free = false
		g.slots[i].block = block
	}
}

// parseClock converts an "HH:MM" string to minutes after midnight. "24:00"
// is accepted as end-of-day.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	total := hours*60 + mins
	if hours < 0 || mins < 0 || mins > 59 || total > 24*60 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return total, nil
}

func slotCount(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + SlotMinutes - 1) / SlotMinutes
}
