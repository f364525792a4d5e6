package scheduler

import (
	"sort"

	"github.com/novaticstar/hoosgottime/internal/models"
)

// studyChunk is one bounded-size piece of a task's required study time.
type studyChunk struct {
	taskID   string
	label    string
	courseID string
	minutes  int
	dueAt    int64
	priority int
	order    int
}

// buildChunks splits every schedulable task's estimated minutes into chunks
// no larger than the per-session cap and sorts them earliest-deadline-first,
// ties broken by type priority (exams before everything else).
func buildChunks(tasks []models.Task, coursesByID map[string]models.Course, multipliers multiplierTable, maxBlockMinutes int, required map[string]int) []studyChunk {
	sessionCap := maxBlockMinutes
	if sessionCap < SlotMinutes {
		sessionCap = SlotMinutes
	}
	var chunks []studyChunk
	order := 0
	for _, task := range tasks {
		if !task.Status.Schedulable() {
			continue
		}
		var course *models.Course
		if task.CourseID != nil {
			if c, ok := coursesByID[*task.CourseID]; ok {
				course = &c
			}
		}
		total := estimateMinutes(task, course, multipliers)
		if total <= 0 {
			continue
		}
		required[task.ID] = total
		courseID := ""
		if task.CourseID != nil {
			courseID = *task.CourseID
		}
		for remaining := total; remaining > 0; {
			size := remaining
			if size > sessionCap {
				size = sessionCap
			}
			chunks = append(chunks, studyChunk{
				taskID:   task.ID,
				label:    task.Title,
				courseID: courseID,
				minutes:  size,
				dueAt:    task.DueAt.Unix(),
				priority: task.Type.Priority(),
				order:    order,
			})
			order++
			remaining -= size
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].dueAt != chunks[j].dueAt {
			return chunks[i].dueAt < chunks[j].dueAt
		}
		return chunks[i].priority < chunks[j].priority
	})
	return chunks
}

// placeChunks assigns chunks to grids first-fit: earliest eligible day, then
// earliest contiguous free run on that day. A chunk that fits nowhere is
// dropped and counts toward its task's shortfall.
func placeChunks(grids []*dayGrid, chunks []studyChunk, settings models.UserSettings, now int64, nowMinute int, scheduled map[string]int) {
	for _, chunk := range chunks {
		count := slotCount(chunk.minutes)
		for _, g := range grids {
			if g.date.Unix() > chunk.dueAt {
				// strictly after the deadline date
				break
			}
			// A non-positive daily cap admits no study time at all.
			if g.studyMinutes+chunk.minutes > settings.MaxStudyMinutesPerDay {
				continue
			}
			fromIdx := 0
			if g.date.Unix() <= now && now < g.date.AddDate(0, 0, 1).Unix() {
				fromIdx = nowMinute / SlotMinutes
			}
			idx := g.firstFreeRun(count, fromIdx, SlotsPerDay)
			if idx < 0 {
				continue
			}
			g.claimSlots(idx, count, slotBlock{
				Type:       models.BlockStudy,
				Label:      chunk.label,
				TaskID:     chunk.taskID,
				CourseID:   chunk.courseID,
				Confidence: confidenceStudy,
				Chunk:      chunk.order + 1,
			})
			g.studyMinutes += chunk.minutes
			scheduled[chunk.taskID] += chunk.minutes
			break
		}
	}
}

// atRiskSlackMinutes tolerates up to one slot of shortfall before a task is
// flagged, so rounding noise does not trip the alarm.
const atRiskSlackMinutes = SlotMinutes

func atRiskTasks(required, scheduled map[string]int) []string {
	var ids []string
	for taskID, need := range required {
		if scheduled[taskID]+atRiskSlackMinutes < need {
			ids = append(ids, taskID)
		}
	}
	sort.Strings(ids)
	return ids
}
