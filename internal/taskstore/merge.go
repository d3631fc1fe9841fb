package taskstore

import (
	"time"

	"github.com/google/uuid"

	"planner/internal/api"
	"planner/internal/models"
)

// tempIDPrefix marks placeholder identities awaiting server confirmation.
const tempIDPrefix = "tmp-"

func newTempID() string {
	return tempIDPrefix + uuid.NewString()
}

func isTempID(id string) bool {
	return len(id) > len(tempIDPrefix) && id[:len(tempIDPrefix)] == tempIDPrefix
}

// taskFromPayload builds the optimistic placeholder entry, applying the same
// defaults the server would.
func taskFromPayload(tempID string, p api.TaskPayload) models.Task {
	t := models.Task{
		ID:        tempID,
		Title:     p.Title,
		DayLabel:  p.DayLabel,
		Date:      p.Date,
		Time:      p.Time,
		Color:     p.Color,
		TextColor: p.TextColor,
		Priority:  p.Priority,
		Notes:     p.Notes,
		Links:     p.Links,
		Subtasks:  p.Subtasks,
		Completed: p.Completed,
		GoalTime:  p.GoalTime,
		TimeSpent: p.TimeSpent,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if t.DayLabel == "" {
		t.DayLabel = "Today"
	}
	if t.Color == "" {
		t.Color = "#ffffff"
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		t.Priority = models.PriorityP4
	}
	if t.Links == nil {
		t.Links = []models.Link{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}
	return t
}

// applyPatch merges a partial payload into a task, the optimistic mirror of
// the server's merge.
func applyPatch(t models.Task, p api.TaskPatch) models.Task {
	if p.Title != nil && *p.Title != "" {
		t.Title = *p.Title
	}
	if p.DayLabel != nil {
		t.DayLabel = *p.DayLabel
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Time != nil {
		t.Time = *p.Time
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.TextColor != nil {
		t.TextColor = *p.TextColor
	}
	if p.Priority != nil {
		if _, ok := models.ValidPriorities[*p.Priority]; ok {
			t.Priority = *p.Priority
		}
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Links != nil {
		t.Links = *p.Links
	}
	if p.Subtasks != nil {
		t.Subtasks = *p.Subtasks
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.GoalTime != nil {
		t.GoalTime = *p.GoalTime
	}
	if p.TimeSpent != nil {
		t.TimeSpent = *p.TimeSpent
	}
	t.UpdatedAt = time.Now().UTC()
	return t
}

// foldPatch folds a partial update into a queued create payload so the
// eventual replay carries the merged state.
func foldPatch(payload api.TaskPayload, p api.TaskPatch) api.TaskPayload {
	if p.Title != nil && *p.Title != "" {
		payload.Title = *p.Title
	}
	if p.DayLabel != nil {
		payload.DayLabel = *p.DayLabel
	}
	if p.Date != nil {
		payload.Date = *p.Date
	}
	if p.Time != nil {
		payload.Time = *p.Time
	}
	if p.Color != nil {
		payload.Color = *p.Color
	}
	if p.TextColor != nil {
		payload.TextColor = *p.TextColor
	}
	if p.Priority != nil {
		payload.Priority = *p.Priority
	}
	if p.Notes != nil {
		payload.Notes = *p.Notes
	}
	if p.Links != nil {
		payload.Links = *p.Links
	}
	if p.Subtasks != nil {
		payload.Subtasks = *p.Subtasks
	}
	if p.Completed != nil {
		payload.Completed = *p.Completed
	}
	if p.GoalTime != nil {
		payload.GoalTime = *p.GoalTime
	}
	if p.TimeSpent != nil {
		payload.TimeSpent = *p.TimeSpent
	}
	return payload
}
