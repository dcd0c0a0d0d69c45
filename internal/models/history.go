package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	ChangeTypeStatus = "status"
	ChangeTypeNote   = "note"
)

// TaskHistory is one append-only audit record of a status or note
// change. Entries are identified by a random UUID, so every change
// keeps its own record (full audit trail, no per-day dedup).
type TaskHistory struct {
	ID         string
	TaskID     string
	SubtaskID  string
	ChangeType string
	NewValue   string
	Timestamp  time.Time
	UserID     string
}

// NewStatusChange records a task-level status change when subtaskID is
// empty, a subtask-level one otherwise.
func NewStatusChange(taskID, subtaskID string, newStatus bool, userID string, at time.Time) *TaskHistory {
	return &TaskHistory{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		SubtaskID:  subtaskID,
		ChangeType: ChangeTypeStatus,
		NewValue:   strconv.FormatBool(newStatus),
		Timestamp:  at,
		UserID:     userID,
	}
}

func NewNoteChange(taskID, note, userID string, at time.Time) *TaskHistory {
	return &TaskHistory{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		ChangeType: ChangeTypeNote,
		NewValue:   note,
		Timestamp:  at,
		UserID:     userID,
	}
}
