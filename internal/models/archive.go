package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskArchive is an immutable snapshot of one task and its subtasks,
// written once per archive run. RunID groups the snapshots of a single
// run; ArchivedAt is shared by the whole run.
type TaskArchive struct {
	ID         string
	RunID      string
	TaskID     string
	Title      string
	Status     bool
	Notes      string
	Subtasks   []ArchivedSubtask
	ArchivedAt time.Time
}

type ArchivedSubtask struct {
	ID     string
	Title  string
	Status bool
	Order  int
}

// NewTaskArchive snapshots the task as it is now. The caller supplies
// the run id and timestamp so every snapshot of a run shares them.
func NewTaskArchive(task *Task, runID string, at time.Time) *TaskArchive {
	archive := &TaskArchive{
		ID:         uuid.NewString(),
		RunID:      runID,
		TaskID:     task.ID,
		Title:      task.Title,
		Status:     task.Status,
		Notes:      task.Notes,
		ArchivedAt: at,
	}
	for _, st := range task.Subtasks {
		archive.Subtasks = append(archive.Subtasks, ArchivedSubtask{
			ID:     st.ID,
			Title:  st.Title,
			Status: st.Status,
			Order:  st.Order,
		})
	}
	return archive
}
