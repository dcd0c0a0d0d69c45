package models

import "time"

type Task struct {
	ID          string
	Title       string
	Status      bool
	Notes       string
	LastUpdated time.Time
	// Subtasks are owned by the task and ordered by Order ascending,
	// insertion-stable on ties.
	Subtasks []*Subtask
}

type Subtask struct {
	ID          string
	TaskID      string
	Title       string
	Status      bool
	Order       int
	LastUpdated time.Time
}

// Toggle flips the task status and cascades it down to every subtask.
// It returns the subtasks whose status actually changed, so callers can
// skip redundant writes for subtasks already in the target state.
func (t *Task) Toggle(now time.Time) []*Subtask {
	t.Status = !t.Status
	t.LastUpdated = now

	var changed []*Subtask
	for _, st := range t.Subtasks {
		if st.Status == t.Status {
			continue
		}
		st.Status = t.Status
		st.LastUpdated = now
		changed = append(changed, st)
	}
	return changed
}

// EvaluateCascade applies the cascade-up rule after a subtask flip: all
// subtasks done forces the task done, all subtasks not done forces it
// not done. It reports whether the task status changed. A task with no
// subtasks is never cascaded.
func (t *Task) EvaluateCascade(now time.Time) bool {
	if len(t.Subtasks) == 0 {
		return false
	}

	allDone := true
	allNotDone := true
	for _, st := range t.Subtasks {
		if st.Status {
			allNotDone = false
		} else {
			allDone = false
		}
	}

	switch {
	case allDone && !t.Status:
		t.Status = true
	case allNotDone && t.Status:
		t.Status = false
	default:
		return false
	}

	t.LastUpdated = now
	return true
}

// FindSubtask returns the owned subtask with the given id, or nil.
func (t *Task) FindSubtask(subtaskID string) *Subtask {
	for _, st := range t.Subtasks {
		if st.ID == subtaskID {
			return st
		}
	}
	return nil
}

// NextSubtaskOrder returns the order value for a newly appended subtask.
func (t *Task) NextSubtaskOrder() int {
	maxOrder := 0
	for _, st := range t.Subtasks {
		if st.Order > maxOrder {
			maxOrder = st.Order
		}
	}
	return maxOrder + 1
}
