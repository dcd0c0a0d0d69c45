package broadcast

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAzaizeh/ChainFlow/internal/models"
)

type stubRenderer struct{}

func (stubRenderer) TaskCheckbox(task *models.Task) (string, error) {
	return fmt.Sprintf("task:%s:%t", task.ID, task.Status), nil
}

func (stubRenderer) SubtaskCheckbox(subtask *models.Subtask) (string, error) {
	return fmt.Sprintf("subtask:%s:%t", subtask.ID, subtask.Status), nil
}

func (stubRenderer) TaskNoteForm(task *models.Task) (string, error) {
	return fmt.Sprintf("note:%s:%s", task.ID, task.Notes), nil
}

func newTestBroadcaster(buffer int) *Broadcaster {
	return New(zerolog.Nop(), stubRenderer{}, buffer)
}

func drain(sub *Subscriber) []Event {
	var events []Event
	for {
		select {
		case ev := <-sub.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func taskWithSubtask() *models.Task {
	return &models.Task{
		ID:     "t1",
		Title:  "close shift",
		Status: true,
		Subtasks: []*models.Subtask{
			{ID: "s1", TaskID: "t1", Title: "count register", Status: true, Order: 1},
		},
	}
}

func TestFanOutDeliversSameEventsInOrder(t *testing.T) {
	b := newTestBroadcaster(8)
	subs := []*Subscriber{b.Subscribe(), b.Subscribe(), b.Subscribe()}

	b.BroadcastTaskUpdate(taskWithSubtask(), UpdateSubtaskStatus, "s1")

	var first []Event
	for i, sub := range subs {
		events := drain(sub)
		require.Len(t, events, 2)
		assert.Equal(t, "SubtaskStatusUpdate_s1", events[0].Name)
		assert.Equal(t, "TaskStatusUpdate_t1", events[1].Name)
		if i == 0 {
			first = events
		} else {
			assert.Equal(t, first, events)
		}
	}
}

func TestUnsubscribedSessionReceivesNothing(t *testing.T) {
	b := newTestBroadcaster(8)
	gone := b.Subscribe()
	stays := b.Subscribe()
	b.Unsubscribe(gone)

	b.BroadcastTaskUpdate(taskWithSubtask(), UpdateTaskStatus, "")

	assert.Len(t, drain(stays), 1)
	_, open := <-gone.Events()
	assert.False(t, open)
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := newTestBroadcaster(8)
	sub := b.Subscribe()

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)

	assert.Equal(t, 0, b.SubscriberCount())
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := newTestBroadcaster(2)
	sub := b.Subscribe()

	for i := 0; i < 4; i++ {
		task := taskWithSubtask()
		task.Notes = fmt.Sprintf("note %d", i)
		b.BroadcastTaskUpdate(task, UpdateTaskNote, "")
	}

	events := drain(sub)
	require.Len(t, events, 2)
	assert.Equal(t, "note:t1:note 2", events[0].Data)
	assert.Equal(t, "note:t1:note 3", events[1].Data)
}

func TestTaskStatusEvent(t *testing.T) {
	b := newTestBroadcaster(8)
	sub := b.Subscribe()

	task := taskWithSubtask()
	b.BroadcastTaskUpdate(task, UpdateTaskStatus, "")

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, "TaskStatusUpdate_t1", events[0].Name)
	assert.Equal(t, "task:t1:true", events[0].Data)
	assert.Contains(t, events[0].ID, "t1_")
}

func TestNoteEvent(t *testing.T) {
	b := newTestBroadcaster(8)
	sub := b.Subscribe()

	task := taskWithSubtask()
	task.Notes = "closed early"
	b.BroadcastTaskUpdate(task, UpdateTaskNote, "")

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, "TaskNoteUpdate_t1", events[0].Name)
	assert.Equal(t, "note:t1:closed early", events[0].Data)
}

func TestSubscribeToTaskSurvivesBroadcastToAll(t *testing.T) {
	b := newTestBroadcaster(8)
	scoped := b.Subscribe()
	b.SubscribeToTask("t2", scoped)

	// Scoping is a secondary index only: the fan-out still reaches
	// every connection.
	b.BroadcastTaskUpdate(taskWithSubtask(), UpdateTaskStatus, "")

	assert.Len(t, drain(scoped), 1)
}

func TestCloseDropsAllSubscribers(t *testing.T) {
	b := newTestBroadcaster(8)
	sub := b.Subscribe()

	b.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())

	late := b.Subscribe()
	_, open = <-late.Events()
	assert.False(t, open)
}
