package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAzaizeh/ChainFlow/internal/broadcast"
	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
)

type notification struct {
	taskID     string
	updateKind string
	subtaskID  string
}

type recordingNotifier struct {
	notifications []notification
}

func (n *recordingNotifier) BroadcastTaskUpdate(task *models.Task, updateKind, subtaskID string) {
	n.notifications = append(n.notifications, notification{
		taskID:     task.ID,
		updateKind: updateKind,
		subtaskID:  subtaskID,
	})
}

type fixture struct {
	service  TaskService
	repo     *repository.TaskRepository
	notifier *recordingNotifier
}

func newFixture(t *testing.T, auditCascade bool) *fixture {
	t.Helper()
	repo := repository.NewTaskRepository(zerolog.Nop(), docstore.NewMemoryStore())
	notifier := &recordingNotifier{}
	return &fixture{
		service:  NewTaskService(zerolog.Nop(), repo, notifier, auditCascade),
		repo:     repo,
		notifier: notifier,
	}
}

func (f *fixture) seedTask(t *testing.T, title string, subtaskTitles ...string) *models.Task {
	t.Helper()
	ctx := context.Background()

	task, err := f.service.CreateTask(ctx, title)
	require.NoError(t, err)
	for _, st := range subtaskTitles {
		_, err = f.service.AddSubtask(ctx, task.ID, st)
		require.NoError(t, err)
	}

	task, err = f.service.GetTask(ctx, task.ID)
	require.NoError(t, err)
	return task
}

func statusEntries(entries []*models.TaskHistory) (taskLevel, subtaskLevel int) {
	for _, e := range entries {
		if e.ChangeType != models.ChangeTypeStatus {
			continue
		}
		if e.SubtaskID == "" {
			taskLevel++
		} else {
			subtaskLevel++
		}
	}
	return taskLevel, subtaskLevel
}

func TestToggleSubtaskCompletesTaskWhenAllDone(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "open kitchen", "check fridge", "stock shelves")

	// First subtask done: parent must stay not-done.
	result, err := f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID, "u1")
	require.NoError(t, err)
	assert.True(t, result.Subtask.Status)
	assert.False(t, result.TaskChanged)
	assert.False(t, result.Task.Status)

	entries, err := f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Second subtask done: cascade-up completes the parent and adds a
	// task-level entry alongside the subtask-level one.
	result, err = f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[1].ID, "u1")
	require.NoError(t, err)
	assert.True(t, result.TaskChanged)
	assert.True(t, result.Task.Status)

	entries, err = f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	taskLevel, subtaskLevel := statusEntries(entries)
	assert.Equal(t, 1, taskLevel)
	assert.Equal(t, 2, subtaskLevel)

	persisted, err := f.service.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, persisted.Status)
}

func TestToggleSubtaskUndoesTaskWhenAllNotDone(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "close bar", "wipe counters")

	_, err := f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID, "u1")
	require.NoError(t, err)

	result, err := f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID, "u1")
	require.NoError(t, err)
	assert.False(t, result.Subtask.Status)
	assert.True(t, result.TaskChanged)
	assert.False(t, result.Task.Status)
}

func TestToggleTaskCascadesDownWithSingleEntry(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "inventory count", "dry goods", "freezer")

	// Mark everything done, then toggle the task off again.
	_, err := f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)

	result, err := f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)
	assert.False(t, result.Task.Status)
	require.Len(t, result.ChangedSubtasks, 2)

	persisted, err := f.service.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, persisted.Status)
	for _, st := range persisted.Subtasks {
		assert.False(t, st.Status)
	}

	// Cascade-down is implicit: one task-level entry per toggle, no
	// per-subtask entries.
	entries, err := f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	taskLevel, subtaskLevel := statusEntries(entries)
	assert.Equal(t, 2, taskLevel)
	assert.Equal(t, 0, subtaskLevel)
}

func TestToggleTaskAuditsCascadeWhenEnabled(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	task := f.seedTask(t, "deep clean", "ovens", "floors")

	_, err := f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)

	entries, err := f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	taskLevel, subtaskLevel := statusEntries(entries)
	assert.Equal(t, 1, taskLevel)
	assert.Equal(t, 2, subtaskLevel)
}

func TestToggleTaskIsSelfInverse(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "receiving", "scan boxes", "shelve")

	before, err := f.service.GetTask(ctx, task.ID)
	require.NoError(t, err)

	_, err = f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)
	_, err = f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)

	after, err := f.service.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	for i, st := range after.Subtasks {
		assert.Equal(t, before.Subtasks[i].Status, st.Status)
	}
}

func TestToggleTaskWithoutSubtasks(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "sign off")

	result, err := f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)
	assert.True(t, result.Task.Status)
	assert.Empty(t, result.ChangedSubtasks)
}

func TestUpdateNoteLeavesStatusAlone(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "front of house", "set tables")

	_, err := f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID, "u1")
	require.NoError(t, err)

	updated, err := f.service.UpdateNote(ctx, task.ID, "closed early", "u1")
	require.NoError(t, err)
	assert.Equal(t, "closed early", updated.Notes)
	assert.True(t, updated.Status, "note update must not flip status")

	persisted, err := f.service.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed early", persisted.Notes)
	assert.True(t, persisted.Status)
	assert.True(t, persisted.Subtasks[0].Status)

	entries, err := f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChangeTypeNote, entries[0].ChangeType)
	assert.Equal(t, "closed early", entries[0].NewValue)
}

func TestEveryOperationWritesExactlyOneDirectEntry(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "audit trail", "a", "b", "c")

	_, err := f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID, "u1")
	require.NoError(t, err)
	_, err = f.service.UpdateNote(ctx, task.ID, "note", "u2")
	require.NoError(t, err)
	_, err = f.service.ToggleTask(ctx, task.ID, "u3")
	require.NoError(t, err)

	// Three operations, no cascade fired: exactly three entries.
	entries, err := f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	users := map[string]bool{}
	for _, e := range entries {
		users[e.UserID] = true
	}
	assert.Len(t, users, 3, "each entry attributed to its caller")
}

func TestHistoryIsNewestFirst(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "ordering")

	_, err := f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)
	_, err = f.service.UpdateNote(ctx, task.ID, "latest", "u1")
	require.NoError(t, err)

	entries, err := f.service.ListHistory(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ChangeTypeNote, entries[0].ChangeType)
	assert.Equal(t, models.ChangeTypeStatus, entries[1].ChangeType)
}

func TestBroadcastsAfterEachChange(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "live sync", "s1")

	_, err := f.service.ToggleTask(ctx, task.ID, "u1")
	require.NoError(t, err)
	_, err = f.service.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID, "u1")
	require.NoError(t, err)
	_, err = f.service.UpdateNote(ctx, task.ID, "n", "u1")
	require.NoError(t, err)

	require.Len(t, f.notifier.notifications, 3)
	assert.Equal(t, broadcast.UpdateTaskStatus, f.notifier.notifications[0].updateKind)
	assert.Equal(t, broadcast.UpdateSubtaskStatus, f.notifier.notifications[1].updateKind)
	assert.Equal(t, task.Subtasks[0].ID, f.notifier.notifications[1].subtaskID)
	assert.Equal(t, broadcast.UpdateTaskNote, f.notifier.notifications[2].updateKind)
}

func TestMissingTaskAndSubtask(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	task := f.seedTask(t, "lonely", "s1")

	_, err := f.service.ToggleTask(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.service.ToggleSubtask(ctx, "missing", task.Subtasks[0].ID, "u1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.service.ToggleSubtask(ctx, task.ID, "missing", "u1")
	assert.ErrorIs(t, err, ErrSubtaskNotFound)

	_, err = f.service.UpdateNote(ctx, "missing", "n", "u1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.Empty(t, f.notifier.notifications, "failed operations must not broadcast")
}
