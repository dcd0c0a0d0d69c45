package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
)

func newRepo(t *testing.T) (*TaskRepository, docstore.Store) {
	t.Helper()
	store := docstore.NewMemoryStore()
	return NewTaskRepository(zerolog.Nop(), store), store
}

func TestTaskRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTask(ctx, "restock", time.Now())
	require.NoError(t, err)

	loaded, err := repo.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "restock", loaded.Title)
	assert.False(t, loaded.Status)
	assert.Empty(t, loaded.Subtasks)
}

func TestGetTaskNotFound(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestSubtasksComeBackOrdered(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, "ordered", time.Now())
	require.NoError(t, err)
	first, err := repo.AddSubtask(ctx, task, "first", time.Now())
	require.NoError(t, err)
	second, err := repo.AddSubtask(ctx, task, "second", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 2, second.Order)

	loaded, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Subtasks, 2)
	assert.Equal(t, "first", loaded.Subtasks[0].Title)
	assert.Equal(t, "second", loaded.Subtasks[1].Title)
}

func TestSaveTaskWritesOnlyChangedSubtasks(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	task, err := repo.CreateTask(ctx, "partial save", time.Now())
	require.NoError(t, err)
	changed, err := repo.AddSubtask(ctx, task, "flipped", time.Now())
	require.NoError(t, err)
	untouched, err := repo.AddSubtask(ctx, task, "left alone", time.Now())
	require.NoError(t, err)

	stale, err := store.Get(ctx, "subtasks", untouched.ID)
	require.NoError(t, err)

	task.Status = true
	changed.Status = true
	err = repo.SaveTask(ctx, task, []*models.Subtask{changed})
	require.NoError(t, err)

	loaded, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Status)
	assert.True(t, loaded.Subtasks[0].Status)
	assert.False(t, loaded.Subtasks[1].Status)

	fresh, err := store.Get(ctx, "subtasks", untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, stale["last_updated"], fresh["last_updated"])
}

func TestHistoryNewestFirst(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	older := models.NewStatusChange("t1", "", true, "u1", base)
	newer := models.NewNoteChange("t1", "later", "u1", base.Add(time.Minute))
	other := models.NewStatusChange("t2", "", true, "u1", base.Add(2*time.Minute))

	require.NoError(t, repo.AddHistory(ctx, older))
	require.NoError(t, repo.AddHistory(ctx, newer))
	require.NoError(t, repo.AddHistory(ctx, other))

	entries, err := repo.ListHistory(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, entries, 2, "filtered to one task")
	assert.Equal(t, newer.ID, entries[0].ID)
	assert.Equal(t, older.ID, entries[1].ID)
	assert.Equal(t, "true", entries[1].NewValue)
}

func TestHistoryTiesBreakOnID(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	// A cascading subtask toggle writes its entries with one shared
	// timestamp; their order must not depend on the store backend.
	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	entries := []*models.TaskHistory{
		models.NewStatusChange("t1", "s1", true, "u1", at),
		models.NewStatusChange("t1", "", true, "u1", at),
		models.NewStatusChange("t1", "s2", true, "u1", at),
	}
	for _, entry := range entries {
		require.NoError(t, repo.AddHistory(ctx, entry))
	}

	listed, err := repo.ListHistory(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i := 1; i < len(listed); i++ {
		assert.Greater(t, listed[i-1].ID, listed[i].ID)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	task := &models.Task{
		ID:     "t1",
		Title:  "snapshot me",
		Status: true,
		Notes:  "pending delivery",
		Subtasks: []*models.Subtask{
			{ID: "s1", TaskID: "t1", Title: "step", Status: true, Order: 1},
		},
	}

	at := time.Now()
	require.NoError(t, repo.CreateArchive(ctx, models.NewTaskArchive(task, "run-1", at)))

	snapshots, err := repo.ListArchives(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "t1", snapshots[0]["task_id"])
	assert.Equal(t, "pending delivery", snapshots[0]["notes"])
}

func TestMalformedDocumentIsRejected(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	// Task document missing its required title.
	_, err := store.Create(ctx, "tasks", "broken", docstore.Document{
		"status":       false,
		"last_updated": time.Now().UTC().Format(timeLayout),
	})
	require.NoError(t, err)

	_, err = repo.GetTask(ctx, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}
