package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
)

var errStoreDown = errors.New("store down")

// failingStore wraps the memory store and fails selected writes, to
// exercise the continue-past-failures path of an archive/reset run.
type failingStore struct {
	docstore.Store
	failCreateTaskID string
	failUpdateDocID  string
}

func (s *failingStore) Create(ctx context.Context, collection, id string, data docstore.Document) (docstore.Document, error) {
	if collection == "task_archive" && data["task_id"] == s.failCreateTaskID {
		return nil, errStoreDown
	}
	return s.Store.Create(ctx, collection, id, data)
}

func (s *failingStore) Update(ctx context.Context, collection, id string, data docstore.Document) (docstore.Document, error) {
	if collection == "tasks" && id == s.failUpdateDocID {
		return nil, errStoreDown
	}
	return s.Store.Update(ctx, collection, id, data)
}

type archiveFixture struct {
	store   *failingStore
	repo    *repository.TaskRepository
	tasks   TaskService
	archive ArchiveService
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()
	store := &failingStore{Store: docstore.NewMemoryStore()}
	repo := repository.NewTaskRepository(zerolog.Nop(), store)
	return &archiveFixture{
		store:   store,
		repo:    repo,
		tasks:   NewTaskService(zerolog.Nop(), repo, &recordingNotifier{}, false),
		archive: NewArchiveService(zerolog.Nop(), repo),
	}
}

func TestArchiveSnapshotsEveryTask(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	t1 := f.seedDoneTask(t, "morning prep", "a", "b")
	t2 := f.seedDoneTask(t, "evening close")

	report, err := f.archive.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	snapshots, err := f.repo.ListArchives(ctx, report.RunID)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	archivedTasks := map[string]bool{}
	var sharedAt string
	for _, doc := range snapshots {
		archivedTasks[doc["task_id"].(string)] = true
		at := doc["archived_at"].(string)
		if sharedAt == "" {
			sharedAt = at
		}
		assert.Equal(t, sharedAt, at, "one run shares one timestamp")
	}
	assert.True(t, archivedTasks[t1])
	assert.True(t, archivedTasks[t2])
}

func TestArchiveContinuesPastFailure(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	f.seedDoneTask(t, "task one", "a")
	broken := f.seedDoneTask(t, "task two")
	f.seedDoneTask(t, "task three")
	f.store.failCreateTaskID = broken

	report, err := f.archive.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Outcomes, 3)

	for _, outcome := range report.Outcomes {
		if outcome.TaskID == broken {
			assert.ErrorIs(t, outcome.Err, errStoreDown)
		} else {
			assert.NoError(t, outcome.Err)
		}
	}

	snapshots, err := f.repo.ListArchives(ctx, report.RunID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2, "failed task is not archived")
}

func TestResetReturnsTasksToBaseline(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	id := f.seedDoneTask(t, "weekly cycle", "a", "b")
	_, err := f.tasks.UpdateNote(ctx, id, "carry over", "u1")
	require.NoError(t, err)

	report, err := f.archive.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	task, err := f.tasks.GetTask(ctx, id)
	require.NoError(t, err)
	assert.False(t, task.Status)
	assert.Empty(t, task.Notes)
	for _, st := range task.Subtasks {
		assert.False(t, st.Status)
	}
}

func TestResetContinuesPastFailure(t *testing.T) {
	f := newArchiveFixture(t)
	ctx := context.Background()

	ok1 := f.seedDoneTask(t, "fine one")
	broken := f.seedDoneTask(t, "stuck")
	ok2 := f.seedDoneTask(t, "fine two")
	f.store.failUpdateDocID = broken

	report, err := f.archive.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	for _, id := range []string{ok1, ok2} {
		task, err := f.tasks.GetTask(ctx, id)
		require.NoError(t, err)
		assert.False(t, task.Status)
	}

	stuck, err := f.tasks.GetTask(ctx, broken)
	require.NoError(t, err)
	assert.True(t, stuck.Status, "failed task keeps its pre-reset state")
}

// seedDoneTask creates a task with the given subtasks and marks it
// done, returning the task id.
func (f *archiveFixture) seedDoneTask(t *testing.T, title string, subtaskTitles ...string) string {
	t.Helper()
	ctx := context.Background()

	task, err := f.tasks.CreateTask(ctx, title)
	require.NoError(t, err)
	for _, st := range subtaskTitles {
		_, err = f.tasks.AddSubtask(ctx, task.ID, st)
		require.NoError(t, err)
	}

	_, err = f.tasks.ToggleTask(ctx, task.ID, "seed")
	require.NoError(t, err)
	return task.ID
}
