package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
)

const (
	tasksCollection       = "tasks"
	subtasksCollection    = "subtasks"
	taskHistoryCollection = "task_history"
	taskArchiveCollection = "task_archive"
)

// Timestamps are stored as fixed-width UTC strings so the document
// store's string ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// TaskRepository loads and saves task aggregates, the history log and
// archive snapshots through the document store. Serialization in and
// out of raw documents happens here and nowhere else.
type TaskRepository struct {
	logger zerolog.Logger
	store  docstore.Store
}

func NewTaskRepository(logger zerolog.Logger, store docstore.Store) *TaskRepository {
	return &TaskRepository{
		logger: logger,
		store:  store,
	}
}

// GetTask fetches a task and its subtasks ordered by their order field.
// Returns docstore.ErrNotFound if the task does not exist.
func (r *TaskRepository) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	doc, err := r.store.Get(ctx, tasksCollection, taskID)
	if err != nil {
		return nil, err
	}

	task, err := taskFromDoc(doc)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("malformed task document")
		return nil, err
	}

	task.Subtasks, err = r.getSubtasks(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks fetches every task with its subtasks.
func (r *TaskRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	docs, err := r.store.List(ctx, tasksCollection, nil)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := taskFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("malformed task document")
			return nil, err
		}

		task.Subtasks, err = r.getSubtasks(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *TaskRepository) getSubtasks(ctx context.Context, taskID string) ([]*models.Subtask, error) {
	docs, err := r.store.List(
		ctx,
		subtasksCollection,
		[]docstore.Filter{{Field: "task_id", Value: taskID}},
		docstore.Order{Field: "order"},
	)
	if err != nil {
		return nil, err
	}

	subtasks := make([]*models.Subtask, 0, len(docs))
	for _, doc := range docs {
		st, err := subtaskFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("task_id", taskID).
				Msg("malformed subtask document")
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, nil
}

// SaveTask persists the task document and only the given subtasks.
// Last write wins: there is no version check, so concurrent saves of
// the same task resolve to whichever lands last.
func (r *TaskRepository) SaveTask(ctx context.Context, task *models.Task, changedSubtasks []*models.Subtask) error {
	_, err := r.store.Update(ctx, tasksCollection, task.ID, taskToDoc(task))
	if err != nil {
		return err
	}

	for _, st := range changedSubtasks {
		_, err = r.store.Update(ctx, subtasksCollection, st.ID, subtaskToDoc(st))
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateTask creates a new task with no subtasks.
func (r *TaskRepository) CreateTask(ctx context.Context, title string, now time.Time) (*models.Task, error) {
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		LastUpdated: now,
	}

	_, err := r.store.Create(ctx, tasksCollection, task.ID, docstore.Document{
		"title":        task.Title,
		"status":       task.Status,
		"notes":        task.Notes,
		"last_updated": task.LastUpdated.UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// AddSubtask appends a new subtask to the task, ordered after its
// current siblings.
func (r *TaskRepository) AddSubtask(ctx context.Context, task *models.Task, title string, now time.Time) (*models.Subtask, error) {
	subtask := &models.Subtask{
		ID:          uuid.NewString(),
		TaskID:      task.ID,
		Title:       title,
		Order:       task.NextSubtaskOrder(),
		LastUpdated: now,
	}

	_, err := r.store.Create(ctx, subtasksCollection, subtask.ID, docstore.Document{
		"task_id":      subtask.TaskID,
		"title":        subtask.Title,
		"status":       subtask.Status,
		"order":        subtask.Order,
		"last_updated": subtask.LastUpdated.UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, err
	}

	task.Subtasks = append(task.Subtasks, subtask)
	return subtask, nil
}

// AddHistory appends one audit entry. The write is synchronous: the
// entry is durable before the caller reports success.
func (r *TaskRepository) AddHistory(ctx context.Context, entry *models.TaskHistory) error {
	doc := docstore.Document{
		"task_id":     entry.TaskID,
		"change_type": entry.ChangeType,
		"new_value":   entry.NewValue,
		"timestamp":   entry.Timestamp.UTC().Format(timeLayout),
		"user_id":     entry.UserID,
	}
	if entry.SubtaskID != "" {
		doc["subtask_id"] = entry.SubtaskID
	}

	_, err := r.store.Create(ctx, taskHistoryCollection, entry.ID, doc)
	return err
}

// ListHistory returns the task's audit entries, newest first. Entries
// written by one cascading change share a timestamp, so ordering falls
// back to the entry id to stay deterministic across store backends.
func (r *TaskRepository) ListHistory(ctx context.Context, taskID string) ([]*models.TaskHistory, error) {
	docs, err := r.store.List(
		ctx,
		taskHistoryCollection,
		[]docstore.Filter{{Field: "task_id", Value: taskID}},
		docstore.Order{Field: "timestamp", Desc: true},
		docstore.Order{Field: "id", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.TaskHistory, 0, len(docs))
	for _, doc := range docs {
		entry, err := historyFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("task_id", taskID).
				Msg("malformed history document")
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CreateArchive writes one immutable snapshot document.
func (r *TaskRepository) CreateArchive(ctx context.Context, archive *models.TaskArchive) error {
	subtasks := make([]any, 0, len(archive.Subtasks))
	for _, st := range archive.Subtasks {
		subtasks = append(subtasks, map[string]any{
			"id":     st.ID,
			"title":  st.Title,
			"status": st.Status,
			"order":  st.Order,
		})
	}

	_, err := r.store.Create(ctx, taskArchiveCollection, archive.ID, docstore.Document{
		"run_id":      archive.RunID,
		"task_id":     archive.TaskID,
		"title":       archive.Title,
		"status":      archive.Status,
		"notes":       archive.Notes,
		"subtasks":    subtasks,
		"archived_at": archive.ArchivedAt.UTC().Format(timeLayout),
	})
	return err
}

// ListArchives returns the snapshots of one archive run.
func (r *TaskRepository) ListArchives(ctx context.Context, runID string) ([]docstore.Document, error) {
	return r.store.List(
		ctx,
		taskArchiveCollection,
		[]docstore.Filter{{Field: "run_id", Value: runID}},
	)
}

func taskToDoc(task *models.Task) docstore.Document {
	return docstore.Document{
		"title":        task.Title,
		"status":       task.Status,
		"notes":        task.Notes,
		"last_updated": task.LastUpdated.UTC().Format(timeLayout),
	}
}

func taskFromDoc(doc docstore.Document) (*models.Task, error) {
	task := &models.Task{Notes: stringField(doc, "notes")}

	var err error
	task.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	task.Title, err = requiredString(doc, "title")
	if err != nil {
		return nil, err
	}
	task.Status, err = requiredBool(doc, "status")
	if err != nil {
		return nil, err
	}
	task.LastUpdated, err = timeField(doc, "last_updated")
	if err != nil {
		return nil, err
	}
	return task, nil
}

func subtaskToDoc(subtask *models.Subtask) docstore.Document {
	return docstore.Document{
		"status":       subtask.Status,
		"last_updated": subtask.LastUpdated.UTC().Format(timeLayout),
	}
}

func subtaskFromDoc(doc docstore.Document) (*models.Subtask, error) {
	subtask := &models.Subtask{}

	var err error
	subtask.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	subtask.TaskID, err = requiredString(doc, "task_id")
	if err != nil {
		return nil, err
	}
	subtask.Title, err = requiredString(doc, "title")
	if err != nil {
		return nil, err
	}
	subtask.Status, err = requiredBool(doc, "status")
	if err != nil {
		return nil, err
	}
	subtask.Order, err = requiredInt(doc, "order")
	if err != nil {
		return nil, err
	}
	subtask.LastUpdated, err = timeField(doc, "last_updated")
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

func historyFromDoc(doc docstore.Document) (*models.TaskHistory, error) {
	entry := &models.TaskHistory{SubtaskID: stringField(doc, "subtask_id")}

	var err error
	entry.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	entry.TaskID, err = requiredString(doc, "task_id")
	if err != nil {
		return nil, err
	}
	entry.ChangeType, err = requiredString(doc, "change_type")
	if err != nil {
		return nil, err
	}
	entry.NewValue = stringField(doc, "new_value")
	entry.UserID = stringField(doc, "user_id")
	entry.Timestamp, err = timeField(doc, "timestamp")
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func requiredString(doc docstore.Document, field string) (string, error) {
	v, ok := doc[field].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required field %q", field)
	}
	return v, nil
}

func requiredBool(doc docstore.Document, field string) (bool, error) {
	v, ok := doc[field].(bool)
	if !ok {
		return false, fmt.Errorf("missing required field %q", field)
	}
	return v, nil
}

func requiredInt(doc docstore.Document, field string) (int, error) {
	switch v := doc[field].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("missing required field %q", field)
	}
}

func stringField(doc docstore.Document, field string) string {
	v, _ := doc[field].(string)
	return v
}

func timeField(doc docstore.Document, field string) (time.Time, error) {
	raw, err := requiredString(doc, field)
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %q timestamp: %w", field, err)
	}
	return t, nil
}
