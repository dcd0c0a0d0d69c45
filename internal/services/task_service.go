package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/broadcast"
	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
)

type taskServiceImpl struct {
	logger   zerolog.Logger
	repo     *repository.TaskRepository
	notifier Notifier
	// auditCascade writes a history entry per subtask flipped by a
	// cascade-down toggle. Off by default: the cascade is implied by
	// the task-level entry.
	auditCascade bool
}

func NewTaskService(
	logger zerolog.Logger,
	repo *repository.TaskRepository,
	notifier Notifier,
	auditCascade bool,
) TaskService {
	return &taskServiceImpl{
		logger:       logger,
		repo:         repo,
		notifier:     notifier,
		auditCascade: auditCascade,
	}
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to load task")
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}
	return tasks, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, title string) (*models.Task, error) {
	task, err := s.repo.CreateTask(ctx, title, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) AddSubtask(ctx context.Context, taskID, title string) (*models.Subtask, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	subtask, err := s.repo.AddSubtask(ctx, task, title, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to add subtask")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("subtask_id", subtask.ID).
		Msg("added subtask")
	return subtask, nil
}

func (s *taskServiceImpl) ToggleTask(ctx context.Context, taskID, userID string) (*ToggleTaskResult, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	changed := task.Toggle(now)

	err = s.repo.SaveTask(ctx, task, changed)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to save toggled task")
		return nil, err
	}

	entries := []*models.TaskHistory{
		models.NewStatusChange(task.ID, "", task.Status, userID, now),
	}
	if s.auditCascade {
		for _, st := range changed {
			entries = append(entries, models.NewStatusChange(task.ID, st.ID, st.Status, userID, now))
		}
	}
	err = s.addHistory(ctx, entries)
	if err != nil {
		return nil, err
	}

	s.notifier.BroadcastTaskUpdate(task, broadcast.UpdateTaskStatus, "")

	s.logger.Info().
		Str("task_id", task.ID).
		Bool("status", task.Status).
		Int("cascaded", len(changed)).
		Msg("toggled task")
	return &ToggleTaskResult{Task: task, ChangedSubtasks: changed}, nil
}

func (s *taskServiceImpl) ToggleSubtask(ctx context.Context, taskID, subtaskID, userID string) (*ToggleSubtaskResult, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	subtask := task.FindSubtask(subtaskID)
	if subtask == nil {
		s.logger.Error().
			Str("task_id", taskID).
			Str("subtask_id", subtaskID).
			Msg("subtask not found")
		return nil, ErrSubtaskNotFound
	}

	now := time.Now()
	subtask.Status = !subtask.Status
	subtask.LastUpdated = now

	entries := []*models.TaskHistory{
		models.NewStatusChange(task.ID, subtask.ID, subtask.Status, userID, now),
	}

	taskChanged := task.EvaluateCascade(now)
	if taskChanged {
		entries = append(entries, models.NewStatusChange(task.ID, "", task.Status, userID, now))
	}

	err = s.repo.SaveTask(ctx, task, []*models.Subtask{subtask})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("subtask_id", subtaskID).
			Msg("failed to save toggled subtask")
		return nil, err
	}

	err = s.addHistory(ctx, entries)
	if err != nil {
		return nil, err
	}

	s.notifier.BroadcastTaskUpdate(task, broadcast.UpdateSubtaskStatus, subtask.ID)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("subtask_id", subtask.ID).
		Bool("status", subtask.Status).
		Bool("task_changed", taskChanged).
		Msg("toggled subtask")
	return &ToggleSubtaskResult{Task: task, Subtask: subtask, TaskChanged: taskChanged}, nil
}

func (s *taskServiceImpl) UpdateNote(ctx context.Context, taskID, note, userID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.Notes = note
	task.LastUpdated = now

	err = s.repo.SaveTask(ctx, task, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to save task note")
		return nil, err
	}

	err = s.addHistory(ctx, []*models.TaskHistory{
		models.NewNoteChange(task.ID, note, userID, now),
	})
	if err != nil {
		return nil, err
	}

	s.notifier.BroadcastTaskUpdate(task, broadcast.UpdateTaskNote, "")

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("updated task note")
	return task, nil
}

func (s *taskServiceImpl) ListHistory(ctx context.Context, taskID string) ([]*models.TaskHistory, error) {
	entries, err := s.repo.ListHistory(ctx, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to list history")
		return nil, err
	}
	return entries, nil
}

// addHistory persists audit entries synchronously: the change is not
// reported successful until its trail is durable.
func (s *taskServiceImpl) addHistory(ctx context.Context, entries []*models.TaskHistory) error {
	for _, entry := range entries {
		err := s.repo.AddHistory(ctx, entry)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", entry.TaskID).
				Str("change_type", entry.ChangeType).
				Msg("failed to append history entry")
			return err
		}
	}
	return nil
}
