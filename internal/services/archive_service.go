package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/models"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
)

type archiveServiceImpl struct {
	logger zerolog.Logger
	repo   *repository.TaskRepository
}

func NewArchiveService(
	logger zerolog.Logger,
	repo *repository.TaskRepository,
) ArchiveService {
	return &archiveServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// Archive snapshots every task into the archive collection. One run id
// and timestamp are shared by all snapshots of the run. A failed task
// is logged and reported, and the run moves on to the next task;
// nothing is rolled back.
func (s *archiveServiceImpl) Archive(ctx context.Context) (*CycleReport, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks for archive run")
		return nil, err
	}

	report := &CycleReport{RunID: uuid.NewString()}
	archivedAt := time.Now()

	for _, task := range tasks {
		err = s.repo.CreateArchive(ctx, models.NewTaskArchive(task, report.RunID, archivedAt))
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("run_id", report.RunID).
				Str("task_id", task.ID).
				Msg("failed to archive task")
			report.Failed++
			report.Outcomes = append(report.Outcomes, TaskOutcome{TaskID: task.ID, Err: err})
			continue
		}
		report.Succeeded++
		report.Outcomes = append(report.Outcomes, TaskOutcome{TaskID: task.ID})
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("archive run finished")
	return report, nil
}

// Reset returns every task and subtask to the not-done baseline and
// clears notes. Same best-effort per-task semantics as Archive.
func (s *archiveServiceImpl) Reset(ctx context.Context) (*CycleReport, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks for reset run")
		return nil, err
	}

	report := &CycleReport{RunID: uuid.NewString()}
	now := time.Now()

	for _, task := range tasks {
		task.Status = false
		task.Notes = ""
		task.LastUpdated = now
		for _, st := range task.Subtasks {
			st.Status = false
			st.LastUpdated = now
		}

		err = s.repo.SaveTask(ctx, task, task.Subtasks)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("run_id", report.RunID).
				Str("task_id", task.ID).
				Msg("failed to reset task")
			report.Failed++
			report.Outcomes = append(report.Outcomes, TaskOutcome{TaskID: task.ID, Err: err})
			continue
		}
		report.Succeeded++
		report.Outcomes = append(report.Outcomes, TaskOutcome{TaskID: task.ID})
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("reset run finished")
	return report, nil
}
