package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/WAzaizeh/ChainFlow/internal/models"
	"github.com/WAzaizeh/ChainFlow/internal/services"
)

type subtaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      bool      `json:"status"`
	Order       int       `json:"order"`
	LastUpdated time.Time `json:"last_updated"`
}

type taskResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Status      bool              `json:"status"`
	Notes       string            `json:"notes"`
	LastUpdated time.Time         `json:"last_updated"`
	Subtasks    []subtaskResponse `json:"subtasks"`
}

func newTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Status:      task.Status,
		Notes:       task.Notes,
		LastUpdated: task.LastUpdated,
		Subtasks:    make([]subtaskResponse, 0, len(task.Subtasks)),
	}
	for _, st := range task.Subtasks {
		resp.Subtasks = append(resp.Subtasks, subtaskResponse{
			ID:          st.ID,
			Title:       st.Title,
			Status:      st.Status,
			Order:       st.Order,
			LastUpdated: st.LastUpdated,
		})
	}
	return resp
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, newTaskResponse(task))
	}
	c.JSON(http.StatusOK, response)
}

type createTaskRequest struct {
	Title string `json:"title" form:"title" binding:"required,max=255"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, strings.TrimSpace(req.Title))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

type addSubtaskRequest struct {
	Title string `json:"title" form:"title" binding:"required,max=255"`
}

func (h *handlerImpl) HandleAddSubtask(c *gin.Context) {
	var req addSubtaskRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	subtask, err := h.tasks.AddSubtask(c, c.Param("id"), strings.TrimSpace(req.Title))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to add subtask")
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, subtaskResponse{
		ID:          subtask.ID,
		Title:       subtask.Title,
		Status:      subtask.Status,
		Order:       subtask.Order,
		LastUpdated: subtask.LastUpdated,
	})
}

// HandleToggleTask flips the task and responds with the re-rendered
// checkbox fragment the client swaps in place.
func (h *handlerImpl) HandleToggleTask(c *gin.Context) {
	userID, ok := h.contextUserID(c)
	if !ok {
		return
	}

	result, err := h.tasks.ToggleTask(c, c.Param("id"), userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to toggle task")
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	fragment, err := h.fragments.TaskCheckbox(result.Task)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", result.Task.ID).
			Msg("failed to render task checkbox")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	c.Data(http.StatusOK, gin.MIMEHTML, []byte(fragment))
}

func (h *handlerImpl) HandleToggleSubtask(c *gin.Context) {
	userID, ok := h.contextUserID(c)
	if !ok {
		return
	}

	result, err := h.tasks.ToggleSubtask(c, c.Param("id"), c.Param("subtaskID"), userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Str("subtask_id", c.Param("subtaskID")).
			Msg("failed to toggle subtask")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrSubtaskNotFound):
			abort(c, newNotFoundError(services.ErrSubtaskNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	fragment, err := h.fragments.SubtaskCheckbox(result.Subtask)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("subtask_id", result.Subtask.ID).
			Msg("failed to render subtask checkbox")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	c.Data(http.StatusOK, gin.MIMEHTML, []byte(fragment))
}

type updateNoteRequest struct {
	Note string `json:"note" form:"note"`
}

func (h *handlerImpl) HandleUpdateNote(c *gin.Context) {
	userID, ok := h.contextUserID(c)
	if !ok {
		return
	}

	var req updateNoteRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateNote(c, c.Param("id"), strings.TrimSpace(req.Note), userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to update note")
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	fragment, err := h.fragments.TaskNoteForm(task)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to render note form")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	c.Data(http.StatusOK, gin.MIMEHTML, []byte(fragment))
}

type historyEntryResponse struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	SubtaskID  string    `json:"subtask_id,omitempty"`
	ChangeType string    `json:"change_type"`
	NewValue   string    `json:"new_value"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id"`
}

func (h *handlerImpl) HandleTaskHistory(c *gin.Context) {
	entries, err := h.tasks.ListHistory(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to list task history")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, historyEntryResponse{
			ID:         entry.ID,
			TaskID:     entry.TaskID,
			SubtaskID:  entry.SubtaskID,
			ChangeType: entry.ChangeType,
			NewValue:   entry.NewValue,
			Timestamp:  entry.Timestamp,
			UserID:     entry.UserID,
		})
	}
	c.JSON(http.StatusOK, response)
}
