package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns one page of the current user's tasks
// Supports status, priority, category, search, sortBy, sortOrder,
// includeArchived, page and limit query parameters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var query services.ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), userID, query, params)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.ToTaskListResponse(tasks, params, total)))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.ToTaskDTO(task)))
}

// CreateTask creates a task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req services.CreateTaskInput
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), userID, req)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessMessage("Task created successfully", dto.ToTaskDTO(*task)))
}

// UpdateTask applies a partial update; used for both PUT and PATCH
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.NotFound(c, "Task not found")
		return
	}

	var req services.TaskPatch
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), userID, task.ID, req)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessMessage("Task updated successfully", dto.ToTaskDTO(*updated)))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.NotFound(c, "Task not found")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), userID, task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessMessage("Task deleted successfully", nil))
}

// ToggleArchive flips the archived flag
func (h *TaskHandler) ToggleArchive(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.NotFound(c, "Task not found")
		return
	}

	toggled, err := h.taskService.ToggleArchive(c.Request.Context(), userID, task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	message := "Task unarchived successfully"
	if toggled.IsArchived {
		message = "Task archived successfully"
	}
	c.JSON(http.StatusOK, dto.SuccessMessage(message, dto.ToTaskDTO(*toggled)))
}

// BulkUpdate applies one patch to several tasks
func (h *TaskHandler) BulkUpdate(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req services.BulkUpdateInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.BulkUpdate(c.Request.Context(), userID, req)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessMessage("Tasks updated successfully", dto.BulkUpdateResponse{
		Matched:  result.Matched,
		Modified: result.Modified,
	}))
}

// GetStats returns the current user's task overview
func (h *TaskHandler) GetStats(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var query services.StatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), userID, query)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.ToTaskStatsResponse(*stats)))
}

// SuggestTasks extracts task suggestions from text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	var req services.SuggestTasksInput
	if !bindJSON(c, &req) {
		return
	}

	generated, err := h.taskService.SuggestTasks(c.Request.Context(), req)
	if errors.Is(err, services.ErrAINoTasksGenerated) || errors.Is(err, services.ErrAINoValidTasks) {
		c.JSON(http.StatusOK, dto.SuccessMessage("No tasks found in text", dto.SuggestionsResponse{
			Suggestions: []dto.TaskSuggestion{},
		}))
		return
	}
	if err != nil {
		respondTaskError(c, err)
		return
	}

	suggestions := make([]dto.TaskSuggestion, len(generated))
	for i, g := range generated {
		suggestions[i] = dto.TaskSuggestion{
			Title:       g.Title,
			Description: g.Description,
			DueDate:     g.DueDate,
		}
	}

	c.JSON(http.StatusOK, dto.Success(dto.SuggestionsResponse{Suggestions: suggestions}))
}

func respondTaskError(c *gin.Context, err error) {
	if respondValidationError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrNoTaskIDsProvided),
		errors.Is(err, services.ErrTooManyTaskIDs),
		errors.Is(err, services.ErrEmptyPatch):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI suggestions are not configured")
	default:
		apierrors.InternalError(c, err)
	}
}
