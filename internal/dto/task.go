package dto

import (
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	LastLogin *time.Time  `json:"lastLogin"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Category    string              `json:"category"`
	DueDate     *time.Time          `json:"dueDate"`
	CompletedAt *time.Time          `json:"completedAt"`
	Tags        []string            `json:"tags"`
	Archived    bool                `json:"archived"`
	UserID      uint64              `json:"userId"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// BulkUpdateResponse reports how many owned tasks matched and changed.
type BulkUpdateResponse struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// TaskStatsResponse is the per-user overview.
type TaskStatsResponse struct {
	Total      int64                         `json:"total"`
	Archived   int64                         `json:"archived"`
	ByStatus   map[models.TaskStatus]int64   `json:"byStatus"`
	ByPriority map[models.TaskPriority]int64 `json:"byPriority"`
	Overdue    int64                         `json:"overdue"`
	DueToday   int64                         `json:"dueToday"`
}

// TaskSuggestion is an unsaved task extracted from free text.
type TaskSuggestion struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

// SuggestionsResponse wraps the suggestion list.
type SuggestionsResponse struct {
	Suggestions []TaskSuggestion `json:"suggestions"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Category:    task.Category,
		DueDate:     task.DueDate,
		CompletedAt: task.CompletedAt,
		Tags:        task.TagNames(),
		Archived:    task.IsArchived,
		UserID:      task.UserID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: utils.NewPaginationResponse(params, len(items), total),
	}
}

// ToUserListResponse converts a page of users to UserListResponse
func ToUserListResponse(users []models.User, params utils.PaginationParams, total int64) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}

	return UserListResponse{
		Users:      items,
		Pagination: utils.NewPaginationResponse(params, len(items), total),
	}
}

// ToTaskStatsResponse converts aggregated counts to TaskStatsResponse
func ToTaskStatsResponse(stats repository.TaskStats) TaskStatsResponse {
	return TaskStatsResponse{
		Total:      stats.Total,
		Archived:   stats.Archived,
		ByStatus:   stats.ByStatus,
		ByPriority: stats.ByPriority,
		Overdue:    stats.Overdue,
		DueToday:   stats.DueToday,
	}
}
