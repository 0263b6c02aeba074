package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrNoTaskIDsProvided      = errors.New("at least one task ID is required")
	ErrTooManyTaskIDs         = fmt.Errorf("at most %d task IDs are allowed", constants.MaxBulkTaskIDs)
	ErrEmptyPatch             = errors.New("no updatable fields provided")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	aiService *AIService
	location  *time.Location
	now       func() time.Time
}

// NewTaskService creates a new TaskService. location decides where "today"
// starts for stats; nil means UTC.
func NewTaskService(taskRepo repository.TaskRepository, aiService *AIService, location *time.Location) *TaskService {
	if location == nil {
		location = time.UTC
	}
	return &TaskService{
		taskRepo:  taskRepo,
		aiService: aiService,
		location:  location,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for completion stamps and stats.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// ListTasks returns one page of the caller's tasks
func (s *TaskService) ListTasks(ctx context.Context, userID uint64, query ListTasksQuery, params utils.PaginationParams) ([]models.Task, int64, error) {
	query.Search = strings.TrimSpace(query.Search)
	query.Category = strings.TrimSpace(query.Category)
	if err := validation.Struct(&query); err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		OwnerID:         userID,
		Category:        query.Category,
		Search:          query.Search,
		IncludeArchived: truthy(query.IncludeArchived),
		SortBy:          repository.SortField(query.SortBy),
		SortOrder:       repository.SortOrder(query.SortOrder),
		Page:            params.Page,
		PageSize:        params.Limit,
	}
	if query.Status != "" {
		status := models.TaskStatus(query.Status)
		filter.Status = &status
	}
	if query.Priority != "" {
		priority := models.TaskPriority(query.Priority)
		filter.Priority = &priority
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns one of the caller's tasks
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindOwned(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates the input and stores a task owned by userID
func (s *TaskService) CreateTask(ctx context.Context, userID uint64, input CreateTaskInput) (*models.Task, error) {
	input.normalize()
	if err := validation.Struct(&input); err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Category:    input.Category,
		DueDate:     input.DueDate,
		UserID:      userID,
		Tags:        toTaskTags(input.Tags),
	}
	if task.Status == models.TaskStatusCompleted {
		completedAt := s.now().UTC()
		task.CompletedAt = &completedAt
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(ctx, userID, task.ID)
}

// UpdateTask applies patch to one of the caller's tasks
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uint64, patch TaskPatch) (*models.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if !patch.ApplyTo(task, s.now()) {
		return task, nil
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(ctx, userID, taskID)
}

// DeleteTask soft deletes one of the caller's tasks
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint64) error {
	if err := s.taskRepo.Delete(ctx, taskID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// ToggleArchive flips the archived flag of one of the caller's tasks
func (s *TaskService) ToggleArchive(ctx context.Context, userID, taskID uint64) (*models.Task, error) {
	if err := s.taskRepo.ToggleArchived(ctx, taskID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to toggle archive: %w", err)
	}

	return s.GetTask(ctx, userID, taskID)
}

// BulkUpdateResult reports the outcome of BulkUpdate.
type BulkUpdateResult struct {
	Matched  int64
	Modified int64
}

// BulkUpdate applies one patch to every listed task the caller owns. Tasks
// are saved one at a time; a failure leaves earlier tasks updated.
func (s *TaskService) BulkUpdate(ctx context.Context, userID uint64, input BulkUpdateInput) (BulkUpdateResult, error) {
	var result BulkUpdateResult

	if len(input.TaskIDs) == 0 {
		return result, ErrNoTaskIDsProvided
	}
	if len(input.TaskIDs) > constants.MaxBulkTaskIDs {
		return result, ErrTooManyTaskIDs
	}

	patch := input.Updates
	if patch.IsEmpty() {
		return result, ErrEmptyPatch
	}
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return result, err
	}

	tasks, err := s.taskRepo.FindOwnedByIDs(ctx, uniqueUint64(input.TaskIDs), userID)
	if err != nil {
		return result, fmt.Errorf("failed to find tasks: %w", err)
	}
	result.Matched = int64(len(tasks))

	now := s.now()
	for i := range tasks {
		task := &tasks[i]
		if !patch.ApplyTo(task, now) {
			continue
		}

		if err := s.taskRepo.Update(ctx, task); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return result, fmt.Errorf("failed to update task %d: %w", task.ID, err)
		}
		result.Modified++
	}

	return result, nil
}

// Stats computes the caller's overview. The day used for dueToday is taken
// from query.Timezone when given, otherwise from the service location.
func (s *TaskService) Stats(ctx context.Context, userID uint64, query StatsQuery) (*repository.TaskStats, error) {
	errs := &validation.Errors{}
	errs.Merge(validation.Struct(&query))

	location := s.location
	if tz := strings.TrimSpace(query.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs.Add("timezone", "timezone must be a valid IANA time zone")
		} else {
			location = loc
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	local := now.In(location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats, err := s.taskRepo.Stats(ctx, repository.StatsFilter{
		OwnerID:         userID,
		IncludeArchived: truthy(query.IncludeArchived),
		Now:             now.UTC(),
		DayStart:        dayStart.UTC(),
		DayEnd:          dayEnd.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	return stats, nil
}

// SuggestTasks uses AI to extract task suggestions from text
func (s *TaskService) SuggestTasks(ctx context.Context, input SuggestTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	input.Text = strings.TrimSpace(input.Text)
	if err := validation.Struct(&input); err != nil {
		return nil, err
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}

		if aiTask.DueDate != nil {
			if aiTask.DueDate.Before(cutoff) {
				aiTask.DueDate = nil
			}
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
