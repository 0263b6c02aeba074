package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("task_tags.position ASC")
	})
}

func numberTags(task *models.Task) {
	for i := range task.Tags {
		task.Tags[i].TaskID = task.ID
		task.Tags[i].Position = i
	}
}

// Create creates a new task together with its tags
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	numberTags(task)
	return r.db.WithContext(ctx).Create(task).Error
}

// FindOwned finds a task by ID among the tasks of ownerID
func (r *GormTaskRepository) FindOwned(ctx context.Context, id, ownerID uint64) (*models.Task, error) {
	var task models.Task
	err := preloadTags(r.db.WithContext(ctx)).
		Scopes(database.OwnedBy(ownerID)).
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindOwnedByIDs returns the tasks of ownerID whose IDs are in ids
func (r *GormTaskRepository) FindOwnedByIDs(ctx context.Context, ids []uint64, ownerID uint64) ([]models.Task, error) {
	tasks := []models.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}

	err := preloadTags(r.db.WithContext(ctx)).
		Scopes(database.OwnedBy(ownerID)).
		Where("tasks.id IN ?", ids).
		Order("tasks.id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// filtered builds the WHERE part shared by the count and the page query.
func (r *GormTaskRepository) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedBy(filter.OwnerID))

	if !filter.IncludeArchived {
		query = query.Where("tasks.is_archived = ?", false)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(tasks.category) LIKE ? ESCAPE '!'", database.ContainsPattern(filter.Category))
	}
	if filter.Search != "" {
		pattern := database.ContainsPattern(filter.Search)
		tagSubQuery := r.db.Model(&models.TaskTag{}).
			Select("1").
			Where("task_tags.task_id = tasks.id").
			Where("LOWER(task_tags.name) LIKE ? ESCAPE '!'", pattern)
		query = query.Where(
			r.db.Where("LOWER(tasks.title) LIKE ? ESCAPE '!'", pattern).
				Or("LOWER(tasks.description) LIKE ? ESCAPE '!'", pattern).
				Or("EXISTS (?)", tagSubQuery),
		)
	}

	return query
}

// rankExpr orders an enum column by its position in values.
func rankExpr[T ~string](column string, values []T) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(values))
	return b.String()
}

// OrderClause returns the ORDER BY expression for a sort option. Ties are
// broken by ascending ID, which is insertion order.
func OrderClause(sortBy SortField, order SortOrder) string {
	dir := "DESC"
	if order == SortAsc {
		dir = "ASC"
	}

	var primary string
	switch sortBy {
	case SortByUpdatedAt:
		primary = "tasks.updated_at " + dir
	case SortByTitle:
		primary = "tasks.title " + dir
	case SortByDueDate:
		primary = "CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date " + dir
	case SortByPriority:
		primary = rankExpr("tasks.priority", models.TaskPriorities) + " " + dir
	case SortByStatus:
		primary = rankExpr("tasks.status", models.TaskStatuses) + " " + dir
	default:
		primary = "tasks.created_at " + dir
	}

	return primary + ", tasks.id ASC"
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := []models.Task{}
	listQuery := preloadTags(r.filtered(ctx, filter)).
		Order(OrderClause(filter.SortBy, filter.SortOrder))

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update writes the task's mutable fields and replaces its tags
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", task.ID, task.UserID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return gorm.ErrRecordNotFound
		}

		err := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", task.ID, task.UserID).
			Updates(map[string]any{
				"title":        task.Title,
				"description":  task.Description,
				"status":       task.Status,
				"priority":     task.Priority,
				"category":     task.Category,
				"due_date":     task.DueDate,
				"completed_at": task.CompletedAt,
				"is_archived":  task.IsArchived,
			}).Error
		if err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskTag{}).Error; err != nil {
			return err
		}

		if len(task.Tags) == 0 {
			return nil
		}
		numberTags(task)
		return tx.Create(&task.Tags).Error
	})
}

// ToggleArchived negates the archived flag of an owned task in one statement
func (r *GormTaskRepository) ToggleArchived(ctx context.Context, id, ownerID uint64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Update("is_archived", gorm.Expr("NOT is_archived"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes an owned task and removes its tags
func (r *GormTaskRepository) Delete(ctx context.Context, id, ownerID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("task_id = ?", id).Delete(&models.TaskTag{}).Error
	})
}

type groupCount struct {
	Grp   string
	Total int64
}

// Stats aggregates the tasks of a user
func (r *GormTaskRepository) Stats(ctx context.Context, filter StatsFilter) (*TaskStats, error) {
	owned := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.Task{}).
			Scopes(database.OwnedBy(filter.OwnerID))
	}
	active := func() *gorm.DB {
		return owned().Where("tasks.is_archived = ?", false)
	}
	counted := active
	if filter.IncludeArchived {
		counted = owned
	}
	closed := []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled}

	stats := &TaskStats{
		ByStatus:   make(map[models.TaskStatus]int64, len(models.TaskStatuses)),
		ByPriority: make(map[models.TaskPriority]int64, len(models.TaskPriorities)),
	}
	for _, s := range models.TaskStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range models.TaskPriorities {
		stats.ByPriority[p] = 0
	}

	var byStatus []groupCount
	if err := counted().
		Select("tasks.status AS grp, COUNT(*) AS total").
		Group("tasks.status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	for _, row := range byStatus {
		stats.ByStatus[models.TaskStatus(row.Grp)] = row.Total
		stats.Total += row.Total
	}

	var byPriority []groupCount
	if err := counted().
		Select("tasks.priority AS grp, COUNT(*) AS total").
		Group("tasks.priority").
		Scan(&byPriority).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	for _, row := range byPriority {
		stats.ByPriority[models.TaskPriority(row.Grp)] = row.Total
	}

	if err := owned().Where("tasks.is_archived = ?", true).Count(&stats.Archived).Error; err != nil {
		return nil, fmt.Errorf("failed to count archived tasks: %w", err)
	}

	if err := active().
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", filter.Now).
		Where("tasks.status NOT IN ?", closed).
		Count(&stats.Overdue).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	if err := active().
		Where("tasks.due_date >= ? AND tasks.due_date < ?", filter.DayStart, filter.DayEnd).
		Where("tasks.status NOT IN ?", closed).
		Count(&stats.DueToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks due today: %w", err)
	}

	return stats, nil
}
