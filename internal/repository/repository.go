package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access. Every method
// is scoped to the owning user; a task owned by someone else behaves as if
// it did not exist.
type TaskRepository interface {
	// Create creates a new task together with its tags
	Create(ctx context.Context, task *models.Task) error

	// FindOwned finds a task by ID among the tasks of ownerID
	FindOwned(ctx context.Context, id, ownerID uint64) (*models.Task, error)

	// FindOwnedByIDs returns the tasks of ownerID whose IDs are in ids
	FindOwnedByIDs(ctx context.Context, ids []uint64, ownerID uint64) ([]models.Task, error)

	// List retrieves tasks with filtering, sorting and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update writes the task's mutable fields and replaces its tags. The task
	// must belong to task.UserID.
	Update(ctx context.Context, task *models.Task) error

	// ToggleArchived negates the archived flag of an owned task
	ToggleArchived(ctx context.Context, id, ownerID uint64) error

	// Delete soft deletes an owned task
	Delete(ctx context.Context, id, ownerID uint64) error

	// Stats aggregates the tasks of a user
	Stats(ctx context.Context, filter StatsFilter) (*TaskStats, error)
}

// SortField names a sortable task attribute.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
	SortByStatus    SortField = "status"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OwnerID         uint64
	Status          *models.TaskStatus
	Priority        *models.TaskPriority
	Category        string
	Search          string
	IncludeArchived bool
	SortBy          SortField
	SortOrder       SortOrder
	Page            int
	PageSize        int
}

// StatsFilter selects the tasks counted by Stats.
type StatsFilter struct {
	OwnerID         uint64
	IncludeArchived bool
	Now             time.Time
	DayStart        time.Time
	DayEnd          time.Time
}

// TaskStats holds the aggregate counts for one user.
type TaskStats struct {
	Total      int64
	Archived   int64
	ByStatus   map[models.TaskStatus]int64
	ByPriority map[models.TaskPriority]int64
	Overdue    int64
	DueToday   int64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves every field of the user
	Update(ctx context.Context, user *models.User) error

	// TouchLastLogin stamps the user's last login time
	TouchLastLogin(ctx context.Context, id uint64, at time.Time) error

	// List retrieves users ordered by ID with pagination
	List(ctx context.Context, page, pageSize int) ([]models.User, int64, error)
}
