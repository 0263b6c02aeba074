package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

type index struct {
	name    string
	columns string
}

// taskIndexes back the owner-scoped list, stats and search queries.
var taskIndexes = []index{
	{"idx_tasks_user_archived_created", "user_id, is_archived, created_at"},
	{"idx_tasks_user_status", "user_id, status"},
	{"idx_tasks_user_priority", "user_id, priority"},
	{"idx_tasks_user_due_date", "user_id, due_date"},
}

// AddIndexes creates the composite task indexes that are missing.
func AddIndexes(db *gorm.DB) ([]string, error) {
	migrator := db.Migrator()
	created := make([]string, 0, len(taskIndexes))

	for _, idx := range taskIndexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return created, fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		created = append(created, idx.name)
	}

	return created, nil
}

// MigrateDatabase runs the schema migration followed by AddIndexes.
func MigrateDatabase(db *gorm.DB) ([]string, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}

	created, err := AddIndexes(db)
	if err != nil {
		return created, fmt.Errorf("failed to add indexes: %w", err)
	}

	return created, nil
}
