package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Create in-memory SQLite database
	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	// Run migrations
	_, err = database.MigrateDatabase(db)
	require.NoError(t, err)

	return db
}

// envelope mirrors dto.Envelope with a typed payload
type envelope[T any] struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    T                       `json:"data"`
	Errors  []validation.FieldError `json:"errors"`
}

func decode[T any](t *testing.T, body []byte) envelope[T] {
	t.Helper()

	var env envelope[T]
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func fieldNames(fields []validation.FieldError) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return names
}
