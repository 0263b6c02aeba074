package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	_, err = database.MigrateDatabase(db)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:      config.EnvLocal,
		GinMode:  gin.TestMode,
		Timezone: "UTC",
		Session:  config.SessionConfig{Store: config.SessionStoreCookie, Secret: "client-test-secret"},
		JWT:      config.JWTConfig{Secret: "client-test-jwt", Issuer: "task-tracker-test", TTL: time.Hour},
	}
	store, err := router.NewSessionStore(cfg)
	require.NoError(t, err)

	engine, err := router.New(router.Deps{
		Config:       cfg,
		DB:           db,
		Logger:       zerolog.Nop(),
		SessionStore: store,
	})
	require.NoError(t, err)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func TestClient_AnnScenario(t *testing.T) {
	server := newTestServer(t)
	ctx := t.Context()
	tokens := NewMemoryTokenStore()
	c := New(server.URL, tokens, WithHTTPClient(server.Client()))

	user, err := c.Register(ctx, RegisterRequest{Name: "Ann", Email: "Ann@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)

	login, err := c.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	stored, _ := tokens.Token()
	assert.Equal(t, login.Token, stored)

	task, err := c.CreateTask(ctx, TaskCreate{Title: "Write spec", Priority: models.TaskPriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, user.ID, task.UserID)
	assert.False(t, task.Archived)

	archived, err := c.ToggleArchive(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	restored, err := c.ToggleArchive(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)

	require.NoError(t, c.DeleteTask(ctx, task.ID))

	_, err = c.GetTask(ctx, task.ID)
	assert.True(t, IsNotFound(err))
}

func TestClient_UpdateAndList(t *testing.T) {
	server := newTestServer(t)
	ctx := t.Context()
	c := New(server.URL, NewMemoryTokenStore())

	_, err := c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)

	due := time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)
	task, err := c.CreateTask(ctx, TaskCreate{Title: "Dated", DueDate: &due, Tags: []string{"a", "b"}})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)

	title := "Renamed"
	updated, err := c.UpdateTask(ctx, task.ID, TaskUpdate{Title: &title, ClearDueDate: true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)

	_, err = c.CreateTask(ctx, TaskCreate{Title: "Other"})
	require.NoError(t, err)

	list, err := c.ListTasks(ctx, ListOptions{Search: "renam"})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, task.ID, list.Tasks[0].ID)

	completed := models.TaskStatusCompleted
	result, err := c.BulkUpdate(ctx, []uint64{task.ID, task.ID + 1, 9999}, TaskUpdate{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Matched)
	assert.Equal(t, int64(2), result.Modified)

	stats, err := c.Stats(ctx, "UTC", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[models.TaskStatusCompleted])
}

func TestClient_Errors(t *testing.T) {
	server := newTestServer(t)
	ctx := t.Context()
	c := New(server.URL, NewMemoryTokenStore())

	_, err := c.ListTasks(ctx, ListOptions{})
	assert.True(t, IsUnauthorized(err))

	_, err = c.Register(ctx, RegisterRequest{Name: "A", Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.NotEmpty(t, apiErr.Fields)
	assert.Contains(t, apiErr.Error(), "email")

	_, err = c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	assert.True(t, IsConflict(err))

	_, err = c.Login(ctx, "ann@example.com", "wrong-password")
	assert.True(t, IsUnauthorized(err))
}

func TestClient_LogoutClearsToken(t *testing.T) {
	server := newTestServer(t)
	ctx := t.Context()
	tokens := NewMemoryTokenStore()
	c := New(server.URL, tokens)

	_, err := c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)

	_, err = c.Me(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	token, _ := tokens.Token()
	assert.Empty(t, token)

	_, err = c.Me(ctx)
	assert.True(t, IsUnauthorized(err))
}

func TestTaskUpdate_MarshalJSON(t *testing.T) {
	title := "x"
	due := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		update TaskUpdate
		want   string
	}{
		{"empty", TaskUpdate{}, `{}`},
		{"title only", TaskUpdate{Title: &title}, `{"title":"x"}`},
		{"clear due date", TaskUpdate{ClearDueDate: true, DueDate: &due}, `{"dueDate":null}`},
		{"set due date", TaskUpdate{DueDate: &due}, `{"dueDate":"2026-01-02T03:04:05Z"}`},
		{"clear tags", TaskUpdate{Tags: &[]string{}}, `{"tags":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.update.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestListOptions_Values(t *testing.T) {
	v := ListOptions{Status: models.TaskStatusPending, IncludeArchived: true, Page: 2}.values()

	assert.Equal(t, "pending", v.Get("status"))
	assert.Equal(t, "true", v.Get("includeArchived"))
	assert.Equal(t, "2", v.Get("page"))
	assert.False(t, v.Has("limit"))
	assert.False(t, v.Has("search"))
}
