package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

type fakeAuthenticator struct {
	users map[string]*models.User
	err   error
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

type fakeFinder struct {
	tasks map[uint64]models.Task
}

func (f fakeFinder) GetTask(_ context.Context, userID, taskID uint64) (*models.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, services.ErrTaskNotFound
	}
	return &task, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(router *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	router.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{constants.HeaderAuthorization: {"Bearer " + token}}
}

func TestRequireAuth(t *testing.T) {
	authenticator := fakeAuthenticator{users: map[string]*models.User{
		"ann-token": {ID: 1, Role: models.RoleUser, IsActive: true},
	}}

	router := gin.New()
	router.GET("/me", RequireAuth(authenticator), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": userID})
	})

	tests := []struct {
		name   string
		header http.Header
		status int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"wrong scheme", http.Header{constants.HeaderAuthorization: {"Basic abc"}}, http.StatusUnauthorized},
		{"unknown token", bearer("nope"), http.StatusUnauthorized},
		{"valid token", bearer("ann-token"), http.StatusOK},
		{"lower-case scheme", http.Header{constants.HeaderAuthorization: {"bearer ann-token"}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.status != http.StatusOK {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestRequireAuth_DeactivatedIsForbidden(t *testing.T) {
	router := gin.New()
	router.GET("/me", RequireAuth(fakeAuthenticator{err: services.ErrAccountDisabled}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(router, http.MethodGet, "/me", bearer("any"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole(t *testing.T) {
	authenticator := fakeAuthenticator{users: map[string]*models.User{
		"user":  {ID: 1, Role: models.RoleUser},
		"admin": {ID: 2, Role: models.RoleAdmin},
	}}

	router := gin.New()
	router.GET("/users", RequireAuth(authenticator), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodGet, "/users", bearer("user")).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/users", bearer("admin")).Code)
}

func TestRequireTaskAccess(t *testing.T) {
	authenticator := fakeAuthenticator{users: map[string]*models.User{
		"ann": {ID: 1},
		"bob": {ID: 2},
	}}
	finder := fakeFinder{tasks: map[uint64]models.Task{
		10: {ID: 10, Title: "Ann's", UserID: 1},
	}}

	router := gin.New()
	router.GET("/tasks/:id", RequireAuth(authenticator), RequireTaskAccess(finder), func(c *gin.Context) {
		task, ok := GetTask(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"title": task.Title})
	})

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/tasks/10", bearer("ann")).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/tasks/10", bearer("bob")).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/tasks/99", bearer("ann")).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodGet, "/tasks/abc", bearer("ann")).Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	router.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusNoContent)
	})

	w := perform(router, http.MethodGet, "/ping", http.Header{constants.HeaderRequestID: {"req-123"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(constants.HeaderRequestID))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var access map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "req-123", access["request_id"])
	assert.Equal(t, "GET", access["method"])
	assert.Equal(t, float64(http.StatusNoContent), access["status"])

	w = perform(router, http.MethodGet, "/ping", nil)
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := perform(router, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error", body["message"])
}
