package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *services.TaskService
	handler *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())

	// Create handler (without AI service for tests)
	suite.service = services.NewTaskService(repository.NewTaskRepository(suite.db), nil, time.UTC)
	suite.handler = NewTaskHandler(suite.service)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

// Helper function to create test data
func (suite *TaskHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, ownerID uint64) *models.Task {
	task, err := suite.service.CreateTask(suite.T().Context(), ownerID, services.CreateTaskInput{
		Title:       title,
		Description: "Test Description",
	})
	suite.Require().NoError(err)
	return task
}

// Helper function to create authenticated context
func (suite *TaskHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

// Helper function to set task context (simulates RequireTaskAccess middleware)
func (suite *TaskHandlerTestSuite) setTaskContext(c *gin.Context, task models.Task) {
	c.Set(constants.ContextKeyTask, task)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Success() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Test Task", user.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, user.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	response := decode[dto.TaskListResponse](suite.T(), w.Body.Bytes())
	suite.Require().Len(response.Data.Tasks, 1)
	suite.Equal(task.ID, response.Data.Tasks[0].ID)
	suite.Equal(int64(1), response.Data.Pagination.Total)
	suite.Equal(1, response.Data.Pagination.TotalPages)
	suite.Equal(1, response.Data.Pagination.Count)
}

func (suite *TaskHandlerTestSuite) TestListTasks_NoCrossUserLeakage() {
	ann := suite.createTestUser("ann@example.com")
	bob := suite.createTestUser("bob@example.com")
	suite.createTestTask("Ann 1", ann.ID)
	suite.createTestTask("Ann 2", ann.ID)
	suite.createTestTask("Bob 1", bob.ID)

	for _, user := range []*models.User{ann, bob} {
		c, w := suite.createAuthContext("GET", "/api/tasks", nil, user.ID)
		suite.handler.ListTasks(c)
		suite.Require().Equal(http.StatusOK, w.Code)

		response := decode[dto.TaskListResponse](suite.T(), w.Body.Bytes())
		for _, task := range response.Data.Tasks {
			suite.Equal(user.ID, task.UserID)
		}
	}
}

func (suite *TaskHandlerTestSuite) TestListTasks_PaginationLaw() {
	user := suite.createTestUser("ann@example.com")
	for i := 0; i < 5; i++ {
		suite.createTestTask(fmt.Sprintf("task %d", i), user.ID)
	}

	c, w := suite.createAuthContext("GET", "/api/tasks?page=3&limit=2", nil, user.ID)
	suite.handler.ListTasks(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	response := decode[dto.TaskListResponse](suite.T(), w.Body.Bytes())
	suite.Equal(3, response.Data.Pagination.TotalPages)
	suite.Equal(3, response.Data.Pagination.Page)
	suite.Equal(1, response.Data.Pagination.Count)
	suite.Len(response.Data.Tasks, 1)

	c, w = suite.createAuthContext("GET", "/api/tasks?page=0&limit=500", nil, user.ID)
	suite.handler.ListTasks(c)
	response = decode[dto.TaskListResponse](suite.T(), w.Body.Bytes())
	suite.Equal(1, response.Data.Pagination.Page)
	suite.Equal(constants.DefaultPageSize, response.Data.Pagination.Limit)
}

func (suite *TaskHandlerTestSuite) TestListTasks_InvalidOptions() {
	user := suite.createTestUser("ann@example.com")

	c, w := suite.createAuthContext("GET", "/api/tasks?status=bogus&sortBy=owner", nil, user.ID)
	suite.handler.ListTasks(c)

	suite.Equal(http.StatusBadRequest, w.Code)
	response := decode[any](suite.T(), w.Body.Bytes())
	suite.ElementsMatch([]string{"status", "sortBy"}, fieldNames(response.Errors))
}

func (suite *TaskHandlerTestSuite) TestListTasks_Unauthorized() {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/tasks", nil)

	suite.handler.ListTasks(c)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask_Success() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Test Task", user.ID)

	c, w := suite.createAuthContext("GET", fmt.Sprintf("/api/tasks/%d", task.ID), nil, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.GetTask(c)

	suite.Equal(http.StatusOK, w.Code)
	response := decode[dto.TaskDTO](suite.T(), w.Body.Bytes())
	suite.Equal("Test Task", response.Data.Title)
	suite.Equal([]string{}, response.Data.Tags)
}

func (suite *TaskHandlerTestSuite) TestGetTask_NotFoundInContext() {
	c, w := suite.createAuthContext("GET", "/api/tasks/1", nil, 1)

	suite.handler.GetTask(c)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	user := suite.createTestUser("test@example.com")

	body, _ := json.Marshal(map[string]any{
		"title":    "Write spec",
		"priority": "high",
		"tags":     []string{"docs", " docs ", ""},
		"dueDate":  "2026-05-01T17:00:00Z",
		"userId":   999,
	})
	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	suite.Require().Equal(http.StatusCreated, w.Code)
	response := decode[dto.TaskDTO](suite.T(), w.Body.Bytes())
	suite.Equal("Write spec", response.Data.Title)
	suite.Equal(models.TaskStatusPending, response.Data.Status)
	suite.Equal(models.TaskPriorityHigh, response.Data.Priority)
	suite.Equal([]string{"docs"}, response.Data.Tags)
	suite.Equal(user.ID, response.Data.UserID)
	suite.False(response.Data.Archived)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_ValidationNamesFields() {
	user := suite.createTestUser("test@example.com")

	body, _ := json.Marshal(map[string]string{"title": "", "status": "bogus"})
	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	suite.Equal(http.StatusBadRequest, w.Code)
	response := decode[any](suite.T(), w.Body.Bytes())
	suite.False(response.Success)
	suite.ElementsMatch([]string{"title", "status"}, fieldNames(response.Errors))
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidRequest() {
	user := suite.createTestUser("test@example.com")

	c, w := suite.createAuthContext("POST", "/api/tasks", []byte("{not json"), user.ID)

	suite.handler.CreateTask(c)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_OwnerImmutable() {
	ann := suite.createTestUser("ann@example.com")
	bob := suite.createTestUser("bob@example.com")
	task := suite.createTestTask("Original Title", ann.ID)

	body, _ := json.Marshal(map[string]any{
		"title":  "Updated Title",
		"userId": bob.ID,
		"owner":  bob.ID,
	})
	c, w := suite.createAuthContext("PUT", fmt.Sprintf("/api/tasks/%d", task.ID), body, ann.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	response := decode[dto.TaskDTO](suite.T(), w.Body.Bytes())
	suite.Equal("Updated Title", response.Data.Title)
	suite.Equal(ann.ID, response.Data.UserID)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_NullDueDate() {
	user := suite.createTestUser("test@example.com")
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	task, err := suite.service.CreateTask(suite.T().Context(), user.ID, services.CreateTaskInput{Title: "Dated", DueDate: &due})
	suite.Require().NoError(err)

	c, w := suite.createAuthContext("PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), []byte(`{"dueDate":null}`), user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	response := decode[dto.TaskDTO](suite.T(), w.Body.Bytes())
	suite.Nil(response.Data.DueDate)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_InvalidStatus() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task", user.ID)

	c, w := suite.createAuthContext("PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), []byte(`{"status":"bogus"}`), user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.UpdateTask(c)

	suite.Equal(http.StatusBadRequest, w.Code)
	response := decode[any](suite.T(), w.Body.Bytes())
	suite.Equal([]string{"status"}, fieldNames(response.Errors))
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_Success() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Task to Delete", user.ID)

	c, w := suite.createAuthContext("DELETE", fmt.Sprintf("/api/tasks/%d", task.ID), nil, user.ID)
	suite.setTaskContext(c, *task)

	suite.handler.DeleteTask(c)

	suite.Equal(http.StatusOK, w.Code)

	_, err := suite.service.GetTask(suite.T().Context(), user.ID, task.ID)
	suite.ErrorIs(err, services.ErrTaskNotFound)
}

func (suite *TaskHandlerTestSuite) TestToggleArchive() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Archive me", user.ID)

	for _, want := range []bool{true, false} {
		c, w := suite.createAuthContext("PATCH", fmt.Sprintf("/api/tasks/%d/archive", task.ID), nil, user.ID)
		suite.setTaskContext(c, *task)

		suite.handler.ToggleArchive(c)

		suite.Require().Equal(http.StatusOK, w.Code)
		response := decode[dto.TaskDTO](suite.T(), w.Body.Bytes())
		suite.Equal(want, response.Data.Archived)
	}
}

func (suite *TaskHandlerTestSuite) TestBulkUpdate_OwnedOnly() {
	ann := suite.createTestUser("ann@example.com")
	bob := suite.createTestUser("bob@example.com")
	first := suite.createTestTask("One", ann.ID)
	second := suite.createTestTask("Two", ann.ID)
	foreign := suite.createTestTask("Bob's", bob.ID)

	body, _ := json.Marshal(map[string]any{
		"taskIds": []uint64{first.ID, second.ID, foreign.ID},
		"updates": map[string]any{"status": "completed", "userId": ann.ID},
	})
	c, w := suite.createAuthContext("PUT", "/api/tasks/bulk", body, ann.ID)

	suite.handler.BulkUpdate(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	response := decode[dto.BulkUpdateResponse](suite.T(), w.Body.Bytes())
	suite.Equal(int64(2), response.Data.Matched)
	suite.Equal(int64(2), response.Data.Modified)

	untouched, err := suite.service.GetTask(suite.T().Context(), bob.ID, foreign.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusPending, untouched.Status)
	suite.Equal(bob.ID, untouched.UserID)
}

func (suite *TaskHandlerTestSuite) TestBulkUpdate_BadRequests() {
	user := suite.createTestUser("ann@example.com")

	for _, body := range []string{
		`{"taskIds":[],"updates":{"status":"completed"}}`,
		`{"taskIds":[1],"updates":{}}`,
		`{"taskIds":[1],"updates":{"userId":3}}`,
	} {
		c, w := suite.createAuthContext("PUT", "/api/tasks/bulk", []byte(body), user.ID)
		suite.handler.BulkUpdate(c)
		suite.Equal(http.StatusBadRequest, w.Code, body)
	}
}

func (suite *TaskHandlerTestSuite) TestGetStats() {
	user := suite.createTestUser("ann@example.com")
	suite.createTestTask("One", user.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks/stats/overview", nil, user.ID)
	suite.handler.GetStats(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	response := decode[dto.TaskStatsResponse](suite.T(), w.Body.Bytes())
	suite.Equal(int64(1), response.Data.Total)
	suite.Equal(int64(1), response.Data.ByStatus[models.TaskStatusPending])
	suite.Contains(response.Data.ByStatus, models.TaskStatusCancelled)
	suite.Contains(response.Data.ByPriority, models.TaskPriorityUrgent)
}

func (suite *TaskHandlerTestSuite) TestSuggestTasks_NotConfigured() {
	user := suite.createTestUser("ann@example.com")

	c, w := suite.createAuthContext("POST", "/api/tasks/suggest", []byte(`{"text":"buy milk"}`), user.ID)
	suite.handler.SuggestTasks(c)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
