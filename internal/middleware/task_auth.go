package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// TaskFinder looks up a task among the caller's own tasks
type TaskFinder interface {
	GetTask(ctx context.Context, userID, taskID uint64) (*models.Task, error)
}

const msgTaskNotFound = "Task not found"

// RequireTaskAccess loads the task named by the :id parameter. A task that
// does not exist, belongs to another user or has a malformed ID is
// reported as not found.
func RequireTaskAccess(finder TaskFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.NotFound(c, msgTaskNotFound)
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := finder.GetTask(c.Request.Context(), userID, taskID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, msgTaskNotFound)
				return
			}
			apierrors.InternalError(c, err)
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
