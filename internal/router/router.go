// Package router wires repositories, services and handlers into the HTTP API.
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/auth"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Logger       zerolog.Logger
	SessionStore sessions.Store
	// AI is nil when suggestions are not configured
	AI *services.AIService
}

// New builds the gin engine serving the whole API.
func New(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config

	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(deps.DB)
	taskRepo := repository.NewTaskRepository(deps.DB)
	tokens := auth.NewTokenManager([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.TTL)

	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, deps.AI, location)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		middleware.Recovery(),
		sessions.Sessions(constants.SessionCookieName, deps.SessionStore),
	)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.SuccessMessage("Task tracker API is running", gin.H{
			"status": "ok",
		}))
	})

	requireAuth := middleware.RequireAuth(authService)
	requireTask := middleware.RequireTaskAccess(taskService)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/profile", authHandler.GetCurrentUser)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.PUT("/password", userHandler.ChangePassword)
			users.DELETE("/account", userHandler.DeactivateAccount)
			users.GET("", middleware.RequireRole(models.RoleAdmin), userHandler.ListUsers)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/stats/overview", taskHandler.GetStats)
			tasks.PUT("/bulk", taskHandler.BulkUpdate)
			tasks.POST("/suggest", taskHandler.SuggestTasks)
			tasks.GET("/:id", requireTask, taskHandler.GetTask)
			tasks.PUT("/:id", requireTask, taskHandler.UpdateTask)
			tasks.PATCH("/:id", requireTask, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireTask, taskHandler.DeleteTask)
			tasks.PATCH("/:id/archive", requireTask, taskHandler.ToggleArchive)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Failure("Route not found", nil))
	})

	return r, nil
}
