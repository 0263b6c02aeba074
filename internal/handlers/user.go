package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfile changes the caller's name or email
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req services.ProfilePatch
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessMessage("Profile updated successfully", dto.ToUserDTO(*user)))
}

// ChangePassword replaces the caller's password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req services.ChangePasswordInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			apierrors.Unauthorized(c, "Current password is incorrect")
			return
		}
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessMessage("Password changed successfully", nil))
}

// DeactivateAccount deactivates the caller and ends the session
func (h *UserHandler) DeactivateAccount(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), userID); err != nil {
		respondAuthError(c, err)
		return
	}

	if err := clearSession(c); err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessMessage("Account deactivated successfully", nil))
}

// ListUsers returns every user, for admins
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), params)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.ToUserListResponse(users, params, total)))
}
