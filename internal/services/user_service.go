package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

// UserService manages the caller's own account and the admin user list.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ProfilePatch is the allow-list of profile fields a user may change.
type ProfilePatch struct {
	Name  *string `json:"name" validate:"omitnil,min=2,max=50"`
	Email *string `json:"email" validate:"omitnil,email,max=255"`
}

// ChangePasswordInput holds the current and the new password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (s *UserService) find(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies patch to the user's name and email.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, patch ProfilePatch) (*models.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if err := validation.Struct(&patch); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != user.Email {
		if other, err := s.userRepo.FindByEmail(ctx, *patch.Email); err == nil && other.ID != user.ID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = *patch.Email
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, input ChangePasswordInput) error {
	if err := validation.Struct(&input); err != nil {
		return err
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := hashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// Deactivate clears the user's active flag. Their tasks are kept.
func (s *UserService) Deactivate(ctx context.Context, userID uint64) error {
	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}

	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return nil
}

// ListUsers returns one page of all users
func (s *UserService) ListUsers(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
