package services

import (
	"errors"
	"fmt"

	"deckforge/internal/models"
	"deckforge/internal/repositories"
)

// ErrSelfDeletion is returned when an admin tries to delete their own account.
var ErrSelfDeletion = errors.New("cannot delete your own account")

// UserUpdate carries the optional fields of a partial user update. Nil fields
// are left untouched.
type UserUpdate struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UserService handles admin-facing user management.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers retrieves users with skip/limit pagination.
func (s *UserService) ListUsers(skip, limit int) ([]models.User, error) {
	return s.userRepo.List(skip, limit)
}

// GetUser retrieves a single user by ID.
func (s *UserService) GetUser(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// UpdateUser applies a partial update, re-checking username and email
// uniqueness against other accounts.
func (s *UserService) UpdateUser(id uint, update UserUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		if existing, err := s.userRepo.GetByUsername(*update.Username); err == nil && existing.ID != id {
			return nil, fmt.Errorf("username %q: %w", *update.Username, ErrUsernameTaken)
		}
		user.Username = *update.Username
	}
	if update.Email != nil {
		if existing, err := s.userRepo.GetByEmail(*update.Email); err == nil && existing.ID != id {
			return nil, fmt.Errorf("email %q: %w", *update.Email, ErrEmailTaken)
		}
		user.Email = *update.Email
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.Role != nil {
		user.Role = *update.Role
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user. The acting admin cannot delete their own account.
func (s *UserService) DeleteUser(id, actingUserID uint) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if user.ID == actingUserID {
		return ErrSelfDeletion
	}
	return s.userRepo.Delete(id)
}
