package service

import (
	"context"

	"kforum/internal/models"
	"kforum/internal/repository"
	"kforum/internal/validation"
)

// UserService covers profiles and role administration.
type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID uint
	Name   string
	Year   int
	Branch string
	Avatar string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns a user together with their recent posts.
func (s *UserService) GetProfile(ctx context.Context, id uint, postLimit int) (*models.User, error) {
	return s.userRepo.GetByIDWithPosts(ctx, id, postLimit)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = in.Name
	}
	if in.Year != 0 {
		if err := validation.ValidateYear(in.Year); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Year = in.Year
	}
	if in.Branch != "" {
		if err := validation.ValidateBranch(in.Branch); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Branch = in.Branch
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole assigns a role to a user. Only admins may call this; the handler
// enforces that, this only validates the role value.
func (s *UserService) SetRole(ctx context.Context, targetID uint, role string) (*models.User, error) {
	switch role {
	case models.RoleStudent, models.RoleModerator, models.RoleAdmin:
	default:
		return nil, models.NewValidationError("Unknown role")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IsStaff reports whether the user holds a staff role. Shaped to plug into
// the post and comment services' authorization hooks.
func (s *UserService) IsStaff(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsStaff(), nil
}
