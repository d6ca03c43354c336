package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/adapters/persistence/repositories"
	"agrofresh-gh/internal/config"
	"agrofresh-gh/internal/pkg/pagination"
	"agrofresh-gh/internal/pkg/password"
	"agrofresh-gh/internal/pkg/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User errors
var (
	ErrWrongPassword         = errors.New("current password is incorrect")
	ErrVerificationNotFound  = errors.New("verification token not found")
	ErrNoPendingEmail        = errors.New("no pending email change")
	ErrCannotDeleteLastAdmin = errors.New("cannot delete the last admin account")
)

// UserService handles user profile and admin user management
type UserService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, cfg *config.Config) *UserService {
	return &UserService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// UpdateProfileInput represents profile update input. Every field is optional;
// only provided fields change.
type UpdateProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
}

// ChangePasswordInput represents password change input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// GetProfile returns the user's profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile updates profile fields. An email change does not take effect
// immediately: the new address is parked in pending_email with a verification
// token until VerifyEmail confirms it.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Location != nil {
		user.Location = *input.Location
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}

	if input.Email != nil && *input.Email != user.Email {
		// The new address must not collide with an existing account of the same role
		exists, err := s.userRepo.ExistsByEmailAndRole(ctx, *input.Email, user.Role)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailRoleTaken
		}

		user.PendingEmail = *input.Email
		user.VerificationToken = uuid.New().String()
		log.Printf("📧 Email change pending for user %d: %s", user.ID, user.PendingEmail)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// VerifyEmail finalizes a pending email change using the verification token
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}

	if user.PendingEmail == "" {
		return nil, ErrNoPendingEmail
	}

	user.Email = user.PendingEmail
	user.PendingEmail = ""
	user.VerificationToken = ""

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Email verified for user %d: %s", user.ID, user.Email)
	return user.ToResponse(), nil
}

// ChangePassword changes the user's password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !password.Verify(input.CurrentPassword, user.Password) {
		return ErrWrongPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}

// UpdateAvatar stores an uploaded avatar image and saves its public path
func (s *UserService) UpdateAvatar(ctx context.Context, c *fiber.Ctx, userID uint, file *multipart.FileHeader) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	path, err := upload.Save(c, file, s.cfg.Upload.Dir, "avatars", s.cfg.Upload.MaxSizeMB)
	if err != nil {
		return nil, err
	}

	user.Avatar = path
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ListUsers lists users with pagination (admin only)
func (s *UserService) ListUsers(ctx context.Context, params *pagination.Params) ([]*models.UserResponse, *pagination.Meta, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}

	return responses, pagination.GetMeta(params, total), nil
}

// GetUser returns a single user (admin only)
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetProfile(ctx, userID)
}

// SetUserStatus activates or deactivates an account (admin only)
func (s *UserService) SetUserStatus(ctx context.Context, userID uint, status string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User %d status set to %s", user.ID, status)
	return user.ToResponse(), nil
}

// DeleteUser hard-deletes an account (admin only). Crops and orders tied to
// the account go with it through FK cascades. The last admin is protected.
func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.Role == models.RoleAdmin {
		admins, err := s.userRepo.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrCannotDeleteLastAdmin
		}
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	log.Printf("🗑️ User deleted: %d (%s)", user.ID, user.Email)
	return nil
}
