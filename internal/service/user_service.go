package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
)

// ProfileUpdate is what account owners may change about themselves.
type ProfileUpdate struct {
	DisplayName    string              `json:"displayName" validate:"required,max=120"`
	Email          string              `json:"email" validate:"required,email,max=255"`
	Country        string              `json:"country" validate:"max=100"`
	Affiliation    string              `json:"affiliation" validate:"max=200"`
	Bio            string              `json:"bio" validate:"max=2000"`
	DefaultPrivacy models.PrivacyLevel `json:"defaultPrivacy"`
}

type UserService interface {
	List(ctx context.Context, filter repository.UserFilter) ([]*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	Promote(ctx context.Context, userID string) (*models.User, error)
	Demote(ctx context.Context, actorID, userID string) (*models.User, error)
	Suspend(ctx context.Context, actorID, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userService) List(ctx context.Context, filter repository.UserFilter) ([]*models.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperr.NewValidation("role", "unknown role")
	}
	if filter.VerificationStatus != "" && !filter.VerificationStatus.Valid() {
		return nil, apperr.NewValidation("verification", "unknown verification status")
	}
	return s.userRepo.ListUsers(ctx, filter)
}

func (s *userService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *userService) Promote(ctx context.Context, userID string) (*models.User, error) {
	return s.update(ctx, userID, func(u *models.User) error {
		if u.Suspended {
			return apperr.NewValidation("user", "suspended users cannot be promoted")
		}
		u.Role = models.RoleAdmin
		return nil
	})
}

func (s *userService) Demote(ctx context.Context, actorID, userID string) (*models.User, error) {
	if actorID == userID {
		return nil, apperr.NewValidation("user", "you cannot remove your own admin role")
	}
	return s.update(ctx, userID, func(u *models.User) error {
		if u.Role != models.RoleAdmin {
			return apperr.NewValidation("user", "user is not an admin")
		}
		u.Role = models.RoleContributor
		return nil
	})
}

func (s *userService) Suspend(ctx context.Context, actorID, userID string) (*models.User, error) {
	if actorID == userID {
		return nil, apperr.NewValidation("user", "you cannot suspend yourself")
	}
	return s.update(ctx, userID, func(u *models.User) error {
		u.Suspended = true
		return nil
	})
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	if strings.TrimSpace(update.DisplayName) == "" {
		return nil, apperr.NewValidation("displayName", "is required")
	}
	if update.DefaultPrivacy != "" && !update.DefaultPrivacy.Valid() {
		return nil, apperr.NewValidation("defaultPrivacy", "unknown privacy level")
	}
	return s.update(ctx, userID, func(u *models.User) error {
		u.DisplayName = strings.TrimSpace(update.DisplayName)
		u.Email = strings.ToLower(strings.TrimSpace(update.Email))
		u.Country = strings.TrimSpace(update.Country)
		u.Affiliation = strings.TrimSpace(update.Affiliation)
		u.Bio = strings.TrimSpace(update.Bio)
		if update.DefaultPrivacy != "" {
			u.DefaultPrivacy = update.DefaultPrivacy
		}
		return nil
	})
}

func (s *userService) update(ctx context.Context, userID string, change func(*models.User) error) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := change(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		zap.String("user_id", user.UserID),
		zap.String("role", string(user.Role)),
		zap.Bool("suspended", user.Suspended))
	return user, nil
}
