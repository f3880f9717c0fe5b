package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"archivePortal/internal/models"
)

// validID reports whether id can address a UUID column. Anything else cannot match
// a row, so lookups treat it as not found instead of sending it to Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type SubmissionFilter struct {
	OwnerID       string
	Statuses      []models.Status
	Category      models.Category
	PrivacyLevels []models.PrivacyLevel
	// Search is a case-insensitive substring match on title, description and location.
	Search string
}

type UserFilter struct {
	Role               models.Role
	VerificationStatus models.VerificationStatus
	Search             string
}

type SubmissionRepository interface {
	Get(ctx context.Context, submissionID string) (*models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]*models.Submission, error)
	Save(ctx context.Context, sub *models.Submission) error
	// UpdateIfStatus writes sub only while the stored status still equals expected,
	// and appends event to the history in the same step when it is not nil.
	UpdateIfStatus(ctx context.Context, sub *models.Submission, expected models.Status, event *models.StatusEvent) error
	Delete(ctx context.Context, submissionID string) error
	History(ctx context.Context, submissionID string) ([]models.StatusEvent, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	VerifyPassword(ctx context.Context, email, password string) (*models.User, error)
	IncrementSubmissionCount(ctx context.Context, userID string, delta int) error
}

type VerificationRepository interface {
	Create(ctx context.Context, req *models.VerificationRequest) error
	GetByID(ctx context.Context, requestID string) (*models.VerificationRequest, error)
	GetLatestByUser(ctx context.Context, userID string) (*models.VerificationRequest, error)
	List(ctx context.Context, status models.VerificationStatus) ([]*models.VerificationRequest, error)
	UpdateIfStatus(ctx context.Context, req *models.VerificationRequest, expected models.VerificationStatus) error
}

type Repository struct {
	Submission   SubmissionRepository
	User         UserRepository
	Verification VerificationRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Submission:   NewSubmissionRepository(db),
		User:         NewUserRepository(db),
		Verification: NewVerificationRepository(db),
	}
}

func NewMemoryRepository() *Repository {
	users := NewMemoryUserRepository()
	return &Repository{
		Submission:   NewMemorySubmissionRepository(),
		User:         users,
		Verification: NewMemoryVerificationRepository(users),
	}
}
