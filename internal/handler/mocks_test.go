package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"archivePortal/internal/models"
	"archivePortal/internal/service"
	"archivePortal/internal/session"
	"archivePortal/internal/wizard"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) ParseToken(tokenString string) (*session.Identity, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Identity), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, ownerID string, draft wizard.Draft) (*models.Submission, error) {
	args := m.Called(ctx, ownerID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) Resubmit(ctx context.Context, ownerID, submissionID string, draft wizard.Draft) (*models.Submission, error) {
	args := m.Called(ctx, ownerID, submissionID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) ListOwn(ctx context.Context, ownerID string, status models.Status) ([]*models.Submission, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) GetOwn(ctx context.Context, ownerID, submissionID string) (*models.Submission, error) {
	args := m.Called(ctx, ownerID, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) Stats(ctx context.Context, ownerID string) (*models.ContributorStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContributorStats), args.Error(1)
}

func (m *MockSubmissionService) Delete(ctx context.Context, ownerID, submissionID string) error {
	args := m.Called(ctx, ownerID, submissionID)
	return args.Error(0)
}

func (m *MockSubmissionService) UploadAttachment(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (*models.Attachment, error) {
	args := m.Called(ctx, ownerID, fileName, file, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

type MockModerationService struct {
	mock.Mock
}

func (m *MockModerationService) ListQueue(ctx context.Context, filter service.QueueFilter) ([]*models.Submission, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Submission), args.Error(1)
}

func (m *MockModerationService) ReviewDetail(ctx context.Context, submissionID string) (*models.Submission, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockModerationService) Approve(ctx context.Context, submissionID, moderatorID string) (*models.Submission, error) {
	args := m.Called(ctx, submissionID, moderatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockModerationService) Reject(ctx context.Context, submissionID, moderatorID, reason string) (*models.Submission, error) {
	args := m.Called(ctx, submissionID, moderatorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockModerationService) RequestInfo(ctx context.Context, submissionID, moderatorID, message string) (*models.Submission, error) {
	args := m.Called(ctx, submissionID, moderatorID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockModerationService) EditMetadata(ctx context.Context, submissionID, moderatorID string, patch service.MetadataPatch) (*models.Submission, error) {
	args := m.Called(ctx, submissionID, moderatorID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockModerationService) History(ctx context.Context, submissionID string) ([]models.StatusEvent, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusEvent), args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, w io.Writer, format service.ExportFormat, fields []string) (int, error) {
	args := m.Called(ctx, w, format, fields)
	return args.Int(0), args.Error(1)
}
