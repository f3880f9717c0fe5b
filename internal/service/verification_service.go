package service

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/notification"
	"archivePortal/internal/repository"
	"archivePortal/internal/storage"
)

type VerificationForm struct {
	FullName    string `json:"fullName" validate:"required,max=200"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Country     string `json:"country" validate:"required,max=100"`
	IDNumber    string `json:"idNumber" validate:"required,max=100"`
	Purpose     string `json:"purpose" validate:"max=2000"`
}

type Document struct {
	Name string
	Body io.Reader
	Size int64
}

// VerificationService reviews identity documents. Requests move
// under-review -> verified | rejected with the same compare-and-set guard
// submissions use.
type VerificationService interface {
	Submit(ctx context.Context, userID string, form VerificationForm, doc Document) (*models.VerificationRequest, error)
	List(ctx context.Context, status models.VerificationStatus) ([]*models.VerificationRequest, error)
	Approve(ctx context.Context, requestID, reviewerID string) (*models.VerificationRequest, error)
	Reject(ctx context.Context, requestID, reviewerID, reason string) (*models.VerificationRequest, error)
}

type verificationService struct {
	verificationRepo repository.VerificationRepository
	userRepo         repository.UserRepository
	storage          storage.Storage
	notifier         notification.Notifier
	logger           *zap.Logger
}

func NewVerificationService(
	verificationRepo repository.VerificationRepository,
	userRepo repository.UserRepository,
	storage storage.Storage,
	notifier notification.Notifier,
	logger *zap.Logger,
) VerificationService {
	return &verificationService{
		verificationRepo: verificationRepo,
		userRepo:         userRepo,
		storage:          storage,
		notifier:         notifier,
		logger:           logger,
	}
}

func (s *verificationService) Submit(ctx context.Context, userID string, form VerificationForm, doc Document) (*models.VerificationRequest, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch user.VerificationStatus {
	case models.VerificationUnderReview, models.VerificationVerified:
		return nil, &apperr.InvalidTransitionError{
			Resource: "verification request",
			From:     string(user.VerificationStatus),
			Event:    "submit",
		}
	}

	key, err := s.storage.UploadDocument(ctx, userID, doc.Name, doc.Body, doc.Size)
	if err != nil {
		return nil, err
	}

	req := &models.VerificationRequest{
		UserID:      userID,
		FullName:    strings.TrimSpace(form.FullName),
		DateOfBirth: form.DateOfBirth,
		Country:     strings.TrimSpace(form.Country),
		IDNumber:    strings.TrimSpace(form.IDNumber),
		DocumentKey: key,
		Purpose:     strings.TrimSpace(form.Purpose),
		Status:      models.VerificationUnderReview,
		SubmittedAt: now(),
	}
	// Create moves the user to under-review; a concurrent submit loses there
	if err := s.verificationRepo.Create(ctx, req); err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned document", zap.String("object_key", key), zap.Error(delErr))
		}
		return nil, err
	}

	return req, nil
}

func (s *verificationService) List(ctx context.Context, status models.VerificationStatus) ([]*models.VerificationRequest, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.NewValidation("status", "unknown verification status")
	}
	return s.verificationRepo.List(ctx, status)
}

func (s *verificationService) Approve(ctx context.Context, requestID, reviewerID string) (*models.VerificationRequest, error) {
	return s.review(ctx, requestID, reviewerID, models.VerificationVerified, "")
}

func (s *verificationService) Reject(ctx context.Context, requestID, reviewerID, reason string) (*models.VerificationRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.NewValidation("reason", "rejection reason is required")
	}
	return s.review(ctx, requestID, reviewerID, models.VerificationRejected, reason)
}

func (s *verificationService) review(ctx context.Context, requestID, reviewerID string, to models.VerificationStatus, reason string) (*models.VerificationRequest, error) {
	ctx, span := tracer.Start(ctx, "Verification.Service.Review")
	defer span.End()

	req, err := s.verificationRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.VerificationUnderReview {
		return nil, &apperr.InvalidTransitionError{Resource: "verification request", From: string(req.Status), Event: "review"}
	}

	reviewedAt := now()
	req.Status = to
	req.ReviewerID = reviewerID
	req.RejectionReason = reason
	req.ReviewedAt = &reviewedAt

	if err := s.verificationRepo.UpdateIfStatus(ctx, req, models.VerificationUnderReview); err != nil {
		span.RecordError(err)
		return nil, err
	}

	eventType := notification.VerificationApproved
	if to == models.VerificationRejected {
		eventType = notification.VerificationRejected
	}
	if err := s.notifier.Notify(ctx, notification.Event{
		Type:        eventType,
		RecipientID: req.UserID,
		Note:        reason,
		OccurredAt:  reviewedAt,
	}); err != nil {
		s.logger.Warn("notification failed", zap.String("request_id", requestID), zap.Error(err))
	}

	s.logger.Info("verification reviewed",
		zap.String("request_id", requestID),
		zap.String("reviewer_id", reviewerID),
		zap.String("status", string(to)))
	return req, nil
}
