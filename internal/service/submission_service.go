package service

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"archivePortal/internal/apperr"
	"archivePortal/internal/config"
	"archivePortal/internal/lifecycle"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
	"archivePortal/internal/storage"
	"archivePortal/internal/wizard"
)

// SubmissionService is the contributor side of the archive: the upload wizard's
// final step, the dashboard, and answering information requests.
type SubmissionService interface {
	Submit(ctx context.Context, ownerID string, draft wizard.Draft) (*models.Submission, error)
	Resubmit(ctx context.Context, ownerID, submissionID string, draft wizard.Draft) (*models.Submission, error)
	ListOwn(ctx context.Context, ownerID string, status models.Status) ([]*models.Submission, error)
	GetOwn(ctx context.Context, ownerID, submissionID string) (*models.Submission, error)
	Stats(ctx context.Context, ownerID string) (*models.ContributorStats, error)
	Delete(ctx context.Context, ownerID, submissionID string) error
	UploadAttachment(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (*models.Attachment, error)
}

type submissionService struct {
	subRepo  repository.SubmissionRepository
	userRepo repository.UserRepository
	storage  storage.Storage
	explore  *exploreCache
	cfg      *config.Config
	logger   *zap.Logger
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	storage storage.Storage,
	explore *exploreCache,
	cfg *config.Config,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		storage:  storage,
		explore:  explore,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *submissionService) checkContributor(ctx context.Context, ownerID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user.Suspended {
		return nil, ErrAccountSuspended
	}
	if s.cfg.RequireVerified && user.Role != models.RoleAdmin && !user.IsVerified() {
		return nil, apperr.NewValidation("verification", "identity verification is required before submitting")
	}
	return user, nil
}

// resolveFiles replaces the posted descriptors with what storage holds for each
// object key. Only files uploaded by the owner are accepted.
func (s *submissionService) resolveFiles(ctx context.Context, ownerID string, files []models.Attachment) ([]models.Attachment, error) {
	prefix := "submissions/" + ownerID + "/"
	resolved := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		if !strings.HasPrefix(f.ObjectKey, prefix) {
			return nil, apperr.NewValidation("attachments", "unknown file "+f.Name)
		}
		stored, err := s.storage.StatAttachment(ctx, f.ObjectKey)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.NewValidation("attachments", "unknown file "+f.Name)
			}
			return nil, err
		}
		if stored.Name == "" {
			stored.Name = f.Name
		}
		resolved = append(resolved, *stored)
	}
	return resolved, nil
}

func (s *submissionService) Submit(ctx context.Context, ownerID string, draft wizard.Draft) (*models.Submission, error) {
	owner, err := s.checkContributor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if draft.PrivacyLevel == "" {
		draft.PrivacyLevel = owner.DefaultPrivacy
	}
	files, err := s.resolveFiles(ctx, ownerID, draft.Files)
	if err != nil {
		return nil, err
	}
	draft.Files = files

	w, err := wizard.FromDraft(draft)
	if err != nil {
		return nil, err
	}

	submittedAt := now()
	sub, err := w.Submit(ownerID, submittedAt)
	if err != nil {
		return nil, err
	}

	// the draft row exists first so the submit transition lands in the history
	stored := sub.Clone()
	stored.Status = models.StatusDraft
	stored.SubmittedAt = nil
	if err := s.subRepo.Save(ctx, stored); err != nil {
		return nil, err
	}

	event := &models.StatusEvent{
		SubmissionID: sub.SubmissionID,
		FromStatus:   models.StatusDraft,
		ToStatus:     sub.Status,
		ActorID:      ownerID,
		CreatedAt:    submittedAt,
	}
	sub.CreatedAt = stored.CreatedAt
	if err := s.subRepo.UpdateIfStatus(ctx, sub, models.StatusDraft, event); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementSubmissionCount(ctx, ownerID, 1); err != nil {
		s.logger.Warn("failed to update submission count", zap.String("user_id", ownerID), zap.Error(err))
	}

	s.logger.Info("submission received",
		zap.String("submission_id", sub.SubmissionID),
		zap.String("owner_id", ownerID),
		zap.Int("attachments", len(sub.Attachments)))
	return sub, nil
}

func (s *submissionService) Resubmit(ctx context.Context, ownerID, submissionID string, draft wizard.Draft) (*models.Submission, error) {
	current, err := s.GetOwn(ctx, ownerID, submissionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkContributor(ctx, ownerID); err != nil {
		return nil, err
	}
	files, err := s.resolveFiles(ctx, ownerID, draft.Files)
	if err != nil {
		return nil, err
	}
	draft.Files = files

	w, err := wizard.FromDraft(draft)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	w.Draft().ApplyTo(updated)

	resubmittedAt := now()
	if err := lifecycle.Resubmit(updated, resubmittedAt); err != nil {
		return nil, err
	}

	event := &models.StatusEvent{
		SubmissionID: submissionID,
		FromStatus:   current.Status,
		ToStatus:     updated.Status,
		ActorID:      ownerID,
		CreatedAt:    resubmittedAt,
	}
	if err := s.subRepo.UpdateIfStatus(ctx, updated, current.Status, event); err != nil {
		return nil, err
	}

	s.removeObjects(ctx, droppedAttachments(current.Attachments, updated.Attachments))
	return updated, nil
}

func droppedAttachments(before, after []models.Attachment) []models.Attachment {
	kept := make(map[string]bool, len(after))
	for _, a := range after {
		kept[a.ObjectKey] = true
	}
	var dropped []models.Attachment
	for _, a := range before {
		if !kept[a.ObjectKey] {
			dropped = append(dropped, a)
		}
	}
	return dropped
}

func (s *submissionService) ListOwn(ctx context.Context, ownerID string, status models.Status) ([]*models.Submission, error) {
	filter := repository.SubmissionFilter{OwnerID: ownerID}
	if status != "" {
		if !status.Valid() {
			return nil, apperr.NewValidation("status", "unknown status")
		}
		filter.Statuses = []models.Status{status}
	}
	return s.subRepo.List(ctx, filter)
}

// GetOwn hides other users' submissions behind NotFound.
func (s *submissionService) GetOwn(ctx context.Context, ownerID, submissionID string) (*models.Submission, error) {
	sub, err := s.subRepo.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.OwnerID != ownerID {
		return nil, apperr.NotFound("submission", submissionID)
	}
	return sub, nil
}

func (s *submissionService) Stats(ctx context.Context, ownerID string) (*models.ContributorStats, error) {
	subs, err := s.subRepo.List(ctx, repository.SubmissionFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	stats := &models.ContributorStats{Total: len(subs)}
	for _, sub := range subs {
		switch sub.Status {
		case models.StatusApproved:
			stats.Approved++
		case models.StatusPending:
			stats.Pending++
		case models.StatusRejected:
			stats.Rejected++
		case models.StatusNeedsInfo:
			stats.NeedsInfo++
		}
	}
	return stats, nil
}

func (s *submissionService) Delete(ctx context.Context, ownerID, submissionID string) error {
	sub, err := s.GetOwn(ctx, ownerID, submissionID)
	if err != nil {
		return err
	}

	if err := s.subRepo.Delete(ctx, submissionID); err != nil {
		return err
	}
	if sub.Status == models.StatusApproved {
		s.explore.flush()
	}

	s.removeObjects(ctx, sub.Attachments)
	if err := s.userRepo.IncrementSubmissionCount(ctx, ownerID, -1); err != nil {
		s.logger.Warn("failed to update submission count", zap.String("user_id", ownerID), zap.Error(err))
	}
	return nil
}

// removeObjects is best effort: a leftover object is logged, never surfaced.
func (s *submissionService) removeObjects(ctx context.Context, attachments []models.Attachment) {
	for _, a := range attachments {
		if a.ObjectKey == "" {
			continue
		}
		if err := s.storage.DeleteObject(ctx, a.ObjectKey); err != nil {
			s.logger.Warn("failed to delete stored file",
				zap.String("object_key", a.ObjectKey),
				zap.Error(err))
		}
	}
}

func (s *submissionService) UploadAttachment(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (*models.Attachment, error) {
	if _, err := s.checkContributor(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.storage.UploadAttachment(ctx, ownerID, fileName, file, size)
}
