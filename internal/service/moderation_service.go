package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"archivePortal/internal/apperr"
	"archivePortal/internal/lifecycle"
	"archivePortal/internal/models"
	"archivePortal/internal/notification"
	"archivePortal/internal/repository"
	"archivePortal/internal/wizard"
)

var tracer = otel.Tracer("archivePortal/service")

type QueueFilter struct {
	Category         models.Category
	Search           string
	IncludeNeedsInfo bool
}

// MetadataPatch lists the descriptive fields a moderator may correct; nil means unchanged.
type MetadataPatch struct {
	Title            *string              `json:"title"`
	ShortDescription *string              `json:"shortDescription"`
	LongStory        *string              `json:"longStory"`
	Category         *models.Category     `json:"category"`
	DateStart        *string              `json:"dateStart"`
	DateEnd          *string              `json:"dateEnd"`
	Location         *string              `json:"location"`
	Coordinates      *string              `json:"coordinates"`
	RelatedPersons   *string              `json:"relatedPersons"`
	Tags             []string             `json:"tags"`
	PrivacyLevel     *models.PrivacyLevel `json:"privacyLevel"`
}

// ModerationService is the admin console. Every decision goes through the
// lifecycle package and is stored with a compare-and-set on the pending status,
// so two moderators racing on one item cannot both succeed.
type ModerationService interface {
	ListQueue(ctx context.Context, filter QueueFilter) ([]*models.Submission, error)
	ReviewDetail(ctx context.Context, submissionID string) (*models.Submission, error)
	Approve(ctx context.Context, submissionID, moderatorID string) (*models.Submission, error)
	Reject(ctx context.Context, submissionID, moderatorID, reason string) (*models.Submission, error)
	RequestInfo(ctx context.Context, submissionID, moderatorID, message string) (*models.Submission, error)
	EditMetadata(ctx context.Context, submissionID, moderatorID string, patch MetadataPatch) (*models.Submission, error)
	History(ctx context.Context, submissionID string) ([]models.StatusEvent, error)
}

type moderationService struct {
	subRepo  repository.SubmissionRepository
	notifier notification.Notifier
	explore  *exploreCache
	logger   *zap.Logger
}

func NewModerationService(
	subRepo repository.SubmissionRepository,
	notifier notification.Notifier,
	explore *exploreCache,
	logger *zap.Logger,
) ModerationService {
	return &moderationService{
		subRepo:  subRepo,
		notifier: notifier,
		explore:  explore,
		logger:   logger,
	}
}

func (s *moderationService) ListQueue(ctx context.Context, filter QueueFilter) ([]*models.Submission, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperr.NewValidation("category", "unknown category")
	}

	statuses := []models.Status{models.StatusPending}
	if filter.IncludeNeedsInfo {
		statuses = append(statuses, models.StatusNeedsInfo)
	}

	return s.subRepo.List(ctx, repository.SubmissionFilter{
		Statuses: statuses,
		Category: filter.Category,
		Search:   filter.Search,
	})
}

func (s *moderationService) ReviewDetail(ctx context.Context, submissionID string) (*models.Submission, error) {
	return s.subRepo.Get(ctx, submissionID)
}

func (s *moderationService) Approve(ctx context.Context, submissionID, moderatorID string) (*models.Submission, error) {
	return s.transition(ctx, lifecycle.EventApprove, submissionID, moderatorID, "",
		func(sub *models.Submission, at time.Time) error {
			return lifecycle.Approve(sub, moderatorID, at)
		})
}

func (s *moderationService) Reject(ctx context.Context, submissionID, moderatorID, reason string) (*models.Submission, error) {
	return s.transition(ctx, lifecycle.EventReject, submissionID, moderatorID, reason,
		func(sub *models.Submission, at time.Time) error {
			return lifecycle.Reject(sub, moderatorID, reason, at)
		})
}

func (s *moderationService) RequestInfo(ctx context.Context, submissionID, moderatorID, message string) (*models.Submission, error) {
	return s.transition(ctx, lifecycle.EventRequestInfo, submissionID, moderatorID, message,
		func(sub *models.Submission, at time.Time) error {
			return lifecycle.RequestInfo(sub, moderatorID, message, at)
		})
}

func (s *moderationService) transition(
	ctx context.Context,
	ev lifecycle.Event,
	submissionID, moderatorID, note string,
	apply func(*models.Submission, time.Time) error,
) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Moderation.Service."+string(ev))
	defer span.End()
	span.SetAttributes(
		attribute.String("submission.id", submissionID),
		attribute.String("moderator.id", moderatorID),
	)

	sub, err := s.subRepo.Get(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	from := sub.Status
	at := now()
	if err := apply(sub, at); err != nil {
		span.RecordError(err)
		return nil, err
	}

	event := &models.StatusEvent{
		SubmissionID: submissionID,
		FromStatus:   from,
		ToStatus:     sub.Status,
		ActorID:      moderatorID,
		Note:         note,
		CreatedAt:    at,
	}
	if err := s.subRepo.UpdateIfStatus(ctx, sub, from, event); err != nil {
		var transition *apperr.InvalidTransitionError
		if errors.As(err, &transition) && transition.Event == "" {
			transition.Event = string(ev)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition not stored")
		return nil, err
	}

	s.explore.flush()
	s.notify(ctx, ev, sub)

	s.logger.Info("submission moderated",
		zap.String("submission_id", submissionID),
		zap.String("moderator_id", moderatorID),
		zap.String("from", string(from)),
		zap.String("to", string(sub.Status)))
	return sub, nil
}

var moderationNotices = map[lifecycle.Event]notification.EventType{
	lifecycle.EventApprove:     notification.SubmissionApproved,
	lifecycle.EventReject:      notification.SubmissionRejected,
	lifecycle.EventRequestInfo: notification.SubmissionNeedsInfo,
}

func (s *moderationService) notify(ctx context.Context, ev lifecycle.Event, sub *models.Submission) {
	eventType, ok := moderationNotices[ev]
	if !ok {
		return
	}

	note := sub.RejectionReason
	if ev == lifecycle.EventRequestInfo {
		note = sub.InfoRequest
	}

	err := s.notifier.Notify(ctx, notification.Event{
		Type:         eventType,
		RecipientID:  sub.OwnerID,
		SubmissionID: sub.SubmissionID,
		Title:        sub.Title,
		Note:         note,
		OccurredAt:   now(),
	})
	if err != nil {
		s.logger.Warn("notification failed", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
	}
}

func (s *moderationService) EditMetadata(ctx context.Context, submissionID, moderatorID string, patch MetadataPatch) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Moderation.Service.EditMetadata")
	defer span.End()

	sub, err := s.subRepo.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusPending {
		return nil, &apperr.InvalidTransitionError{Resource: "submission", From: string(sub.Status), Event: "edit"}
	}

	patch.applyTo(sub)
	sub.UpdatedAt = now()
	if err := lifecycle.ValidateContent(sub); err != nil {
		return nil, err
	}

	if err := s.subRepo.UpdateIfStatus(ctx, sub, models.StatusPending, nil); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("submission metadata edited",
		zap.String("submission_id", submissionID),
		zap.String("moderator_id", moderatorID))
	return sub, nil
}

func (p MetadataPatch) applyTo(sub *models.Submission) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&sub.Title, p.Title)
	setString(&sub.ShortDescription, p.ShortDescription)
	setString(&sub.DateStart, p.DateStart)
	setString(&sub.DateEnd, p.DateEnd)
	setString(&sub.Location, p.Location)
	setString(&sub.Coordinates, p.Coordinates)
	setString(&sub.RelatedPersons, p.RelatedPersons)
	if p.LongStory != nil {
		sub.LongStory = *p.LongStory
	}
	if p.Category != nil {
		sub.Category = *p.Category
	}
	if p.PrivacyLevel != nil {
		sub.PrivacyLevel = *p.PrivacyLevel
	}
	if p.Tags != nil {
		w := wizard.New()
		for _, tag := range p.Tags {
			w.AddTag(tag)
		}
		sub.Tags = w.Draft().Tags
	}
}

func (s *moderationService) History(ctx context.Context, submissionID string) ([]models.StatusEvent, error) {
	if _, err := s.subRepo.Get(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.subRepo.History(ctx, submissionID)
}
