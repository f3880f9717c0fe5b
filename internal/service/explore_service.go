package service

import (
	"context"
	"strings"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
	"archivePortal/internal/session"
)

type ExploreFilter struct {
	Category models.Category
	Search   string
}

// ExploreService is the public archive: approved submissions only, filtered by
// what the viewer is allowed to see.
type ExploreService interface {
	List(ctx context.Context, viewer *session.Identity, filter ExploreFilter) ([]*models.Submission, error)
	Get(ctx context.Context, viewer *session.Identity, submissionID string) (*models.Submission, error)
}

type exploreService struct {
	subRepo  repository.SubmissionRepository
	userRepo repository.UserRepository
	cache    *exploreCache
}

func NewExploreService(subRepo repository.SubmissionRepository, userRepo repository.UserRepository, cache *exploreCache) ExploreService {
	return &exploreService{
		subRepo:  subRepo,
		userRepo: userRepo,
		cache:    cache,
	}
}

type viewerAccess struct {
	userID   string
	admin    bool
	verified bool
}

func (s *exploreService) access(ctx context.Context, viewer *session.Identity) (viewerAccess, error) {
	if viewer == nil {
		return viewerAccess{}, nil
	}
	a := viewerAccess{userID: viewer.UserID, admin: viewer.IsAdmin()}
	if a.admin {
		return a, nil
	}

	user, err := s.userRepo.GetUserByID(ctx, viewer.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return a, nil
		}
		return a, err
	}
	a.verified = user.IsVerified()
	return a, nil
}

// canView: public to everyone, restricted to verified users and admins,
// private to the owner and admins.
func (a viewerAccess) canView(sub *models.Submission) bool {
	if a.admin || (a.userID != "" && sub.OwnerID == a.userID) {
		return true
	}
	switch sub.PrivacyLevel {
	case models.PrivacyPublic:
		return true
	case models.PrivacyRestricted:
		return a.verified
	default:
		return false
	}
}

func (s *exploreService) List(ctx context.Context, viewer *session.Identity, filter ExploreFilter) ([]*models.Submission, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperr.NewValidation("category", "unknown category")
	}

	repoFilter := repository.SubmissionFilter{
		Statuses: []models.Status{models.StatusApproved},
		Category: filter.Category,
		Search:   filter.Search,
	}

	if viewer == nil {
		key := string(filter.Category) + "|" + strings.ToLower(strings.TrimSpace(filter.Search))
		if subs, ok := s.cache.get(key); ok {
			return subs, nil
		}
		gen := s.cache.generation()
		repoFilter.PrivacyLevels = []models.PrivacyLevel{models.PrivacyPublic}
		subs, err := s.subRepo.List(ctx, repoFilter)
		if err != nil {
			return nil, err
		}
		s.cache.set(key, subs, gen)
		return subs, nil
	}

	a, err := s.access(ctx, viewer)
	if err != nil {
		return nil, err
	}
	subs, err := s.subRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	visible := make([]*models.Submission, 0, len(subs))
	for _, sub := range subs {
		if a.canView(sub) {
			visible = append(visible, sub)
		}
	}
	return visible, nil
}

func (s *exploreService) Get(ctx context.Context, viewer *session.Identity, submissionID string) (*models.Submission, error) {
	sub, err := s.subRepo.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusApproved {
		return nil, apperr.NotFound("submission", submissionID)
	}

	a, err := s.access(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if !a.canView(sub) {
		return nil, apperr.NotFound("submission", submissionID)
	}
	return sub, nil
}
