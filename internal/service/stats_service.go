package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
)

type Overview struct {
	PendingReview      int `json:"pendingReview"`
	TotalApproved      int `json:"totalApproved"`
	ActiveContributors int `json:"activeContributors"`
	ThisWeek           int `json:"thisWeek"`
}

type FieldCompleteness struct {
	Field   string  `json:"field"`
	Percent float64 `json:"percent"`
}

// Readiness summarizes how complete the approved archive's metadata is.
type Readiness struct {
	TotalItems      int                      `json:"totalItems"`
	AIReady         int                      `json:"aiReady"`
	MissingMetadata int                      `json:"missingMetadata"`
	Score           float64                  `json:"score"`
	Fields          []FieldCompleteness      `json:"fields"`
	ContentTypes    map[models.MediaKind]int `json:"contentTypes"`
	TotalBytes      int64                    `json:"totalBytes"`
	TotalSize       string                   `json:"totalSize"`
}

type StatsService interface {
	Overview(ctx context.Context) (*Overview, error)
	Readiness(ctx context.Context) (*Readiness, error)
}

type statsService struct {
	subRepo  repository.SubmissionRepository
	userRepo repository.UserRepository
}

func NewStatsService(subRepo repository.SubmissionRepository, userRepo repository.UserRepository) StatsService {
	return &statsService{
		subRepo:  subRepo,
		userRepo: userRepo,
	}
}

func (s *statsService) Overview(ctx context.Context) (*Overview, error) {
	subs, err := s.subRepo.List(ctx, repository.SubmissionFilter{})
	if err != nil {
		return nil, err
	}

	weekAgo := now().Add(-7 * 24 * time.Hour)
	contributors := make(map[string]bool)
	overview := &Overview{}
	for _, sub := range subs {
		switch sub.Status {
		case models.StatusPending:
			overview.PendingReview++
		case models.StatusApproved:
			overview.TotalApproved++
		}
		if sub.Status != models.StatusDraft {
			contributors[sub.OwnerID] = true
		}
		if sub.SubmittedAt != nil && sub.SubmittedAt.After(weekAgo) {
			overview.ThisWeek++
		}
	}
	for ownerID := range contributors {
		user, err := s.userRepo.GetUserByID(ctx, ownerID)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !user.Suspended {
			overview.ActiveContributors++
		}
	}
	return overview, nil
}

var readinessFields = []struct {
	name    string
	present func(*models.Submission) bool
}{
	{"title", func(s *models.Submission) bool { return !blank(s.Title) }},
	{"description", func(s *models.Submission) bool { return !blank(s.ShortDescription) }},
	{"date", func(s *models.Submission) bool { return !blank(s.DateStart) || !blank(s.DateEnd) }},
	{"location", func(s *models.Submission) bool { return !blank(s.Location) }},
	{"tags", func(s *models.Submission) bool { return len(s.Tags) > 0 }},
	{"relatedPersons", func(s *models.Submission) bool { return !blank(s.RelatedPersons) }},
}

func (s *statsService) Readiness(ctx context.Context) (*Readiness, error) {
	subs, err := s.subRepo.List(ctx, repository.SubmissionFilter{Statuses: []models.Status{models.StatusApproved}})
	if err != nil {
		return nil, err
	}

	r := &Readiness{
		TotalItems:   len(subs),
		ContentTypes: make(map[models.MediaKind]int),
		Fields:       make([]FieldCompleteness, 0, len(readinessFields)),
	}

	counts := make([]int, len(readinessFields))
	for _, sub := range subs {
		complete := true
		for i, f := range readinessFields {
			if f.present(sub) {
				counts[i]++
			} else {
				complete = false
			}
		}
		if complete {
			r.AIReady++
		} else {
			r.MissingMetadata++
		}

		for _, a := range sub.Attachments {
			r.ContentTypes[a.Kind]++
			r.TotalBytes += a.Size
		}
	}

	var sum float64
	for i, f := range readinessFields {
		pct := percent(counts[i], len(subs))
		sum += pct
		r.Fields = append(r.Fields, FieldCompleteness{Field: f.name, Percent: pct})
	}
	if len(readinessFields) > 0 {
		r.Score = round1(sum / float64(len(readinessFields)))
	}
	r.TotalSize = humanize.Bytes(uint64(r.TotalBytes))
	return r, nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) * 100 / float64(total))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
