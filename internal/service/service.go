package service

import (
	"time"

	"go.uber.org/zap"

	"archivePortal/internal/config"
	"archivePortal/internal/notification"
	"archivePortal/internal/repository"
	"archivePortal/internal/storage"
)

type Service struct {
	Auth         AuthService
	User         UserService
	Submission   SubmissionService
	Moderation   ModerationService
	Verification VerificationService
	Explore      ExploreService
	Export       ExportService
	Stats        StatsService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, notifier notification.Notifier, logger *zap.Logger) *Service {
	explore := newExploreCache(cfg.ExploreCacheTTL)

	return &Service{
		Auth:         NewAuthService(rep.User, cfg),
		User:         NewUserService(rep.User, logger),
		Submission:   NewSubmissionService(rep.Submission, rep.User, storage, explore, cfg, logger),
		Moderation:   NewModerationService(rep.Submission, notifier, explore, logger),
		Verification: NewVerificationService(rep.Verification, rep.User, storage, notifier, logger),
		Explore:      NewExploreService(rep.Submission, rep.User, explore),
		Export:       NewExportService(rep.Submission, rep.User),
		Stats:        NewStatsService(rep.Submission, rep.User),
	}
}

// now is swapped in tests that need a fixed clock.
var now = time.Now
