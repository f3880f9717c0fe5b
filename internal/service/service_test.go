package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"archivePortal/internal/apperr"
	"archivePortal/internal/config"
	"archivePortal/internal/models"
	"archivePortal/internal/notification"
	"archivePortal/internal/repository"
	"archivePortal/internal/wizard"
)

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	missing map[string]bool
	failDoc bool
}

func (f *fakeStorage) UploadAttachment(_ context.Context, ownerID, fileName string, file io.Reader, size int64) (*models.Attachment, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return nil, err
	}
	return &models.Attachment{
		Name:      fileName,
		Kind:      models.MediaImage,
		MimeType:  "image/png",
		Size:      size,
		ObjectKey: fmt.Sprintf("submissions/%s/2025/11/%s", ownerID, fileName),
	}, nil
}

func (f *fakeStorage) UploadDocument(_ context.Context, userID, fileName string, _ io.Reader, _ int64) (string, error) {
	if f.failDoc {
		return "", errors.New("bucket unavailable")
	}
	return "verification/" + userID + "/" + fileName, nil
}

// StatAttachment reports every object as a 2 KiB JPEG unless it is marked missing.
func (f *fakeStorage) StatAttachment(_ context.Context, objectKey string) (*models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[objectKey] {
		return nil, apperr.NotFound("file", objectKey)
	}
	return &models.Attachment{
		Kind:      models.MediaImage,
		MimeType:  "image/jpeg",
		Size:      2048,
		ObjectKey: objectKey,
		URL:       "http://media.test/archive-media/" + objectKey,
	}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectKey)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

type testEnv struct {
	svc      *Service
	repo     *repository.Repository
	cfg      *config.Config
	storage  *fakeStorage
	notifier *recordingNotifier
	clock    time.Time
}

// newTestEnv wires the services over memory repositories and a fixed clock that
// advances one minute per call.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo: repository.NewMemoryRepository(),
		cfg: &config.Config{
			JWTSecretKey:        "test-secret",
			AccessTokenDuration: 2 * time.Hour,
			ExploreCacheTTL:     time.Minute,
		},
		storage:  &fakeStorage{},
		notifier: &recordingNotifier{},
		clock:    time.Date(2025, 11, 23, 10, 0, 0, 0, time.UTC),
	}

	var mu sync.Mutex
	restore := now
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		env.clock = env.clock.Add(time.Minute)
		return env.clock
	}
	t.Cleanup(func() { now = restore })

	env.svc = NewService(env.repo, env.cfg, env.storage, env.notifier, zaptest.NewLogger(t))
	return env
}

func (e *testEnv) createUser(t *testing.T, name string, role models.Role, verification models.VerificationStatus) *models.User {
	t.Helper()

	user := &models.User{
		DisplayName:        name,
		Email:              name + "@example.org",
		Role:               role,
		VerificationStatus: verification,
	}
	require.NoError(t, e.repo.User.CreateUser(context.Background(), user, "password123"))
	return user
}

func attachment(ownerID, name string) models.Attachment {
	return models.Attachment{
		Name:      name,
		Kind:      models.MediaImage,
		MimeType:  "image/jpeg",
		Size:      2048,
		ObjectKey: "submissions/" + ownerID + "/2025/11/" + name,
	}
}

func validDraft(ownerID, title string) wizard.Draft {
	return wizard.Draft{
		Title:            title,
		ShortDescription: "Family photograph from the harbour",
		Category:         models.CategoryPhotography,
		DateStart:        "1952",
		Location:         "Valletta",
		Tags:             []string{"harbour", "family"},
		PrivacyLevel:     models.PrivacyPublic,
		Files:            []models.Attachment{attachment(ownerID, title+".jpg")},
		AgreeToTerms:     true,
	}
}

// submitApproved puts one approved submission into the archive.
func (e *testEnv) submitApproved(t *testing.T, owner, admin *models.User, draft wizard.Draft) *models.Submission {
	t.Helper()
	ctx := context.Background()

	sub, err := e.svc.Submission.Submit(ctx, owner.UserID, draft)
	require.NoError(t, err)
	approved, err := e.svc.Moderation.Approve(ctx, sub.SubmissionID, admin.UserID)
	require.NoError(t, err)
	return approved
}
