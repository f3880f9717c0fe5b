package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

// memorySubmissionRepository keeps submissions in process. Every read and write
// works on copies, and the status check in UpdateIfStatus happens under the same
// lock as the write.
type memorySubmissionRepository struct {
	mu      sync.Mutex
	items   map[string]*models.Submission
	history map[string][]models.StatusEvent
}

func NewMemorySubmissionRepository() SubmissionRepository {
	return &memorySubmissionRepository{
		items:   make(map[string]*models.Submission),
		history: make(map[string][]models.StatusEvent),
	}
}

func (r *memorySubmissionRepository) Get(_ context.Context, submissionID string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[submissionID]
	if !ok {
		return nil, apperr.NotFound("submission", submissionID)
	}
	return sub.Clone(), nil
}

func (r *memorySubmissionRepository) List(_ context.Context, filter SubmissionFilter) ([]*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Submission, 0)
	for _, sub := range r.items {
		if matchesSubmission(sub, filter) {
			out = append(out, sub.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.SubmittedAt != nil && b.SubmittedAt != nil && !a.SubmittedAt.Equal(*b.SubmittedAt):
			return a.SubmittedAt.After(*b.SubmittedAt)
		case a.SubmittedAt != nil && b.SubmittedAt == nil:
			return true
		case a.SubmittedAt == nil && b.SubmittedAt != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

func matchesSubmission(sub *models.Submission, filter SubmissionFilter) bool {
	if filter.OwnerID != "" && sub.OwnerID != filter.OwnerID {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, sub.Status) {
		return false
	}
	if filter.Category != "" && sub.Category != filter.Category {
		return false
	}
	if len(filter.PrivacyLevels) > 0 {
		found := false
		for _, p := range filter.PrivacyLevels {
			if p == sub.PrivacyLevel {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		haystack := strings.ToLower(sub.Title + "\n" + sub.ShortDescription + "\n" + sub.Location)
		if !strings.Contains(haystack, search) {
			return false
		}
	}
	return true
}

func containsStatus(statuses []models.Status, s models.Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (r *memorySubmissionRepository) Save(_ context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.New().String()
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	normalizeAttachments(sub, now)

	r.items[sub.SubmissionID] = sub.Clone()
	return nil
}

func (r *memorySubmissionRepository) UpdateIfStatus(_ context.Context, sub *models.Submission, expected models.Status, event *models.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[sub.SubmissionID]
	if !ok {
		return apperr.NotFound("submission", sub.SubmissionID)
	}
	if current.Status != expected {
		return &apperr.InvalidTransitionError{Resource: "submission", From: string(current.Status)}
	}

	now := time.Now()
	normalizeAttachments(sub, now)
	r.items[sub.SubmissionID] = sub.Clone()

	if event != nil {
		if event.EventID == "" {
			event.EventID = uuid.New().String()
		}
		r.history[sub.SubmissionID] = append(r.history[sub.SubmissionID], *event)
	}
	return nil
}

func normalizeAttachments(sub *models.Submission, now time.Time) {
	for i := range sub.Attachments {
		a := &sub.Attachments[i]
		if a.AttachmentID == "" {
			a.AttachmentID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.SubmissionID = sub.SubmissionID
		a.Position = i
	}
}

func (r *memorySubmissionRepository) Delete(_ context.Context, submissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[submissionID]; !ok {
		return apperr.NotFound("submission", submissionID)
	}
	delete(r.items, submissionID)
	delete(r.history, submissionID)
	return nil
}

func (r *memorySubmissionRepository) History(_ context.Context, submissionID string) ([]models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.StatusEvent(nil), r.history[submissionID]...), nil
}

type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]*models.User)}
}

func (r *memoryUserRepository) CreateUser(_ context.Context, user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperr.NewValidation("email", "is already registered")
		}
	}

	user.UserID = uuid.New().String()
	user.PasswordHash = string(hashedPassword)
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}
	if user.DefaultPrivacy == "" {
		user.DefaultPrivacy = models.PrivacyPublic
	}

	u := *user
	r.users[u.UserID] = &u
	return nil
}

func (r *memoryUserRepository) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	c := *u
	return &c, nil
}

func (r *memoryUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (r *memoryUserRepository) ListUsers(_ context.Context, filter UserFilter) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]*models.User, 0)
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.VerificationStatus != "" && u.VerificationStatus != filter.VerificationStatus {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.DisplayName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		c := *u
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	return out, nil
}

func (r *memoryUserRepository) UpdateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[user.UserID]
	if !ok {
		return apperr.NotFound("user", user.UserID)
	}
	for id, other := range r.users {
		if id != user.UserID && strings.EqualFold(other.Email, user.Email) {
			return apperr.NewValidation("email", "is already registered")
		}
	}
	// verification status belongs to the verification repository
	u.DisplayName = user.DisplayName
	u.Email = user.Email
	u.Role = user.Role
	u.Country = user.Country
	u.Affiliation = user.Affiliation
	u.Bio = user.Bio
	u.DefaultPrivacy = user.DefaultPrivacy
	u.Suspended = user.Suspended
	return nil
}

func (r *memoryUserRepository) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (r *memoryUserRepository) IncrementSubmissionCount(_ context.Context, userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("user", userID)
	}
	u.SubmissionCount += delta
	if u.SubmissionCount < 0 {
		u.SubmissionCount = 0
	}
	return nil
}

// memoryVerificationRepository keeps the users' verification status in step with
// their requests. Its lock is always taken before the user repository's.
type memoryVerificationRepository struct {
	mu       sync.Mutex
	requests map[string]*models.VerificationRequest
	users    *memoryUserRepository
}

// NewMemoryVerificationRepository needs the repository returned by NewMemoryUserRepository.
func NewMemoryVerificationRepository(users UserRepository) VerificationRepository {
	return &memoryVerificationRepository{
		requests: make(map[string]*models.VerificationRequest),
		users:    users.(*memoryUserRepository),
	}
}

func (r *memoryVerificationRepository) Create(_ context.Context, req *models.VerificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	user, ok := r.users.users[req.UserID]
	if !ok {
		return apperr.NotFound("user", req.UserID)
	}
	switch user.VerificationStatus {
	case models.VerificationUnderReview, models.VerificationVerified:
		return &apperr.InvalidTransitionError{Resource: "verification request", From: string(user.VerificationStatus), Event: "submit"}
	}
	user.VerificationStatus = models.VerificationUnderReview
	if user.Country == "" {
		user.Country = req.Country
	}

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}
	c := *req
	r.requests[c.RequestID] = &c
	return nil
}

func (r *memoryVerificationRepository) GetByID(_ context.Context, requestID string) (*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[requestID]
	if !ok {
		return nil, apperr.NotFound("verification request", requestID)
	}
	c := *req
	return &c, nil
}

func (r *memoryVerificationRepository) GetLatestByUser(_ context.Context, userID string) (*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *models.VerificationRequest
	for _, req := range r.requests {
		if req.UserID != userID {
			continue
		}
		if latest == nil || req.SubmittedAt.After(latest.SubmittedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("verification request", "")
	}
	c := *latest
	return &c, nil
}

func (r *memoryVerificationRepository) List(_ context.Context, status models.VerificationStatus) ([]*models.VerificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.VerificationRequest, 0)
	for _, req := range r.requests {
		if status != "" && req.Status != status {
			continue
		}
		c := *req
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (r *memoryVerificationRepository) UpdateIfStatus(_ context.Context, req *models.VerificationRequest, expected models.VerificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.requests[req.RequestID]
	if !ok {
		return apperr.NotFound("verification request", req.RequestID)
	}
	if current.Status != expected {
		return &apperr.InvalidTransitionError{Resource: "verification request", From: string(current.Status)}
	}
	current.Status = req.Status
	current.ReviewerID = req.ReviewerID
	current.RejectionReason = req.RejectionReason
	current.ReviewedAt = req.ReviewedAt

	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	if user, ok := r.users.users[current.UserID]; ok {
		user.VerificationStatus = current.Status
	}
	return nil
}
