package models

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
)

type User struct {
	UserID             string             `json:"userId" db:"user_id"`
	DisplayName        string             `json:"displayName" db:"display_name"`
	Email              string             `json:"email" db:"email"`
	PasswordHash       string             `json:"-" db:"password_hash"`
	Role               Role               `json:"role" db:"role"`
	VerificationStatus VerificationStatus `json:"verificationStatus" db:"verification_status"`
	Country            string             `json:"country" db:"country"`
	Affiliation        string             `json:"affiliation" db:"affiliation"`
	Bio                string             `json:"bio" db:"bio"`
	// DefaultPrivacy applies to uploads that do not choose a privacy level.
	DefaultPrivacy  PrivacyLevel `json:"defaultPrivacy" db:"default_privacy"`
	SubmissionCount    int                `json:"submissionCount" db:"submission_count"`
	Suspended          bool               `json:"suspended" db:"suspended"`
	JoinedAt           time.Time          `json:"joinedAt" db:"joined_at"`
}

// IsVerified reports whether the user passed identity verification.
func (u *User) IsVerified() bool {
	return u.VerificationStatus == VerificationVerified
}

type Attachment struct {
	AttachmentID string    `json:"attachmentId" db:"attachment_id"`
	SubmissionID string    `json:"submissionId,omitempty" db:"submission_id"`
	Position     int       `json:"position" db:"position"`
	Name         string    `json:"name" db:"name"`
	Kind         MediaKind `json:"kind" db:"kind"`
	MimeType     string    `json:"mimeType" db:"mime_type"`
	Size         int64     `json:"size" db:"size"`
	ObjectKey    string    `json:"objectKey" db:"object_key"`
	URL          string    `json:"url" db:"url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (a Attachment) HumanSize() string {
	if a.Size < 0 {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(a.Size))
}

type Submission struct {
	SubmissionID     string         `json:"submissionId" db:"submission_id"`
	OwnerID          string         `json:"ownerId" db:"owner_id"`
	Title            string         `json:"title" db:"title"`
	ShortDescription string         `json:"shortDescription" db:"short_description"`
	LongStory        string         `json:"longStory" db:"long_story"`
	Category         Category       `json:"category" db:"category"`
	DateStart        string         `json:"dateStart" db:"date_start"`
	DateEnd          string         `json:"dateEnd" db:"date_end"`
	Location         string         `json:"location" db:"location"`
	Coordinates      string         `json:"coordinates" db:"coordinates"`
	RelatedPersons   string         `json:"relatedPersons" db:"related_persons"`
	Tags             pq.StringArray `json:"tags" db:"tags"`
	PrivacyLevel     PrivacyLevel   `json:"privacyLevel" db:"privacy_level"`
	Status           Status         `json:"status" db:"status"`
	SubmittedAt      *time.Time     `json:"submittedAt,omitempty" db:"submitted_at"`
	ModeratedAt      *time.Time     `json:"moderatedAt,omitempty" db:"moderated_at"`
	ModeratorID      string         `json:"moderatorId,omitempty" db:"moderator_id"`
	RejectionReason  string         `json:"rejectionReason,omitempty" db:"rejection_reason"`
	InfoRequest      string         `json:"infoRequest,omitempty" db:"info_request"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time      `json:"updatedAt" db:"updated_at"`
	Attachments      []Attachment   `json:"attachments" db:"-"`
}

// DateLabel renders the free-text date or date range.
func (s *Submission) DateLabel() string {
	switch {
	case s.DateStart != "" && s.DateEnd != "":
		return s.DateStart + " - " + s.DateEnd
	case s.DateStart != "":
		return s.DateStart
	default:
		return s.DateEnd
	}
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	if s.Tags != nil {
		c.Tags = append(pq.StringArray(nil), s.Tags...)
	}
	if s.Attachments != nil {
		c.Attachments = append([]Attachment(nil), s.Attachments...)
	}
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		c.SubmittedAt = &t
	}
	if s.ModeratedAt != nil {
		t := *s.ModeratedAt
		c.ModeratedAt = &t
	}
	return &c
}

// StatusEvent is one row of the moderation audit trail.
type StatusEvent struct {
	EventID      string    `json:"eventId" db:"event_id"`
	SubmissionID string    `json:"submissionId" db:"submission_id"`
	FromStatus   Status    `json:"fromStatus" db:"from_status"`
	ToStatus     Status    `json:"toStatus" db:"to_status"`
	ActorID      string    `json:"actorId" db:"actor_id"`
	Note         string    `json:"note" db:"note"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type VerificationRequest struct {
	RequestID       string             `json:"requestId" db:"request_id"`
	UserID          string             `json:"userId" db:"user_id"`
	FullName        string             `json:"fullName" db:"full_name"`
	DateOfBirth     string             `json:"dateOfBirth" db:"date_of_birth"`
	Country         string             `json:"country" db:"country"`
	IDNumber        string             `json:"idNumber" db:"id_number"`
	DocumentKey     string             `json:"documentKey" db:"document_key"`
	Purpose         string             `json:"purpose" db:"purpose"`
	Status          VerificationStatus `json:"status" db:"status"`
	ReviewerID      string             `json:"reviewerId,omitempty" db:"reviewer_id"`
	RejectionReason string             `json:"rejectionReason,omitempty" db:"rejection_reason"`
	SubmittedAt     time.Time          `json:"submittedAt" db:"submitted_at"`
	ReviewedAt      *time.Time         `json:"reviewedAt,omitempty" db:"reviewed_at"`
}

type ContributorStats struct {
	Total     int `json:"total"`
	Approved  int `json:"approved"`
	Pending   int `json:"pending"`
	Rejected  int `json:"rejected"`
	NeedsInfo int `json:"needsInfo"`
}
