// Package lifecycle defines the submission states and the guarded transitions between them.
//
// Every status change goes through Next, so a submission can only ever hold one of
// the values in models.Statuses. Persisting a transition is the repository's job and
// must be a compare-and-set on the status the transition started from.
package lifecycle

import (
	"strings"
	"time"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

type Event string

const (
	EventSubmit      Event = "submit"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventRequestInfo Event = "request-info"
	EventResubmit    Event = "resubmit"
)

// MaxAttachments is the upper bound of files per submission.
const MaxAttachments = 10

var Transitions = map[models.Status]map[Event]models.Status{
	models.StatusDraft: {
		EventSubmit: models.StatusPending,
	},
	models.StatusPending: {
		EventApprove:     models.StatusApproved,
		EventReject:      models.StatusRejected,
		EventRequestInfo: models.StatusNeedsInfo,
	},
	models.StatusNeedsInfo: {
		EventResubmit: models.StatusPending,
	},
}

// Next returns the status reached by applying ev in state from.
func Next(from models.Status, ev Event) (models.Status, error) {
	if to, ok := Transitions[from][ev]; ok {
		return to, nil
	}
	return "", &apperr.InvalidTransitionError{Resource: "submission", From: string(from), Event: string(ev)}
}

// Submit moves a draft to pending once its required content is complete.
func Submit(sub *models.Submission, agreeToTerms bool, now time.Time) error {
	to, err := Next(sub.Status, EventSubmit)
	if err != nil {
		return err
	}

	v := validateContent(sub)
	if !agreeToTerms {
		v.Add("agreeToTerms", "terms must be accepted")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	sub.Status = to
	sub.SubmittedAt = &now
	sub.UpdatedAt = now
	return nil
}

// Resubmit returns a needs-info submission to the queue. Moderation fields are
// cleared; the status history keeps the previous decision.
func Resubmit(sub *models.Submission, now time.Time) error {
	to, err := Next(sub.Status, EventResubmit)
	if err != nil {
		return err
	}
	if err := validateContent(sub).OrNil(); err != nil {
		return err
	}

	sub.Status = to
	sub.SubmittedAt = &now
	sub.ModeratedAt = nil
	sub.ModeratorID = ""
	sub.InfoRequest = ""
	sub.UpdatedAt = now
	return nil
}

func Approve(sub *models.Submission, moderatorID string, now time.Time) error {
	return moderate(sub, EventApprove, moderatorID, "", now)
}

func Reject(sub *models.Submission, moderatorID, reason string, now time.Time) error {
	return moderate(sub, EventReject, moderatorID, reason, now)
}

func RequestInfo(sub *models.Submission, moderatorID, message string, now time.Time) error {
	return moderate(sub, EventRequestInfo, moderatorID, message, now)
}

func moderate(sub *models.Submission, ev Event, moderatorID, text string, now time.Time) error {
	to, err := Next(sub.Status, ev)
	if err != nil {
		return err
	}

	v := &apperr.ValidationError{}
	if strings.TrimSpace(moderatorID) == "" {
		v.Add("moderator", "moderator identity is required")
	}
	switch ev {
	case EventReject:
		if IsBlank(text) {
			v.Add("reason", "rejection reason is required")
		}
	case EventRequestInfo:
		if IsBlank(text) {
			v.Add("message", "information request message is required")
		}
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	sub.Status = to
	sub.ModeratorID = moderatorID
	sub.ModeratedAt = &now
	sub.UpdatedAt = now
	switch ev {
	case EventReject:
		sub.RejectionReason = text
	case EventRequestInfo:
		sub.InfoRequest = text
	}
	return nil
}

// IsBlank treats whitespace-only text as empty.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
