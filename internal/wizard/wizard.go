// Package wizard accumulates a draft submission across the five upload steps.
//
// The wizard holds no rendering state: the step index and a Draft value object are
// everything a client needs to resume, and Submit hands the draft to the lifecycle.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"archivePortal/internal/apperr"
	"archivePortal/internal/lifecycle"
	"archivePortal/internal/models"
)

type Step int

const (
	StepMedia Step = iota + 1
	StepBasicInfo
	StepContext
	StepTagsPrivacy
	StepReview
)

const (
	FirstStep = StepMedia
	LastStep  = StepReview
)

var stepNames = map[Step]string{
	StepMedia:       "Media Upload",
	StepBasicInfo:   "Basic Information",
	StepContext:     "Context & Metadata",
	StepTagsPrivacy: "Tags & Privacy",
	StepReview:      "Review & Submit",
}

func (s Step) Name() string {
	return stepNames[s]
}

// ErrTooManyFiles is matched by the error AddFile returns once the draft holds the
// maximum number of files. That error is also a *apperr.ValidationError.
var ErrTooManyFiles = errors.New("too many files")

func tooManyFiles() error {
	return fmt.Errorf("%w: %w", ErrTooManyFiles,
		apperr.NewValidation("attachments", fmt.Sprintf("no more than %d files are allowed", lifecycle.MaxAttachments)))
}

// Draft is the value object passed between wizard steps.
type Draft struct {
	Title            string              `json:"title"`
	ShortDescription string              `json:"shortDescription"`
	Category         models.Category     `json:"category"`
	DateStart        string              `json:"dateStart"`
	DateEnd          string              `json:"dateEnd"`
	Location         string              `json:"location"`
	Coordinates      string              `json:"coordinates"`
	RelatedPersons   string              `json:"relatedPersons"`
	LongStory        string              `json:"longStory"`
	Tags             []string            `json:"tags"`
	PrivacyLevel     models.PrivacyLevel `json:"privacyLevel"`
	Files            []models.Attachment `json:"files"`
	AgreeToTerms     bool                `json:"agreeToTerms"`
}

type Wizard struct {
	step  Step
	draft Draft
}

func New() *Wizard {
	return &Wizard{
		step:  FirstStep,
		draft: Draft{PrivacyLevel: models.PrivacyPublic},
	}
}

// FromDraft rebuilds a wizard from a posted draft, applying the same tag and file rules
// as interactive editing.
func FromDraft(d Draft) (*Wizard, error) {
	w := New()
	w.SetBasicInfo(d.Title, d.ShortDescription, d.Category)
	w.SetContext(d.DateStart, d.DateEnd, d.Location, d.Coordinates, d.RelatedPersons, d.LongStory)
	if d.PrivacyLevel != "" {
		w.SetPrivacy(d.PrivacyLevel)
	}
	w.SetAgreeToTerms(d.AgreeToTerms)

	for _, tag := range d.Tags {
		w.AddTag(tag)
	}
	for _, f := range d.Files {
		if err := w.AddFile(f); err != nil {
			return nil, err
		}
	}
	w.GoToStep(int(LastStep))
	return w, nil
}

func (w *Wizard) Step() Step {
	return w.step
}

// GoToStep jumps to any step; no per-step validation gates navigation.
func (w *Wizard) GoToStep(n int) {
	w.step = clamp(Step(n))
}

func (w *Wizard) NextStep() {
	w.step = clamp(w.step + 1)
}

func (w *Wizard) PrevStep() {
	w.step = clamp(w.step - 1)
}

func clamp(s Step) Step {
	if s < FirstStep {
		return FirstStep
	}
	if s > LastStep {
		return LastStep
	}
	return s
}

// Draft returns a copy of the accumulated fields.
func (w *Wizard) Draft() Draft {
	d := w.draft
	d.Tags = append([]string(nil), w.draft.Tags...)
	d.Files = append([]models.Attachment(nil), w.draft.Files...)
	return d
}

func (w *Wizard) AddFile(f models.Attachment) error {
	if len(w.draft.Files) >= lifecycle.MaxAttachments {
		return tooManyFiles()
	}
	if f.Size <= 0 {
		return apperr.NewValidation("attachments", fmt.Sprintf("file %q is empty", f.Name))
	}
	f.Kind = models.KindFromMIME(f.MimeType)
	w.draft.Files = append(w.draft.Files, f)
	return nil
}

// RemoveFile drops the file at index i; out-of-range indexes are ignored.
func (w *Wizard) RemoveFile(i int) {
	if i < 0 || i >= len(w.draft.Files) {
		return
	}
	w.draft.Files = append(w.draft.Files[:i], w.draft.Files[i+1:]...)
}

// AddTag appends a trimmed tag, ignoring empty input and duplicates.
func (w *Wizard) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for _, existing := range w.draft.Tags {
		if existing == tag {
			return
		}
	}
	w.draft.Tags = append(w.draft.Tags, tag)
}

func (w *Wizard) RemoveTag(tag string) {
	for i, existing := range w.draft.Tags {
		if existing == tag {
			w.draft.Tags = append(w.draft.Tags[:i], w.draft.Tags[i+1:]...)
			return
		}
	}
}

func (w *Wizard) SetBasicInfo(title, shortDescription string, category models.Category) {
	w.draft.Title = title
	w.draft.ShortDescription = shortDescription
	w.draft.Category = category
}

func (w *Wizard) SetContext(dateStart, dateEnd, location, coordinates, relatedPersons, longStory string) {
	w.draft.DateStart = dateStart
	w.draft.DateEnd = dateEnd
	w.draft.Location = location
	w.draft.Coordinates = coordinates
	w.draft.RelatedPersons = relatedPersons
	w.draft.LongStory = longStory
}

func (w *Wizard) SetPrivacy(p models.PrivacyLevel) {
	w.draft.PrivacyLevel = p
}

func (w *Wizard) SetAgreeToTerms(agree bool) {
	w.draft.AgreeToTerms = agree
}

// Submit turns the draft into a pending submission owned by ownerID.
func (w *Wizard) Submit(ownerID string, now time.Time) (*models.Submission, error) {
	if ownerID == "" {
		return nil, errors.New("owner is required")
	}

	sub := &models.Submission{
		SubmissionID: uuid.New().String(),
		OwnerID:      ownerID,
		Status:       models.StatusDraft,
		CreatedAt:    now,
	}
	w.draft.ApplyTo(sub)

	if err := lifecycle.Submit(sub, w.draft.AgreeToTerms, now); err != nil {
		return nil, err
	}
	return sub, nil
}

// ApplyTo copies the draft's descriptive fields and files onto sub.
func (d Draft) ApplyTo(sub *models.Submission) {
	sub.Title = strings.TrimSpace(d.Title)
	sub.ShortDescription = strings.TrimSpace(d.ShortDescription)
	sub.LongStory = d.LongStory
	sub.Category = d.Category
	sub.DateStart = d.DateStart
	sub.DateEnd = d.DateEnd
	sub.Location = d.Location
	sub.Coordinates = d.Coordinates
	sub.RelatedPersons = d.RelatedPersons
	sub.Tags = append([]string(nil), d.Tags...)
	sub.PrivacyLevel = d.PrivacyLevel
	if sub.PrivacyLevel == "" {
		sub.PrivacyLevel = models.PrivacyPublic
	}

	sub.Attachments = make([]models.Attachment, 0, len(d.Files))
	for i, f := range d.Files {
		if f.AttachmentID == "" {
			f.AttachmentID = uuid.New().String()
		}
		f.SubmissionID = sub.SubmissionID
		f.Position = i
		sub.Attachments = append(sub.Attachments, f)
	}
}
