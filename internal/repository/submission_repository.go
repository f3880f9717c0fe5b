package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

type submissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

const upsertSubmissionQuery = `
	INSERT INTO submissions
	(submission_id, owner_id, title, short_description, long_story, category, date_start, date_end,
	 location, coordinates, related_persons, tags, privacy_level, status, submitted_at, moderated_at,
	 moderator_id, rejection_reason, info_request, created_at, updated_at)
	VALUES
	(:submission_id, :owner_id, :title, :short_description, :long_story, :category, :date_start, :date_end,
	 :location, :coordinates, :related_persons, :tags, :privacy_level, :status, :submitted_at, :moderated_at,
	 :moderator_id, :rejection_reason, :info_request, :created_at, :updated_at)
	ON CONFLICT (submission_id) DO UPDATE SET
		title = EXCLUDED.title,
		short_description = EXCLUDED.short_description,
		long_story = EXCLUDED.long_story,
		category = EXCLUDED.category,
		date_start = EXCLUDED.date_start,
		date_end = EXCLUDED.date_end,
		location = EXCLUDED.location,
		coordinates = EXCLUDED.coordinates,
		related_persons = EXCLUDED.related_persons,
		tags = EXCLUDED.tags,
		privacy_level = EXCLUDED.privacy_level,
		status = EXCLUDED.status,
		submitted_at = EXCLUDED.submitted_at,
		moderated_at = EXCLUDED.moderated_at,
		moderator_id = EXCLUDED.moderator_id,
		rejection_reason = EXCLUDED.rejection_reason,
		info_request = EXCLUDED.info_request,
		updated_at = EXCLUDED.updated_at
`

const updateIfStatusQuery = `
	UPDATE submissions SET
		title = :title,
		short_description = :short_description,
		long_story = :long_story,
		category = :category,
		date_start = :date_start,
		date_end = :date_end,
		location = :location,
		coordinates = :coordinates,
		related_persons = :related_persons,
		tags = :tags,
		privacy_level = :privacy_level,
		status = :status,
		submitted_at = :submitted_at,
		moderated_at = :moderated_at,
		moderator_id = :moderator_id,
		rejection_reason = :rejection_reason,
		info_request = :info_request,
		updated_at = :updated_at
	WHERE submission_id = :submission_id AND status = :expected_status
`

const insertAttachmentQuery = `
	INSERT INTO attachments
	(attachment_id, submission_id, position, name, kind, mime_type, size, object_key, url, created_at)
	VALUES
	(:attachment_id, :submission_id, :position, :name, :kind, :mime_type, :size, :object_key, :url, :created_at)
`

const insertStatusEventQuery = `
	INSERT INTO submission_status_events
	(event_id, submission_id, from_status, to_status, actor_id, note, created_at)
	VALUES
	(:event_id, :submission_id, :from_status, :to_status, :actor_id, :note, :created_at)
`

type guardedSubmission struct {
	models.Submission
	ExpectedStatus models.Status `db:"expected_status"`
}

func (r *submissionRepository) Get(ctx context.Context, submissionID string) (*models.Submission, error) {
	if !validID(submissionID) {
		return nil, apperr.NotFound("submission", submissionID)
	}
	var sub models.Submission
	err := r.db.GetContext(ctx, &sub, `SELECT * FROM submissions WHERE submission_id = $1`, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("submission", submissionID)
		}
		return nil, fmt.Errorf("error getting submission: %w", err)
	}

	var attachments []models.Attachment
	err = r.db.SelectContext(ctx, &attachments,
		`SELECT * FROM attachments WHERE submission_id = $1 ORDER BY position`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("error getting attachments: %w", err)
	}
	sub.Attachments = attachments

	return &sub, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]*models.Submission, error) {
	query, args := buildListQuery(filter)

	var subs []*models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	if len(subs) == 0 {
		return subs, nil
	}

	ids := make([]string, 0, len(subs))
	byID := make(map[string]*models.Submission, len(subs))
	for _, s := range subs {
		ids = append(ids, s.SubmissionID)
		byID[s.SubmissionID] = s
	}

	var attachments []models.Attachment
	err := r.db.SelectContext(ctx, &attachments,
		`SELECT * FROM attachments WHERE submission_id = ANY($1) ORDER BY submission_id, position`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error getting attachments: %w", err)
	}
	for _, a := range attachments {
		if s, ok := byID[a.SubmissionID]; ok {
			s.Attachments = append(s.Attachments, a)
		}
	}

	return subs, nil
}

func buildListQuery(filter SubmissionFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = "+arg(filter.OwnerID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, "status = ANY("+arg(pq.Array(statuses))+")")
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(string(filter.Category)))
	}
	if len(filter.PrivacyLevels) > 0 {
		levels := make([]string, len(filter.PrivacyLevels))
		for i, p := range filter.PrivacyLevels {
			levels[i] = string(p)
		}
		conditions = append(conditions, "privacy_level = ANY("+arg(pq.Array(levels))+")")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		p := arg("%" + search + "%")
		conditions = append(conditions,
			"(title ILIKE "+p+" OR short_description ILIKE "+p+" OR location ILIKE "+p+")")
	}

	query := "SELECT * FROM submissions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY submitted_at DESC NULLS LAST, created_at DESC"

	return query, args
}

func (r *submissionRepository) Save(ctx context.Context, sub *models.Submission) error {
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.New().String()
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, upsertSubmissionQuery, sub); err != nil {
		return fmt.Errorf("error saving submission: %w", err)
	}
	if err := replaceAttachments(ctx, tx, sub); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) UpdateIfStatus(ctx context.Context, sub *models.Submission, expected models.Status, event *models.StatusEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.NamedExecContext(ctx, updateIfStatusQuery, guardedSubmission{Submission: *sub, ExpectedStatus: expected})
	if err != nil {
		return fmt.Errorf("error updating submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking updated rows: %w", err)
	}
	if rowsAffected == 0 {
		// someone else moved the submission first, or it never existed
		var current models.Status
		err := tx.GetContext(ctx, &current, `SELECT status FROM submissions WHERE submission_id = $1`, sub.SubmissionID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("submission", sub.SubmissionID)
		}
		if err != nil {
			return fmt.Errorf("error reading submission status: %w", err)
		}
		return &apperr.InvalidTransitionError{Resource: "submission", From: string(current)}
	}

	if err := replaceAttachments(ctx, tx, sub); err != nil {
		return err
	}

	if event != nil {
		if event.EventID == "" {
			event.EventID = uuid.New().String()
		}
		if _, err := tx.NamedExecContext(ctx, insertStatusEventQuery, event); err != nil {
			return fmt.Errorf("error recording status event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing submission: %w", err)
	}
	return nil
}

func replaceAttachments(ctx context.Context, tx *sqlx.Tx, sub *models.Submission) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE submission_id = $1`, sub.SubmissionID); err != nil {
		return fmt.Errorf("error clearing attachments: %w", err)
	}

	for i := range sub.Attachments {
		a := &sub.Attachments[i]
		if a.AttachmentID == "" {
			a.AttachmentID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		a.SubmissionID = sub.SubmissionID
		a.Position = i

		if _, err := tx.NamedExecContext(ctx, insertAttachmentQuery, a); err != nil {
			return fmt.Errorf("error saving attachment: %w", err)
		}
	}
	return nil
}

func (r *submissionRepository) Delete(ctx context.Context, submissionID string) error {
	if !validID(submissionID) {
		return apperr.NotFound("submission", submissionID)
	}
	// attachments and status events go with it (ON DELETE CASCADE)
	result, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE submission_id = $1`, submissionID)
	if err != nil {
		return fmt.Errorf("error deleting submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted rows: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("submission", submissionID)
	}
	return nil
}

func (r *submissionRepository) History(ctx context.Context, submissionID string) ([]models.StatusEvent, error) {
	if !validID(submissionID) {
		return nil, apperr.NotFound("submission", submissionID)
	}
	var events []models.StatusEvent
	err := r.db.SelectContext(ctx, &events,
		`SELECT * FROM submission_status_events WHERE submission_id = $1 ORDER BY created_at`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("error getting status history: %w", err)
	}
	return events, nil
}
