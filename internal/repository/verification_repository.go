package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

type verificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

type guardedVerification struct {
	models.VerificationRequest
	ExpectedStatus models.VerificationStatus `db:"expected_status"`
}

// Create stores a new request and moves its user to under-review in one
// transaction. A user who is already under review or verified cannot open another.
func (r *verificationRepository) Create(ctx context.Context, req *models.VerificationRequest) error {
	if !validID(req.UserID) {
		return apperr.NotFound("user", req.UserID)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET verification_status = $1, country = COALESCE(NULLIF(country, ''), $2)
		WHERE user_id = $3 AND verification_status NOT IN ($4, $5)`,
		string(models.VerificationUnderReview), req.Country, req.UserID,
		string(models.VerificationUnderReview), string(models.VerificationVerified))
	if err != nil {
		return fmt.Errorf("error updating user verification status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking updated rows: %w", err)
	}
	if rowsAffected == 0 {
		var current models.VerificationStatus
		err := tx.GetContext(ctx, &current, `SELECT verification_status FROM users WHERE user_id = $1`, req.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user", req.UserID)
		}
		if err != nil {
			return fmt.Errorf("error reading user verification status: %w", err)
		}
		return &apperr.InvalidTransitionError{Resource: "verification request", From: string(current), Event: "submit"}
	}

	query := `
		INSERT INTO verification_requests
		(request_id, user_id, full_name, date_of_birth, country, id_number, document_key, purpose,
		 status, reviewer_id, rejection_reason, submitted_at, reviewed_at)
		VALUES
		(:request_id, :user_id, :full_name, :date_of_birth, :country, :id_number, :document_key, :purpose,
		 :status, :reviewer_id, :rejection_reason, :submitted_at, :reviewed_at)
	`
	if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("error creating verification request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing verification request: %w", err)
	}
	return nil
}

func (r *verificationRepository) GetByID(ctx context.Context, requestID string) (*models.VerificationRequest, error) {
	if !validID(requestID) {
		return nil, apperr.NotFound("verification request", requestID)
	}
	var req models.VerificationRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM verification_requests WHERE request_id = $1`, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("verification request", requestID)
		}
		return nil, fmt.Errorf("error getting verification request: %w", err)
	}
	return &req, nil
}

func (r *verificationRepository) GetLatestByUser(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	if !validID(userID) {
		return nil, apperr.NotFound("verification request", "")
	}
	var req models.VerificationRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT * FROM verification_requests WHERE user_id = $1 ORDER BY submitted_at DESC LIMIT 1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("verification request", "")
		}
		return nil, fmt.Errorf("error getting verification request: %w", err)
	}
	return &req, nil
}

func (r *verificationRepository) List(ctx context.Context, status models.VerificationStatus) ([]*models.VerificationRequest, error) {
	var (
		reqs []*models.VerificationRequest
		err  error
	)
	if status == "" {
		err = r.db.SelectContext(ctx, &reqs, `SELECT * FROM verification_requests ORDER BY submitted_at`)
	} else {
		err = r.db.SelectContext(ctx, &reqs,
			`SELECT * FROM verification_requests WHERE status = $1 ORDER BY submitted_at`, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("error listing verification requests: %w", err)
	}
	return reqs, nil
}

// UpdateIfStatus writes the review only while the request still has the expected
// status, and copies the new status onto the requesting user in the same transaction.
func (r *verificationRepository) UpdateIfStatus(ctx context.Context, req *models.VerificationRequest, expected models.VerificationStatus) error {
	if !validID(req.RequestID) {
		return apperr.NotFound("verification request", req.RequestID)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE verification_requests
		SET status = :status, reviewer_id = :reviewer_id, rejection_reason = :rejection_reason, reviewed_at = :reviewed_at
		WHERE request_id = :request_id AND status = :expected_status
	`

	result, err := tx.NamedExecContext(ctx, query, guardedVerification{VerificationRequest: *req, ExpectedStatus: expected})
	if err != nil {
		return fmt.Errorf("error updating verification request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking updated rows: %w", err)
	}
	if rowsAffected == 0 {
		var current models.VerificationStatus
		err := tx.GetContext(ctx, &current, `SELECT status FROM verification_requests WHERE request_id = $1`, req.RequestID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("verification request", req.RequestID)
		}
		if err != nil {
			return fmt.Errorf("error reading verification status: %w", err)
		}
		return &apperr.InvalidTransitionError{Resource: "verification request", From: string(current)}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET verification_status = $1
		WHERE user_id = (SELECT user_id FROM verification_requests WHERE request_id = $2)`,
		string(req.Status), req.RequestID)
	if err != nil {
		return fmt.Errorf("error updating user verification status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing verification review: %w", err)
	}
	return nil
}
