package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

const (
	subID     = "6f1c2a5e-3b8d-4c1e-9a7f-2d4b6e8a0c13"
	missingID = "0b7d9e21-5c4a-4f6b-8e3d-1a2c3b4d5e6f"
)

var (
	submissionColumns = []string{
		"submission_id", "owner_id", "title", "short_description", "category", "tags",
		"privacy_level", "status", "submitted_at", "created_at", "updated_at",
	}
	attachmentColumns = []string{
		"attachment_id", "submission_id", "position", "name", "kind", "mime_type", "size", "object_key", "url", "created_at",
	}
)

func newSubmissionRepo(t *testing.T) (SubmissionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSubmissionRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSubmissionRepository_Get(t *testing.T) {
	repo, mock := newSubmissionRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("loads attachments in order", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM submissions WHERE submission_id = \$1`).
			WithArgs(subID).
			WillReturnRows(sqlmock.NewRows(submissionColumns).
				AddRow(subID, "u1", "Victorian Family Portrait", "A portrait", "Photography", "{victorian,family}",
					"public", "pending", now, now, now))
		mock.ExpectQuery(`SELECT \* FROM attachments WHERE submission_id = \$1 ORDER BY position`).
			WithArgs(subID).
			WillReturnRows(sqlmock.NewRows(attachmentColumns).
				AddRow("a1", subID, 0, "portrait.jpg", "image", "image/jpeg", 102400, "k1", "http://x/k1", now).
				AddRow("a2", subID, 1, "back.jpg", "image", "image/jpeg", 2048, "k2", "http://x/k2", now))

		sub, err := repo.Get(ctx, subID)

		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, sub.Status)
		assert.Equal(t, models.CategoryPhotography, sub.Category)
		assert.Equal(t, pq.StringArray{"victorian", "family"}, sub.Tags)
		require.Len(t, sub.Attachments, 2)
		assert.Equal(t, "back.jpg", sub.Attachments[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM submissions WHERE submission_id = \$1`).
			WithArgs(missingID).
			WillReturnRows(sqlmock.NewRows(submissionColumns))

		sub, err := repo.Get(ctx, missingID)

		assert.Nil(t, sub)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestSubmissionRepository_MalformedIDIsNotFound(t *testing.T) {
	repo, mock := newSubmissionRepo(t)
	ctx := context.Background()

	sub, err := repo.Get(ctx, "nope")
	assert.Nil(t, sub)
	assert.True(t, apperr.IsNotFound(err))

	assert.True(t, apperr.IsNotFound(repo.Delete(ctx, "nope")))

	_, err = repo.History(ctx, "../1")
	assert.True(t, apperr.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet(), "malformed ids never reach the database")
}

func TestSubmissionRepository_UpdateIfStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	approved := func() *models.Submission {
		return &models.Submission{
			SubmissionID: subID,
			OwnerID:      "u1",
			Title:        "Test",
			Status:       models.StatusApproved,
			ModeratorID:  "admin-1",
			ModeratedAt:  &now,
			Attachments:  []models.Attachment{{Name: "photo.jpg", MimeType: "image/jpeg", Kind: models.MediaImage}},
		}
	}

	t.Run("status matches", func(t *testing.T) {
		repo, mock := newSubmissionRepo(t)
		sub := approved()
		event := &models.StatusEvent{
			SubmissionID: subID,
			FromStatus:   models.StatusPending,
			ToStatus:     models.StatusApproved,
			ActorID:      "admin-1",
			CreatedAt:    now,
		}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE submissions SET .* WHERE submission_id = \? AND status = \?`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM attachments WHERE submission_id = \$1`).
			WithArgs(subID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO attachments`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO submission_status_events`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.UpdateIfStatus(ctx, sub, models.StatusPending, event)

		require.NoError(t, err)
		assert.NotEmpty(t, event.EventID)
		assert.NotEmpty(t, sub.Attachments[0].AttachmentID)
		assert.Equal(t, subID, sub.Attachments[0].SubmissionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else reviewed it first", func(t *testing.T) {
		repo, mock := newSubmissionRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE submissions SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM submissions WHERE submission_id = \$1`).
			WithArgs(subID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("rejected"))
		mock.ExpectRollback()

		err := repo.UpdateIfStatus(ctx, approved(), models.StatusPending, nil)

		var transition *apperr.InvalidTransitionError
		require.ErrorAs(t, err, &transition)
		assert.Equal(t, "rejected", transition.From)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing submission", func(t *testing.T) {
		repo, mock := newSubmissionRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE submissions SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT status FROM submissions`).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectRollback()

		err := repo.UpdateIfStatus(ctx, approved(), models.StatusPending, nil)

		assert.True(t, apperr.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error rolls back", func(t *testing.T) {
		repo, mock := newSubmissionRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE submissions SET`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.UpdateIfStatus(ctx, approved(), models.StatusPending, nil)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error updating submission")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubmissionRepository_Save(t *testing.T) {
	repo, mock := newSubmissionRepo(t)
	sub := &models.Submission{
		OwnerID: "u1",
		Title:   "Draft",
		Status:  models.StatusPending,
		Attachments: []models.Attachment{
			{Name: "a.jpg"},
			{Name: "b.mp3"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO submissions .* ON CONFLICT \(submission_id\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM attachments`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO attachments`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO attachments`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), sub))

	assert.NotEmpty(t, sub.SubmissionID)
	assert.False(t, sub.CreatedAt.IsZero())
	assert.Equal(t, 1, sub.Attachments[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_Delete(t *testing.T) {
	repo, mock := newSubmissionRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM submissions WHERE submission_id = \$1`).
		WithArgs(subID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(ctx, subID))

	mock.ExpectExec(`DELETE FROM submissions WHERE submission_id = \$1`).
		WithArgs(subID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, apperr.IsNotFound(repo.Delete(ctx, subID)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_History(t *testing.T) {
	repo, mock := newSubmissionRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM submission_status_events WHERE submission_id = \$1 ORDER BY created_at`).
		WithArgs(subID).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "submission_id", "from_status", "to_status", "actor_id", "note", "created_at"}).
			AddRow("e1", subID, "draft", "pending", "u1", "", now).
			AddRow("e2", subID, "pending", "needs-info", "admin-1", "Need the date", now))

	events, err := repo.History(context.Background(), subID)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.StatusNeedsInfo, events[1].ToStatus)
	assert.Equal(t, "Need the date", events[1].Note)
}

func TestBuildListQuery(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		query, args := buildListQuery(SubmissionFilter{})
		assert.Equal(t, "SELECT * FROM submissions ORDER BY submitted_at DESC NULLS LAST, created_at DESC", query)
		assert.Empty(t, args)
	})

	t.Run("all filters", func(t *testing.T) {
		query, args := buildListQuery(SubmissionFilter{
			OwnerID:       "u1",
			Statuses:      []models.Status{models.StatusPending, models.StatusNeedsInfo},
			Category:      models.CategoryMap,
			PrivacyLevels: []models.PrivacyLevel{models.PrivacyPublic},
			Search:        " london ",
		})

		assert.Equal(t,
			"SELECT * FROM submissions WHERE owner_id = $1 AND status = ANY($2) AND category = $3"+
				" AND privacy_level = ANY($4) AND (title ILIKE $5 OR short_description ILIKE $5 OR location ILIKE $5)"+
				" ORDER BY submitted_at DESC NULLS LAST, created_at DESC",
			query)
		require.Len(t, args, 5)
		assert.Equal(t, "u1", args[0])
		assert.Equal(t, "Map", args[2])
		assert.Equal(t, "%london%", args[4])
	})
}
