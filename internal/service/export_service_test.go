package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

func TestParseFields(t *testing.T) {
	got := ParseFields(" Title, tags,,description ,")
	if diff := cmp.Diff([]string{"title", "tags", "description"}, got); diff != "" {
		t.Errorf("ParseFields mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, ParseFields(""))
}

func seedExport(t *testing.T) (*testEnv, *models.Submission) {
	t.Helper()
	env := newTestEnv(t)
	owner := env.createUser(t, "maria", models.RoleContributor, models.VerificationVerified)
	admin := env.createUser(t, "curator", models.RoleAdmin, models.VerificationVerified)

	draft := validDraft(owner.UserID, "Harbour")
	draft.DateEnd = "1955"
	draft.RelatedPersons = "Giuseppe Borg"
	sub := env.submitApproved(t, owner, admin, draft)

	_, err := env.svc.Submission.Submit(context.Background(), owner.UserID, validDraft(owner.UserID, "Pending"))
	require.NoError(t, err)
	return env, sub
}

func TestExport_JSON(t *testing.T) {
	env, sub := seedExport(t)

	var buf bytes.Buffer
	n, err := env.svc.Export.Export(context.Background(), &buf, FormatJSON,
		[]string{"title", "date", "tags", "contributor", "title", "metadata"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))

	want := []map[string]any{{
		"title":       "Harbour",
		"date":        "1952 - 1955",
		"tags":        []any{"harbour", "family"},
		"contributor": "maria",
		"metadata": map[string]any{
			"id":             sub.SubmissionID,
			"privacyLevel":   "public",
			"relatedPersons": "Giuseppe Borg",
			"attachments":    float64(1),
			"submittedAt":    sub.SubmittedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
	}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("json export mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_CSV(t *testing.T) {
	env, _ := seedExport(t)

	var buf bytes.Buffer
	n, err := env.svc.Export.Export(context.Background(), &buf, FormatCSV,
		[]string{"title", "category", "location", "tags", "description"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	want := [][]string{
		{"title", "category", "location", "tags", "description"},
		{"Harbour", "Photography", "Valletta", "harbour;family", "Family photograph from the harbour"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv export mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_EmptyArchive(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	n, err := env.svc.Export.Export(context.Background(), &buf, FormatJSON, []string{"title"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.JSONEq(t, "[]", buf.String())
}

func TestExport_RejectsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		format    ExportFormat
		fields    []string
		wantField string
	}{
		{"unknown format", "xml", []string{"title"}, "format"},
		{"no fields", FormatCSV, nil, "fields"},
		{"unknown field", FormatJSON, []string{"title", "owner_email"}, "fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := env.svc.Export.Export(context.Background(), &buf, tt.format, tt.fields)

			var v *apperr.ValidationError
			require.ErrorAs(t, err, &v)
			assert.Contains(t, v.Fields, tt.wantField)
			assert.Zero(t, buf.Len())
		})
	}
}
