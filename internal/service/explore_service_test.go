package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/session"
)

func titles(subs []*models.Submission) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Title)
	}
	return out
}

func TestExplore_Visibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "maria", models.RoleContributor, models.VerificationVerified)
	admin := env.createUser(t, "curator", models.RoleAdmin, models.VerificationVerified)
	verified := env.createUser(t, "historian", models.RoleContributor, models.VerificationVerified)
	visitor := env.createUser(t, "visitor", models.RoleVisitor, models.VerificationNotSubmitted)

	publicDraft := validDraft(owner.UserID, "Public")
	env.submitApproved(t, owner, admin, publicDraft)

	restrictedDraft := validDraft(owner.UserID, "Restricted")
	restrictedDraft.PrivacyLevel = models.PrivacyRestricted
	restricted := env.submitApproved(t, owner, admin, restrictedDraft)

	privateDraft := validDraft(owner.UserID, "Private")
	privateDraft.PrivacyLevel = models.PrivacyPrivate
	private := env.submitApproved(t, owner, admin, privateDraft)

	_, err := env.svc.Submission.Submit(ctx, owner.UserID, validDraft(owner.UserID, "Still pending"))
	require.NoError(t, err)

	identity := func(u *models.User) *session.Identity {
		return &session.Identity{UserID: u.UserID, Email: u.Email, Role: u.Role}
	}

	tests := []struct {
		name   string
		viewer *session.Identity
		want   []string
	}{
		{"anonymous", nil, []string{"Public"}},
		{"unverified visitor", identity(visitor), []string{"Public"}},
		{"verified contributor", identity(verified), []string{"Restricted", "Public"}},
		{"owner", identity(owner), []string{"Private", "Restricted", "Public"}},
		{"admin", identity(admin), []string{"Private", "Restricted", "Public"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, err := env.svc.Explore.List(ctx, tt.viewer, ExploreFilter{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(subs))
		})
	}

	_, err = env.svc.Explore.Get(ctx, nil, restricted.SubmissionID)
	assert.True(t, apperr.IsNotFound(err))
	got, err := env.svc.Explore.Get(ctx, identity(verified), restricted.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "Restricted", got.Title)

	_, err = env.svc.Explore.Get(ctx, identity(verified), private.SubmissionID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = env.svc.Explore.Get(ctx, identity(owner), private.SubmissionID)
	assert.NoError(t, err)
}

func TestExplore_FiltersAndCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "maria", models.RoleContributor, models.VerificationVerified)
	admin := env.createUser(t, "curator", models.RoleAdmin, models.VerificationVerified)

	env.submitApproved(t, owner, admin, validDraft(owner.UserID, "Harbour"))

	subs, err := env.svc.Explore.List(ctx, nil, ExploreFilter{Category: models.CategoryMap})
	require.NoError(t, err)
	assert.Empty(t, subs)

	subs, err = env.svc.Explore.List(ctx, nil, ExploreFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Harbour"}, titles(subs))

	// approving a second item must not leave the cached listing stale
	mapDraft := validDraft(owner.UserID, "Chart")
	mapDraft.Category = models.CategoryMap
	env.submitApproved(t, owner, admin, mapDraft)

	subs, err = env.svc.Explore.List(ctx, nil, ExploreFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chart", "Harbour"}, titles(subs))

	subs, err = env.svc.Explore.List(ctx, nil, ExploreFilter{Category: models.CategoryMap})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chart"}, titles(subs))

	subs, err = env.svc.Explore.List(ctx, nil, ExploreFilter{Search: "harb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Harbour"}, titles(subs))

	_, err = env.svc.Explore.List(ctx, nil, ExploreFilter{Category: "Furniture"})
	assert.True(t, apperr.IsValidation(err))
}
