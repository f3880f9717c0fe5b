package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
)

func TestUserService_Roles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "curator", models.RoleAdmin, models.VerificationVerified)
	user := env.createUser(t, "maria", models.RoleContributor, models.VerificationVerified)

	promoted, err := env.svc.User.Promote(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	admins, err := env.svc.User.List(ctx, repository.UserFilter{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = env.svc.User.Demote(ctx, admin.UserID, admin.UserID)
	assert.True(t, apperr.IsValidation(err))

	demoted, err := env.svc.User.Demote(ctx, admin.UserID, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleContributor, demoted.Role)

	_, err = env.svc.User.Demote(ctx, admin.UserID, user.UserID)
	assert.True(t, apperr.IsValidation(err))
}

func TestUserService_Suspend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "curator", models.RoleAdmin, models.VerificationVerified)
	user := env.createUser(t, "spammer", models.RoleContributor, models.VerificationNotSubmitted)

	_, err := env.svc.User.Suspend(ctx, admin.UserID, admin.UserID)
	assert.True(t, apperr.IsValidation(err))

	suspended, err := env.svc.User.Suspend(ctx, admin.UserID, user.UserID)
	require.NoError(t, err)
	assert.True(t, suspended.Suspended)

	_, err = env.svc.User.Promote(ctx, user.UserID)
	assert.True(t, apperr.IsValidation(err))

	_, err = env.svc.User.Get(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))

	_, err = env.svc.User.List(ctx, repository.UserFilter{Role: "superuser"})
	assert.True(t, apperr.IsValidation(err))
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "maria", models.RoleContributor, models.VerificationVerified)
	env.createUser(t, "joseph", models.RoleContributor, models.VerificationNotSubmitted)

	updated, err := env.svc.User.UpdateProfile(ctx, user.UserID, ProfileUpdate{
		DisplayName:    "  Maria Borg ",
		Email:          "Maria.Borg@Example.org",
		Country:        "Malta",
		Affiliation:    "Heritage Society",
		Bio:            "Collects harbour photographs.",
		DefaultPrivacy: models.PrivacyRestricted,
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Borg", updated.DisplayName)
	assert.Equal(t, "maria.borg@example.org", updated.Email)
	assert.Equal(t, models.PrivacyRestricted, updated.DefaultPrivacy)
	assert.Equal(t, models.VerificationVerified, updated.VerificationStatus)

	stored, err := env.svc.User.Get(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Heritage Society", stored.Affiliation)

	t.Run("email taken", func(t *testing.T) {
		_, err := env.svc.User.UpdateProfile(ctx, user.UserID, ProfileUpdate{
			DisplayName: "Maria",
			Email:       "joseph@example.org",
		})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("unknown privacy", func(t *testing.T) {
		_, err := env.svc.User.UpdateProfile(ctx, user.UserID, ProfileUpdate{
			DisplayName:    "Maria",
			Email:          "maria.borg@example.org",
			DefaultPrivacy: "secret",
		})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := env.svc.User.UpdateProfile(ctx, user.UserID, ProfileUpdate{
			DisplayName: "   ",
			Email:       "maria.borg@example.org",
		})
		assert.True(t, apperr.IsValidation(err))
	})
}
