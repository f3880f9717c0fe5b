package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

func TestAuth_RegisterLoginParse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Auth.Register(ctx, RegisterRequest{
		DisplayName: " Maria ",
		Email:       "Maria@Example.org",
		Password:    "password123",
		Country:     "Malta",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.org", user.Email)
	assert.Equal(t, "Maria", user.DisplayName)
	assert.Equal(t, models.RoleContributor, user.Role)
	assert.Equal(t, models.VerificationNotSubmitted, user.VerificationStatus)

	_, err = env.svc.Auth.Register(ctx, RegisterRequest{DisplayName: "Other", Email: "maria@example.org", Password: "password123"})
	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "email")

	loggedIn, token, err := env.svc.Auth.Login(ctx, "MARIA@example.org", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, loggedIn.UserID)
	require.NotEmpty(t, token)

	identity, err := env.svc.Auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, identity.UserID)
	assert.Equal(t, models.RoleContributor, identity.Role)

	me, err := env.svc.Auth.Me(ctx, identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", me.DisplayName)
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "maria", models.RoleContributor, models.VerificationNotSubmitted)

	_, _, err := env.svc.Auth.Login(ctx, user.Email, "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = env.svc.Auth.Login(ctx, "nobody@example.org", "password123")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	user.Suspended = true
	require.NoError(t, env.repo.User.UpdateUser(ctx, user))
	_, _, err = env.svc.Auth.Login(ctx, user.Email, "password123")
	assert.ErrorIs(t, err, ErrAccountSuspended)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAuth_ParseTokenRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "maria", models.RoleContributor, models.VerificationNotSubmitted)

	_, token, err := env.svc.Auth.Login(ctx, user.Email, "password123")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := env.svc.Auth.ParseToken("not-a-token")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("other secret", func(t *testing.T) {
		cfg := *env.cfg
		cfg.JWTSecretKey = "another-secret"
		other := NewAuthService(env.repo.User, &cfg)
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		env.clock = env.clock.Add(3 * time.Hour)
		_, err := env.svc.Auth.ParseToken(token)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}
