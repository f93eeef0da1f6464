package auth_test

import (
	"context"
	"testing"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/auth"
	"gala-ticketing/internal/auth/db"
	"gala-ticketing/internal/database/dbtest"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	to     []string
	tokens []string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, token string) bool {
	m.to = append(m.to, to)
	m.tokens = append(m.tokens, token)
	return true
}

func setupService(t *testing.T) (*auth.Service, *recordingMailer) {
	t.Helper()
	mailer := &recordingMailer{}
	svc := auth.NewService(
		&db.DB{Bun: dbtest.New(t)},
		auth.NewTokens("test-secret", time.Hour),
		auth.NewMemoryRevocations(),
		mailer,
		time.Hour,
		logger.Discard(),
	)
	return svc, mailer
}

func TestSetupOnlyOnce(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	needed, err := svc.NeedsSetup(ctx)
	require.NoError(t, err)
	assert.True(t, needed)

	_, err = svc.Setup(ctx, "chair@example.org", "short")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	user, err := svc.Setup(ctx, " Chair@Example.org ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "chair@example.org", user.Email)
	assert.Equal(t, models.RoleEdit, user.Role)

	_, err = svc.Setup(ctx, "other@example.org", "correct-horse")
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}

func TestLogin(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, "chair@example.org", "correct-horse")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "CHAIR@example.org", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotNil(t, res.User.LastLogin)

	claims, err := svc.Tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())
	assert.Equal(t, models.RoleEdit, claims.Role)

	_, err = svc.Login(ctx, "chair@example.org", "wrong-password")
	assert.Equal(t, "Invalid email or password", apperr.PublicMessage(err))

	_, err = svc.Login(ctx, "nobody@example.org", "correct-horse")
	assert.Equal(t, "Invalid email or password", apperr.PublicMessage(err))
}

func TestForgotAndReset(t *testing.T) {
	svc, mailer := setupService(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, "chair@example.org", "correct-horse")
	require.NoError(t, err)

	// unknown emails look the same to the caller
	require.NoError(t, svc.Forgot(ctx, "nobody@example.org"))
	assert.Empty(t, mailer.to)

	require.NoError(t, svc.Forgot(ctx, "chair@example.org"))
	require.Len(t, mailer.tokens, 1)
	token := mailer.tokens[0]

	assert.True(t, apperr.IsKind(svc.Reset(ctx, token, "short"), apperr.Validation))
	assert.Equal(t, "Invalid or expired reset token", apperr.PublicMessage(svc.Reset(ctx, "bogus", "new-password-1")))

	require.NoError(t, svc.Reset(ctx, token, "new-password-1"))
	_, err = svc.Login(ctx, "chair@example.org", "new-password-1")
	require.NoError(t, err)

	// tokens are single use
	assert.True(t, apperr.IsKind(svc.Reset(ctx, token, "another-pass"), apperr.Validation))
}

func TestUserManagementKeepsAnEditor(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	chair, err := svc.Setup(ctx, "chair@example.org", "correct-horse")
	require.NoError(t, err)

	viewer, err := svc.CreateUser(ctx, "volunteer@example.org", "volunteer-pw", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleView, viewer.Role)

	_, err = svc.CreateUser(ctx, "volunteer@example.org", "volunteer-pw", models.RoleView)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	_, err = svc.CreateUser(ctx, "x@example.org", "volunteer-pw", "owner")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, err = svc.SetRole(ctx, chair.ID, models.RoleView)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	assert.True(t, apperr.IsKind(svc.DeleteUser(ctx, chair.ID, chair.ID), apperr.Validation))
	assert.True(t, apperr.IsKind(svc.DeleteUser(ctx, viewer.ID, chair.ID), apperr.Conflict))

	promoted, err := svc.SetRole(ctx, viewer.ID, models.RoleEdit)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEdit, promoted.Role)

	require.NoError(t, svc.DeleteUser(ctx, viewer.ID, chair.ID))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "volunteer@example.org", users[0].Email)
}
