package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/auth"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUsers map[string]*models.AdminUser

func (s staticUsers) GetByID(_ context.Context, id string) (*models.AdminUser, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFoundf("User not found")
}

func newMiddleware(users staticUsers, rev auth.Revocations) *auth.Middleware {
	return &auth.Middleware{
		Tokens:      auth.NewTokens("test-secret", time.Hour),
		Revocations: rev,
		Users:       users,
		Logger:      logger.Discard(),
	}
}

func protected(mw *auth.Middleware) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.SessionFrom(r.Context())
		w.Write([]byte(s.User.Email))
	})
	return mw.RequireSession(mw.RequireEdit(ok))
}

func TestRequireSessionAndEdit(t *testing.T) {
	users := staticUsers{
		"u1": {ID: "u1", Email: "chair@example.org", Role: models.RoleEdit},
		"u2": {ID: "u2", Email: "volunteer@example.org", Role: models.RoleView},
	}
	mw := newMiddleware(users, auth.NewMemoryRevocations())
	h := protected(mw)

	editToken, _, err := mw.Tokens.Issue(users["u1"])
	require.NoError(t, err)
	viewToken, _, err := mw.Tokens.Issue(users["u2"])
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: editToken})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chair@example.org", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+viewToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+editToken+"x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleChangeAppliesToExistingSession(t *testing.T) {
	user := &models.AdminUser{ID: "u1", Email: "chair@example.org", Role: models.RoleEdit}
	mw := newMiddleware(staticUsers{"u1": user}, auth.NewMemoryRevocations())

	token, _, err := mw.Tokens.Issue(user)
	require.NoError(t, err)
	user.Role = models.RoleView

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	protected(mw).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRedisRevocationEndsSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	user := &models.AdminUser{ID: "u1", Email: "chair@example.org", Role: models.RoleEdit}
	rev := auth.NewRedisRevocations(client)
	mw := newMiddleware(staticUsers{"u1": user}, rev)

	token, claims, err := mw.Tokens.Issue(user)
	require.NoError(t, err)
	require.NoError(t, rev.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.True(t, mr.Exists(auth.RevokedKeyPrefix+claims.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	protected(mw).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mr.FastForward(2 * time.Hour)
	revoked, err := rev.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}
