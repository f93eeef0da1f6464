package auth

import (
	"context"
	"fmt"
	"net/http"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

type contextKey string

const sessionKey contextKey = "admin_session"

// Session is the signed-in admin attached to a request.
type Session struct {
	User   models.AdminUser
	Claims *Claims
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.AdminUser, error)
}

type Middleware struct {
	Tokens      *Tokens
	Revocations Revocations
	Users       UserLookup
	Logger      *logger.Logger
}

// Authenticate resolves the request's session. The role comes from the
// stored user, not the token, so role changes apply at once.
func (m *Middleware) Authenticate(r *http.Request) (*Session, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return nil, apperr.Unauthorizedf("Not authenticated")
	}
	claims, err := m.Tokens.Parse(raw)
	if err != nil {
		m.Logger.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		return nil, apperr.Unauthorizedf("Invalid token")
	}

	revoked, err := m.Revocations.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthorizedf("Session has ended")
	}

	user, err := m.Users.GetByID(r.Context(), claims.UserID())
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.Unauthorizedf("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &Session{User: *user, Claims: claims}, nil
}

func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Authenticate(r)
		if err != nil {
			if !apperr.IsKind(err, apperr.Unauthorized) {
				m.Logger.Error("AUTH", fmt.Sprintf("session lookup failed: %v", err))
			}
			utils.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireEdit must run after RequireSession.
func (m *Middleware) RequireEdit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFrom(r.Context())
		if session == nil {
			utils.WriteError(w, apperr.Unauthorizedf("Not authenticated"))
			return
		}
		if !session.User.Role.CanEdit() {
			m.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("%s %s by view user %s", r.Method, r.URL.Path, session.User.Email))
			utils.WriteError(w, apperr.Forbiddenf("Edit access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}
