package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/auth"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Forgot(ctx context.Context, email string) error
	Reset(ctx context.Context, token, password string) error
	Setup(ctx context.Context, email, password string) (*models.AdminUser, error)
	NeedsSetup(ctx context.Context) (bool, error)
	ListUsers(ctx context.Context) ([]models.AdminUser, error)
	CreateUser(ctx context.Context, email, password string, role models.Role) (*models.AdminUser, error)
	SetRole(ctx context.Context, id string, role models.Role) (*models.AdminUser, error)
	DeleteUser(ctx context.Context, actorID, id string) error
}

type Handler struct {
	Service      Service
	Middleware   *auth.Middleware
	CookieSecure bool
	Logger       *logger.Logger
}

func NewHandler(service Service, mw *auth.Middleware, cookieSecure bool, log *logger.Logger) *Handler {
	return &Handler{Service: service, Middleware: mw, CookieSecure: cookieSecure, Logger: log}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func toUserResponse(u models.AdminUser) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	} else {
		c.Expires = expires
		c.MaxAge = int(time.Until(expires).Seconds())
	}
	http.SetCookie(w, c)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.WriteError(w, err)
		return
	}

	res, err := h.Service.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	h.setCookie(w, res.Token, res.ExpiresAt)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    toUserResponse(res.User),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.Middleware.Authenticate(r); err == nil {
		if err := h.Service.Logout(r.Context(), session.Claims); err != nil {
			h.Logger.Warn("AUTH", fmt.Sprintf("session revoke failed: %v", err))
		}
	}
	h.setCookie(w, "", time.Time{})
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := h.Middleware.Authenticate(r)
	if err != nil {
		if apperr.IsKind(err, apperr.Unauthorized) {
			h.setCookie(w, "", time.Time{})
		}
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(session.User)})
}

func (h *Handler) Forgot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.Forgot(r.Context(), body.Email); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "If that email exists, a reset link has been sent",
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.Reset(r.Context(), body.Token, body.Password); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Password has been reset"})
}

func (h *Handler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	needed, err := h.Service.NeedsSetup(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"needsSetup": needed})
}

func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.WriteError(w, err)
		return
	}
	if _, err := h.Service.Setup(r.Context(), creds.Email, creds.Password); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Admin user created"})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		credentials
		Role models.Role `json:"role"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}
	user, err := h.Service.CreateUser(r.Context(), body.Email, body.Password, body.Role)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role models.Role `json:"role"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteError(w, err)
		return
	}
	user, err := h.Service.SetRole(r.Context(), chi.URLParam(r, "id"), body.Role)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		utils.WriteError(w, apperr.Unauthorizedf("Not authenticated"))
		return
	}
	if err := h.Service.DeleteUser(r.Context(), session.User.ID, chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
