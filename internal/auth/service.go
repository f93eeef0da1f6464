// Package auth holds admin accounts, their sessions and the role checks
// the back office routes sit behind.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"
)

type DBLayer interface {
	UserLookup
	Count(ctx context.Context) (int, error)
	CountRole(ctx context.Context, role models.Role) (int, error)
	List(ctx context.Context) ([]models.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetByResetToken(ctx context.Context, token string) (*models.AdminUser, error)
	Insert(ctx context.Context, user *models.AdminUser) error
	SetRole(ctx context.Context, id string, role models.Role) error
	Delete(ctx context.Context, id string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	SetPassword(ctx context.Context, id, hash string) error
}

type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, token string) bool
}

type Service struct {
	DB          DBLayer
	Tokens      *Tokens
	Revocations Revocations
	Mailer      ResetMailer
	Logger      *logger.Logger
	ResetTTL    time.Duration
	now         func() time.Time
}

func NewService(db DBLayer, tokens *Tokens, revocations Revocations, mailer ResetMailer, resetTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		DB:          db,
		Tokens:      tokens,
		Revocations: revocations,
		Mailer:      mailer,
		Logger:      log,
		ResetTTL:    resetTTL,
		now:         time.Now,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.AdminUser
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.Validationf("Password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validationf("Email and password are required")
	}

	user, err := s.DB.GetByEmail(ctx, email)
	if apperr.IsKind(err, apperr.NotFound) || (err == nil && !CheckPassword(user.PasswordHash, password)) {
		s.Logger.LogSecurity("LOGIN_FAILED", email)
		return nil, apperr.Unauthorizedf("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}

	token, claims, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.DB.TouchLogin(ctx, user.ID, now); err != nil {
		s.Logger.Warn("AUTH", fmt.Sprintf("last_login for %s not recorded: %v", user.Email, err))
	}
	user.LastLogin = &now
	s.Logger.Info("AUTH", fmt.Sprintf("%s signed in (%s)", user.Email, user.Role))

	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: *user}, nil
}

// Logout revokes the session until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	return s.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Forgot mails a reset link when the email belongs to an admin. It reports
// success either way.
func (s *Service) Forgot(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperr.Validationf("Email is required")
	}

	user, err := s.DB.GetByEmail(ctx, email)
	if apperr.IsKind(err, apperr.NotFound) {
		s.Logger.LogSecurity("RESET_UNKNOWN_EMAIL", email)
		return nil
	}
	if err != nil {
		return err
	}

	token, err := utils.GenerateToken(32)
	if err != nil {
		return err
	}
	if err := s.DB.SetResetToken(ctx, user.ID, token, s.now().UTC().Add(s.ResetTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	s.Mailer.SendPasswordReset(ctx, user.Email, token)
	return nil
}

func (s *Service) Reset(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return apperr.Validationf("Token and password are required")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	user, err := s.DB.GetByResetToken(ctx, token)
	if apperr.IsKind(err, apperr.NotFound) {
		return apperr.Validationf("Invalid or expired reset token")
	}
	if err != nil {
		return err
	}
	if user.ResetTokenExpires == nil || !user.ResetTokenExpires.After(s.now()) {
		return apperr.Validationf("Invalid or expired reset token")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.DB.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	s.Logger.Info("AUTH", fmt.Sprintf("password reset for %s", user.Email))
	return nil
}

// Setup creates the first admin. It is refused once any admin exists.
func (s *Service) Setup(ctx context.Context, email, password string) (*models.AdminUser, error) {
	n, err := s.DB.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperr.Forbiddenf("Admin user already exists")
	}
	return s.CreateUser(ctx, email, password, models.RoleEdit)
}

func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	n, err := s.DB.Count(ctx)
	return n == 0, err
}

func (s *Service) ListUsers(ctx context.Context) ([]models.AdminUser, error) {
	users, err := s.DB.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	if users == nil {
		users = []models.AdminUser{}
	}
	return users, nil
}

// CreateUser adds an admin. An empty role means view.
func (s *Service) CreateUser(ctx context.Context, email, password string, role models.Role) (*models.AdminUser, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validationf("Email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validationf("Email is invalid")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleView
	}
	if !role.Valid() {
		return nil, apperr.Validationf("Role must be edit or view")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.AdminUser{
		ID:           utils.GenerateID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.DB.Insert(ctx, user); err != nil {
		return nil, err
	}
	s.Logger.Info("AUTH", fmt.Sprintf("admin %s created with role %s", email, role))
	return user, nil
}

// SetRole changes a user's role, keeping at least one edit user.
func (s *Service) SetRole(ctx context.Context, id string, role models.Role) (*models.AdminUser, error) {
	if !role.Valid() {
		return nil, apperr.Validationf("Role must be edit or view")
	}
	user, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if user.Role == models.RoleEdit {
		if err := s.ensureAnotherEditor(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.DB.SetRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	user.Role = role
	s.Logger.Info("AUTH", fmt.Sprintf("admin %s is now %s", user.Email, role))
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperr.Validationf("You cannot delete your own account")
	}
	user, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleEdit {
		if err := s.ensureAnotherEditor(ctx); err != nil {
			return err
		}
	}

	if err := s.DB.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete admin user: %w", err)
	}
	s.Logger.Info("AUTH", fmt.Sprintf("admin %s deleted", user.Email))
	return nil
}

func (s *Service) ensureAnotherEditor(ctx context.Context) error {
	editors, err := s.DB.CountRole(ctx, models.RoleEdit)
	if err != nil {
		return err
	}
	if editors <= 1 {
		return apperr.Conflictf("Cannot remove the last user with edit access")
	}
	return nil
}
