package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"nutrihelper/internal/api"
	"nutrihelper/internal/session"
)

// AuthService signs users in against the backend and keeps the resulting
// credential in a server-side session.
type AuthService struct {
	auth   Authenticator
	store  session.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewAuthService(auth Authenticator, store session.Store, ttl time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{auth: auth, store: store, ttl: ttl, now: time.Now, logger: logger}
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email address is not valid")
	}
	return nil
}

func (s *AuthService) Signup(ctx context.Context, req api.SignupRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateEmail(req.Email); err != nil {
		return "", err
	}
	if req.Password == "" {
		return "", invalid("password is required")
	}
	if req.Name == "" {
		return "", invalid("name is required")
	}
	if strings.TrimSpace(req.SecurityAnswer) == "" {
		return "", invalid("security answer is required")
	}

	msg, err := s.auth.Signup(ctx, req)
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	return msg, nil
}

// Login authenticates with the backend and stores a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return session.Session{}, err
	}
	if password == "" {
		return session.Session{}, invalid("password is required")
	}

	cred, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}

	sess := session.New(string(cred), email, s.now(), s.ttl)
	if err := s.store.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in", "user", sess.User(), "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Logout ends the session locally even when the backend call fails.
func (s *AuthService) Logout(ctx context.Context, sess session.Session) error {
	if err := s.auth.Logout(ctx, credential(sess)); err != nil {
		s.logger.WarnContext(ctx, "Backend logout failed", "user", sess.User(), "error", err)
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, req api.PasswordReset) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateEmail(req.Email); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.SecurityAnswer) == "" {
		return "", invalid("security answer is required")
	}
	if req.NewPassword == "" {
		return "", invalid("new password is required")
	}

	msg, err := s.auth.ForgotPassword(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return msg, nil
}

// Resolve returns the live session with the given id.
func (s *AuthService) Resolve(ctx context.Context, id string) (session.Session, error) {
	if id == "" {
		return session.Session{}, session.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// PurgeExpired removes expired sessions and returns how many were removed.
func (s *AuthService) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
