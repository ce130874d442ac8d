// Package session keeps backend credentials server-side, keyed by an
// opaque id handed to the browser.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string
	Token     string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// User is the key per-user data is stored under.
func (s Session) User() string {
	return strings.ToLower(strings.TrimSpace(s.Email))
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions and the per-user set of recipes already logged.
type Store interface {
	Save(ctx context.Context, s Session) error
	// Get returns ErrNotFound for unknown and expired sessions.
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	MarkRecipeAdded(ctx context.Context, user, title string) error
	AddedRecipes(ctx context.Context, user string) ([]string, error)
	Ping(ctx context.Context) error
}

// New creates a session for a freshly issued token. The token's own expiry
// wins when it is earlier than now+ttl.
func New(token, email string, now time.Time, ttl time.Duration) Session {
	expires := now.Add(ttl)
	if exp, ok := ExpiryFromToken(token); ok && exp.Before(expires) {
		expires = exp
	}
	return Session{
		ID:        uuid.NewString(),
		Token:     token,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: expires,
	}
}

// ExpiryFromToken reads the exp claim of a JWT without verifying the
// signature; tokens are verified by the backend that issued them.
func ExpiryFromToken(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
