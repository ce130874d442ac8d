// Package services composes backend calls with the pure nutrition
// computations. Every operation takes the caller's session explicitly and
// returns its result or an error; nothing is cached per user except the
// monthly chart.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrihelper/internal/amqp"
	"nutrihelper/internal/api"
	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

// ErrInvalidInput marks errors caused by the caller's input.
var ErrInvalidInput = errors.New("invalid input")

// NutritionBackend is the subset of the backend client used by services.
type NutritionBackend interface {
	AddFoodEntry(ctx context.Context, cred api.Credential, e core.FoodEntry) (string, error)
	ListFoodEntries(ctx context.Context, cred api.Credential) ([]core.FoodEntry, error)
	FilterFoodEntries(ctx context.Context, cred api.Credential, from, to time.Time) ([]core.FoodEntry, error)
	LookupFood(ctx context.Context, cred api.Credential, query string) (core.FoodInfo, error)
	RecommendRecipes(ctx context.Context, cred api.Credential, t core.MacroTargets) ([]core.Recipe, error)
}

type Authenticator interface {
	Signup(ctx context.Context, req api.SignupRequest) (string, error)
	Login(ctx context.Context, email, password string) (api.Credential, error)
	Logout(ctx context.Context, cred api.Credential) error
	ForgotPassword(ctx context.Context, req api.PasswordReset) (string, error)
}

type EntryPublisher interface {
	PublishEntryLogged(ctx context.Context, msg *amqp.EntryLoggedMessage) error
}

type FoodSearcher interface {
	Search(ctx context.Context, terms string) ([]core.FoodCandidate, error)
}

func credential(s session.Session) api.Credential {
	return api.Credential(s.Token)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// invalidErr marks a domain validation error as caller input.
func invalidErr(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
