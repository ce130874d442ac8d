package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

type RecipeService struct {
	backend NutritionBackend
	entries *EntryService
	store   session.Store
	now     func() time.Time
	logger  *slog.Logger
}

func NewRecipeService(backend NutritionBackend, entries *EntryService, store session.Store, logger *slog.Logger) *RecipeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeService{backend: backend, entries: entries, store: store, now: time.Now, logger: logger}
}

func (s *RecipeService) Recommend(ctx context.Context, sess session.Session, t core.MacroTargets) ([]core.Recipe, error) {
	if err := t.Validate(); err != nil {
		return nil, invalidErr(err)
	}
	recipes, err := s.backend.RecommendRecipes(ctx, credential(sess), t)
	if err != nil {
		return nil, fmt.Errorf("recommend recipes: %w", err)
	}
	return recipes, nil
}

// Add logs one serving of r as a meal and remembers its title for the user.
func (s *RecipeService) Add(ctx context.Context, sess session.Session, r core.Recipe) (string, error) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "", invalid("recipe title is required")
	}

	msg, err := s.entries.Add(ctx, sess, r.ToFoodEntry(s.now()))
	if err != nil {
		return "", err
	}

	if err := s.store.MarkRecipeAdded(ctx, sess.User(), r.Title); err != nil {
		// the entry exists; only the "Add Again" hint is lost
		s.logger.WarnContext(ctx, "Failed to remember added recipe", "error", err, "recipe", r.Title)
	}
	return msg, nil
}

func (s *RecipeService) Added(ctx context.Context, sess session.Session) ([]string, error) {
	titles, err := s.store.AddedRecipes(ctx, sess.User())
	if err != nil {
		return nil, fmt.Errorf("list added recipes: %w", err)
	}
	return titles, nil
}
