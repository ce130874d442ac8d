package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nutrihelper/internal/amqp"
	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

// ChartInvalidator drops cached chart data for a user.
type ChartInvalidator interface {
	Invalidate(user string)
}

// EntryService logs and reads food entries through the backend.
type EntryService struct {
	backend   NutritionBackend
	publisher EntryPublisher
	charts    ChartInvalidator
	now       func() time.Time
	logger    *slog.Logger
}

// NewEntryService builds the service. publisher and charts may be nil.
func NewEntryService(backend NutritionBackend, publisher EntryPublisher, charts ChartInvalidator, logger *slog.Logger) *EntryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryService{
		backend:   backend,
		publisher: publisher,
		charts:    charts,
		now:       time.Now,
		logger:    logger,
	}
}

// Add validates e, stores it in the backend and announces it. The backend's
// confirmation message is returned.
func (s *EntryService) Add(ctx context.Context, sess session.Session, e core.FoodEntry) (string, error) {
	if e.Unit == "" {
		e.Unit = core.DefaultUnit
	}
	if e.ConsumedAt.IsZero() {
		e.ConsumedAt = s.now()
	}
	if err := e.ValidateAt(s.now()); err != nil {
		return "", invalidErr(err)
	}

	msg, err := s.backend.AddFoodEntry(ctx, credential(sess), e)
	if err != nil {
		return "", fmt.Errorf("add food entry: %w", err)
	}

	user := sess.User()
	if s.charts != nil {
		s.charts.Invalidate(user)
	}

	s.logger.InfoContext(ctx, "Food entry logged",
		"user", user,
		"food", e.Name,
		"meal_type", e.MealType,
		"calories", e.Macros.Calories)

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP publisher not configured, skipping entry event")
		return msg, nil
	}
	if err := s.publisher.PublishEntryLogged(ctx, amqp.NewEntryLoggedMessage(user, e)); err != nil {
		// the entry is already stored; the ledger will miss it
		s.logger.ErrorContext(ctx, "Failed to publish entry logged event", "error", err, "user", user)
	}
	return msg, nil
}

// AddCandidate logs a 100 g snack of a food database product, consumed now.
func (s *EntryService) AddCandidate(ctx context.Context, sess session.Session, c core.FoodCandidate) (string, error) {
	return s.Add(ctx, sess, c.ToFoodEntry(s.now()))
}

func (s *EntryService) List(ctx context.Context, sess session.Session) ([]core.FoodEntry, error) {
	entries, err := s.backend.ListFoodEntries(ctx, credential(sess))
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	return entries, nil
}

// Filter returns entries consumed between from and to, both inclusive
// calendar dates.
func (s *EntryService) Filter(ctx context.Context, sess session.Session, from, to time.Time) ([]core.FoodEntry, error) {
	if from.IsZero() || to.IsZero() {
		return nil, invalid("both start and end dates are required")
	}
	if to.Before(from) {
		return nil, invalid("start date must not be after end date")
	}
	entries, err := s.backend.FilterFoodEntries(ctx, credential(sess), from, to)
	if err != nil {
		return nil, fmt.Errorf("filter food entries: %w", err)
	}
	return entries, nil
}
