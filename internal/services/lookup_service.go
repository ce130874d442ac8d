package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

// ErrSearchDisabled is returned when no food database is configured.
var ErrSearchDisabled = errors.New("food search is not configured")

type LookupService struct {
	backend  NutritionBackend
	searcher FoodSearcher
}

// NewLookupService builds the service; searcher may be nil.
func NewLookupService(backend NutritionBackend, searcher FoodSearcher) *LookupService {
	return &LookupService{backend: backend, searcher: searcher}
}

// Lookup asks the backend's nutrition database about a free-text food.
func (s *LookupService) Lookup(ctx context.Context, sess session.Session, query string) (core.FoodInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return core.FoodInfo{}, invalid("food query is required")
	}
	info, err := s.backend.LookupFood(ctx, credential(sess), query)
	if err != nil {
		return core.FoodInfo{}, fmt.Errorf("lookup food: %w", err)
	}
	return info, nil
}

func (s *LookupService) Search(ctx context.Context, terms string) ([]core.FoodCandidate, error) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return nil, invalid("search terms are required")
	}
	if s.searcher == nil {
		return nil, ErrSearchDisabled
	}
	found, err := s.searcher.Search(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("search foods: %w", err)
	}
	return found, nil
}
