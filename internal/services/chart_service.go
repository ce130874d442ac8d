package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nutrihelper/internal/api"
	"nutrihelper/internal/cache"
	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

// chartLoadTimeout bounds a shared month load, which outlives the request
// that started it.
const chartLoadTimeout = 30 * time.Second

// SnapshotReader returns stored daily totals of user for the month
// containing today.
type SnapshotReader interface {
	Snapshot(ctx context.Context, user string, today time.Time) ([]core.DailyTotals, error)
}

// ChartService builds the monthly overview shown on the chart page.
type ChartService struct {
	backend   NutritionBackend
	cache     cache.Cache[core.MonthOverview]
	snapshots SnapshotReader
	group     singleflight.Group
	now       func() time.Time
	logger    *slog.Logger

	// generations counts invalidations per user; a load only caches its
	// result if no invalidation happened while it was running.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewChartService builds the service. A nil cache disables caching.
func NewChartService(backend NutritionBackend, c cache.Cache[core.MonthOverview], logger *slog.Logger) *ChartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartService{
		backend:     backend,
		cache:       c,
		now:         time.Now,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// WithSnapshotFallback serves stored snapshots, marked stale, when the
// backend fails for a reason other than authentication.
func (s *ChartService) WithSnapshotFallback(r SnapshotReader) *ChartService {
	s.snapshots = r
	return s
}

func chartPrefix(user string) string {
	return "chart:" + user + ":"
}

func chartKey(user string, today time.Time) string {
	return chartPrefix(user) + today.UTC().Format("2006-01")
}

// Month returns the overview of the current UTC month for the session user.
func (s *ChartService) Month(ctx context.Context, sess session.Session) (core.MonthOverview, error) {
	today := s.now()
	user := sess.User()
	key := chartKey(user, today)

	if s.cache != nil {
		if ov, ok := s.cache.Get(key); ok {
			return ov, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		gen := s.generation(user)

		// callers joining this flight must not fail because the first one left
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), chartLoadTimeout)
		defer cancel()

		entries, err := s.backend.ListFoodEntries(loadCtx, credential(sess))
		if err != nil {
			return core.MonthOverview{}, fmt.Errorf("list food entries: %w", err)
		}
		ov := core.NewMonthOverview(today, entries)
		s.store(key, user, gen, ov)
		return ov, nil
	})
	if err != nil {
		if ov, ok := s.fromSnapshot(ctx, user, today, err); ok {
			return ov, nil
		}
		return core.MonthOverview{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "Chart load shared with concurrent request", "key", key)
	}
	return v.(core.MonthOverview), nil
}

func (s *ChartService) generation(user string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[user]
}

// store caches ov unless user was invalidated since gen was read.
func (s *ChartService) store(key, user string, gen uint64, ov core.MonthOverview) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[user] != gen {
		s.logger.Debug("Discarding chart loaded before an invalidation", "key", key)
		return
	}
	s.cache.Set(key, ov)
}

func (s *ChartService) fromSnapshot(ctx context.Context, user string, today time.Time, cause error) (core.MonthOverview, bool) {
	if s.snapshots == nil || errors.Is(cause, api.ErrUnauthorized) || errors.Is(cause, api.ErrMissingCredential) {
		return core.MonthOverview{}, false
	}
	days, err := s.snapshots.Snapshot(ctx, user, today)
	if err != nil {
		s.logger.WarnContext(ctx, "Snapshot fallback failed", "user", user, "error", err)
		return core.MonthOverview{}, false
	}
	if len(days) == 0 {
		return core.MonthOverview{}, false
	}

	s.logger.WarnContext(ctx, "Backend unavailable, serving chart from snapshots",
		"user", user,
		"days", len(days),
		"error", cause)
	ov := core.MonthOverviewFromTotals(today, days)
	ov.Stale = true
	return ov, true
}

// Invalidate drops every cached month of user and keeps loads already in
// flight from caching what they read before the write.
func (s *ChartService) Invalidate(user string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[user]++
	s.mu.Unlock()

	s.group.Forget(chartKey(user, s.now()))
	if n := s.cache.DeletePrefix(chartPrefix(user)); n > 0 {
		s.logger.Debug("Chart cache invalidated", "user", user, "entries", n)
	}
}
