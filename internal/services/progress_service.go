package services

import (
	"context"
	"fmt"
	"time"

	"nutrihelper/internal/core"
	"nutrihelper/internal/session"
)

// Progress is today's intake measured against the estimated needs.
type Progress struct {
	Date      string
	Stats     core.UserStats
	Needs     core.Needs
	Intake    core.Macros
	Entries   int
	Nutrients []core.NutrientProgress
}

type ProgressService struct {
	backend NutritionBackend
	loc     *time.Location
	now     func() time.Time
}

// NewProgressService decides "today" in loc; nil means UTC.
func NewProgressService(backend NutritionBackend, loc *time.Location) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{backend: backend, loc: loc, now: time.Now}
}

func (s *ProgressService) Today(ctx context.Context, sess session.Session, stats core.UserStats) (Progress, error) {
	if err := stats.Validate(); err != nil {
		return Progress{}, invalidErr(err)
	}

	local := s.now().In(s.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	entries, err := s.backend.FilterFoodEntries(ctx, credential(sess), day, day)
	if err != nil {
		return Progress{}, fmt.Errorf("filter food entries: %w", err)
	}

	intake := core.SumMacros(entries)
	needs := core.DailyNeeds(stats)
	return Progress{
		Date:      day.Format(core.DateLayout),
		Stats:     stats,
		Needs:     needs,
		Intake:    intake,
		Entries:   len(entries),
		Nutrients: core.CompareToNeeds(intake, needs),
	}, nil
}
