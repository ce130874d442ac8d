package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nutrihelper/internal/core"
	ports "nutrihelper/internal/sheets"
)

var _ ports.TotalsExporter = (*Store)(nil)

// Store keeps exported months in memory. Used when no spreadsheet is
// configured and in tests.
type Store struct {
	mu      sync.Mutex
	months  map[string]core.MonthOverview
	users   map[string]struct{}
	exports int
}

func New() *Store {
	return &Store{
		months: make(map[string]core.MonthOverview),
		users:  make(map[string]struct{}),
	}
}

func monthKey(user string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", user, year, month)
}

func (s *Store) ExportMonth(_ context.Context, user string, ov core.MonthOverview) error {
	if user == "" {
		return fmt.Errorf("export month: empty user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ov.Days = append([]core.DailyTotals(nil), ov.Days...)
	s.months[monthKey(user, ov.Year, ov.Month)] = ov
	s.users[user] = struct{}{}
	s.exports++
	return nil
}

// Month returns the last export for user and month.
func (s *Store) Month(user string, year, month int) (core.MonthOverview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, ok := s.months[monthKey(user, year, month)]
	return ov, ok
}

// Users lists every user with at least one exported month, sorted.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.users))
	for u := range s.users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Exports counts calls to ExportMonth.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
