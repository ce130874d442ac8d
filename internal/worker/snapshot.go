package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nutrihelper/internal/core"
	"nutrihelper/internal/sheets"
)

// SnapshotStore is the ledger side the snapshot job reads and writes.
type SnapshotStore interface {
	LedgerUsers(ctx context.Context, from, to time.Time) ([]string, error)
	LedgerEntries(ctx context.Context, user string, from, to time.Time) ([]core.FoodEntry, error)
	SaveSnapshot(ctx context.Context, user string, days []core.DailyTotals) error
}

// SessionPurger drops expired sessions.
type SessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// SnapshotResult summarizes one run.
type SnapshotResult struct {
	Users    int
	Exported int
	Failed   int
	Purged   int
}

type SnapshotJob struct {
	store    SnapshotStore
	exporter sheets.TotalsExporter
	sessions SessionPurger
	now      func() time.Time
	logger   *slog.Logger
}

// NewSnapshotJob builds the job. exporter and sessions may be nil.
func NewSnapshotJob(store SnapshotStore, exporter sheets.TotalsExporter, sessions SessionPurger, logger *slog.Logger) *SnapshotJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotJob{
		store:    store,
		exporter: exporter,
		sessions: sessions,
		now:      time.Now,
		logger:   logger,
	}
}

// Run recomputes the current month for every user in the ledger. A failure
// for one user is logged and the run moves on to the next.
func (j *SnapshotJob) Run(ctx context.Context) (SnapshotResult, error) {
	var res SnapshotResult
	today := j.now()
	start, end := core.MonthBounds(today)
	until := end.AddDate(0, 0, 1)

	users, err := j.store.LedgerUsers(ctx, start, until)
	if err != nil {
		return res, fmt.Errorf("list ledger users: %w", err)
	}
	res.Users = len(users)

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := j.snapshotUser(ctx, user, today, start, until); err != nil {
			res.Failed++
			j.logger.ErrorContext(ctx, "Snapshot failed", "user", user, "error", err)
			continue
		}
		if j.exporter != nil {
			res.Exported++
		}
	}

	if j.sessions != nil {
		n, err := j.sessions.DeleteExpired(ctx, today)
		if err != nil {
			j.logger.WarnContext(ctx, "Failed to purge expired sessions", "error", err)
		}
		res.Purged = n
	}

	j.logger.InfoContext(ctx, "Snapshot run completed",
		"month", start.Format("2006-01"),
		"users", res.Users,
		"exported", res.Exported,
		"failed", res.Failed,
		"sessions_purged", res.Purged)
	return res, nil
}

func (j *SnapshotJob) snapshotUser(ctx context.Context, user string, today, from, until time.Time) error {
	entries, err := j.store.LedgerEntries(ctx, user, from, until)
	if err != nil {
		return err
	}

	ov := core.NewMonthOverview(today, entries)
	if err := j.store.SaveSnapshot(ctx, user, ov.Days); err != nil {
		return err
	}

	if j.exporter == nil {
		return nil
	}
	if err := j.exporter.ExportMonth(ctx, user, ov); err != nil {
		return fmt.Errorf("export month: %w", err)
	}
	return nil
}
