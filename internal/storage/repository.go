package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"nutrihelper/internal/core"
	"nutrihelper/internal/session"

	_ "modernc.org/sqlite"
)

// LedgerEntry is a food entry received from the event stream.
type LedgerEntry struct {
	EventID    string
	User       string
	Entry      core.FoodEntry
	ReceivedAt time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ session.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Save implements session.Store
func (r *SQLiteRepository) Save(ctx context.Context, s session.Session) error {
	err := r.queries.UpsertSession(ctx, Session{
		ID:        s.ID,
		Token:     s.Token,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.Unix(),
		ExpiresAt: s.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get implements session.Store
func (r *SQLiteRepository) Get(ctx context.Context, id string) (session.Session, error) {
	row, err := r.queries.GetSession(ctx, id, r.now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session.Session{
		ID:        row.ID,
		Token:     row.Token,
		Email:     row.Email,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(row.ExpiresAt, 0).UTC(),
	}, nil
}

// Delete implements session.Store
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if err := r.queries.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired implements session.Store
func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(n), nil
}

// MarkRecipeAdded implements session.Store
func (r *SQLiteRepository) MarkRecipeAdded(ctx context.Context, user, title string) error {
	if err := r.queries.InsertAddedRecipe(ctx, user, title, r.now().Unix()); err != nil {
		return fmt.Errorf("mark recipe added: %w", err)
	}
	return nil
}

// AddedRecipes implements session.Store
func (r *SQLiteRepository) AddedRecipes(ctx context.Context, user string) ([]string, error) {
	titles, err := r.queries.ListAddedRecipes(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list added recipes: %w", err)
	}
	return titles, nil
}

// AppendLedgerEntry records an entry event once. It reports false when the
// event id was already stored, which happens on broker redelivery.
func (r *SQLiteRepository) AppendLedgerEntry(ctx context.Context, le LedgerEntry) (bool, error) {
	e := le.Entry
	n, err := r.queries.InsertLoggedEntry(ctx, LoggedEntry{
		EventID:       le.EventID,
		UserKey:       le.User,
		Name:          e.Name,
		Portion:       e.Portion,
		Unit:          e.Unit,
		Calories:      e.Macros.Calories,
		Protein:       e.Macros.Protein,
		Fat:           e.Macros.Fat,
		Carbohydrates: e.Macros.Carbohydrates,
		Fiber:         e.Macros.Fiber,
		Sugar:         e.Macros.Sugar,
		MealType:      string(e.MealType),
		ConsumedAt:    e.ConsumedAt.Unix(),
		ReceivedAt:    le.ReceivedAt.Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}

	if n > 0 {
		slog.DebugContext(ctx, "Ledger entry stored",
			"event_id", le.EventID,
			"user", le.User,
			"food_name", e.Name)
	}
	return n > 0, nil
}

// LedgerUsers returns users with entries consumed in [from, to).
func (r *SQLiteRepository) LedgerUsers(ctx context.Context, from, to time.Time) ([]string, error) {
	users, err := r.queries.ListLedgerUsers(ctx, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("list ledger users: %w", err)
	}
	return users, nil
}

// LedgerEntries returns a user's entries consumed in [from, to), oldest first.
func (r *SQLiteRepository) LedgerEntries(ctx context.Context, user string, from, to time.Time) ([]core.FoodEntry, error) {
	rows, err := r.queries.ListLoggedEntries(ctx, user, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	entries := make([]core.FoodEntry, len(rows))
	for i, row := range rows {
		entries[i] = core.FoodEntry{
			ID:      row.ID,
			Name:    row.Name,
			Portion: row.Portion,
			Unit:    row.Unit,
			Macros: core.Macros{
				Calories:      row.Calories,
				Protein:       row.Protein,
				Fat:           row.Fat,
				Carbohydrates: row.Carbohydrates,
				Fiber:         row.Fiber,
				Sugar:         row.Sugar,
			},
			MealType:   core.MealType(row.MealType),
			ConsumedAt: time.Unix(row.ConsumedAt, 0).UTC(),
		}
	}
	return entries, nil
}

// SaveSnapshot replaces the stored daily totals of user for the given days
// in one transaction.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, user string, days []core.DailyTotals) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	updated := r.now().Unix()
	for _, d := range days {
		err := q.UpsertDailySnapshot(ctx, DailySnapshot{
			UserKey:       user,
			Day:           d.Date,
			Calories:      d.Calories,
			Protein:       d.Protein,
			Fat:           d.Fat,
			Carbohydrates: d.Carbohydrates,
			Fiber:         d.Fiber,
			Sugar:         d.Sugar,
			UpdatedAt:     updated,
		})
		if err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", d.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Snapshot returns the stored daily totals of user for the month containing
// today. Days never snapshotted are absent.
func (r *SQLiteRepository) Snapshot(ctx context.Context, user string, today time.Time) ([]core.DailyTotals, error) {
	start, end := core.MonthBounds(today)
	rows, err := r.queries.ListDailySnapshots(ctx, user, core.DateKey(start), core.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	days := make([]core.DailyTotals, len(rows))
	for i, row := range rows {
		days[i] = core.DailyTotals{
			Date: row.Day,
			Macros: core.Macros{
				Calories:      row.Calories,
				Protein:       row.Protein,
				Fat:           row.Fat,
				Carbohydrates: row.Carbohydrates,
				Fiber:         row.Fiber,
				Sugar:         row.Sugar,
			},
		}
	}
	return days, nil
}
